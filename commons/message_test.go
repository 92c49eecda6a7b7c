package commons

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hexwave/wavelet/blip"
)

func TestOperationOp(t *testing.T) {
	tests := []struct {
		description string
		op          Operation
		wantErr     bool
	}{
		{description: "retain", op: Operation{Type: OpRetain, Count: 3}},
		{description: "insert characters", op: Operation{Type: OpInsertChars, Value: "hi"}},
		{description: "insert element", op: Operation{Type: OpInsertElement, Element: &blip.Element{Type: "line"}}},
		{description: "insert element without element", op: Operation{Type: OpInsertElement}, wantErr: true},
		{description: "delete", op: Operation{Type: OpDelete, Count: 1}},
		{description: "unknown type", op: Operation{Type: "upsert"}, wantErr: true},
	}

	for _, tc := range tests {
		_, err := tc.op.Op()
		if (err != nil) != tc.wantErr {
			t.Errorf("(%s) got error %v, wantErr = %v\n", tc.description, err, tc.wantErr)
		}
	}
}

func TestToOpsApply(t *testing.T) {
	script := []Operation{
		{Type: OpRetain, Count: 2},
		{Type: OpInsertChars, Value: "XY"},
		{Type: OpDelete, Count: 1},
		{Type: OpRetain, Count: 1},
	}

	ops, err := ToOps(script)
	if err != nil {
		t.Fatalf("conversion failed: %v\n", err)
	}

	b := blip.NewBlip("u1")
	if err := blip.ApplyScript(b.Document, []blip.Op{blip.InsertChars{Text: "ABCD"}}); err != nil {
		t.Fatalf("seed failed: %v\n", err)
	}
	if err := blip.ApplyScript(b.Document, ops); err != nil {
		t.Fatalf("apply failed: %v\n", err)
	}

	got := b.Document.Content()
	expected := "ABXYD"

	if got != expected {
		t.Errorf("got != expected; got = %v, expected = %v\n", got, expected)
	}
}

func TestSnapshotRestore(t *testing.T) {
	b := blip.NewBlip("u1")
	b.Contributors.Append("u2")

	ops := []blip.Op{
		blip.InsertChars{Text: "wave", Annotations: map[string]string{"style/bold": "true"}},
		blip.InsertElem{Element: blip.Element{Type: "line", Properties: map[string]string{"t": "h1"}}},
	}
	if err := blip.ApplyScript(b.Document, ops); err != nil {
		t.Fatalf("apply failed: %v\n", err)
	}

	snap := Snapshot(b)

	restored, err := Restore(snap)
	if err != nil {
		t.Fatalf("restore failed: %v\n", err)
	}

	if got, expected := restored.Document.Content(), b.Document.Content(); got != expected {
		t.Errorf("content: got = %q, expected = %q\n", got, expected)
	}

	got := restored.Document.Annotations().All()
	expected := b.Document.Annotations().All()
	if !cmp.Equal(got, expected) {
		t.Errorf("annotations: got != expected, diff: %v\n", cmp.Diff(got, expected))
	}

	if !cmp.Equal(restored.Contributors.All(), b.Contributors.All()) {
		t.Errorf("contributors: got != expected, diff: %v\n", cmp.Diff(restored.Contributors.All(), b.Contributors.All()))
	}

	el, ok := restored.Document.ElementAt(4)
	if !ok {
		t.Fatalf("restored blip lost its element\n")
	}
	if got, expected := el.Type, "line"; got != expected {
		t.Errorf("element type: got = %v, expected = %v\n", got, expected)
	}

	if restored.ID != b.ID {
		t.Errorf("blip ID changed across restore\n")
	}
}
