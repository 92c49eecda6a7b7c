package blip

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// seedDocument fills a buffer with s and returns the cursor home.
func seedDocument(t *testing.T, s string) *DocumentBuffer {
	t.Helper()

	d := NewDocumentBuffer()
	if err := d.InsertCharacters(s, nil); err != nil {
		t.Fatalf("failed to seed document: %v\n", err)
	}
	d.Complete()
	return d
}

func TestRetainInsertDelete(t *testing.T) {
	d := seedDocument(t, "ABCD")

	if err := d.Retain(2); err != nil {
		t.Fatalf("retain failed: %v\n", err)
	}
	if err := d.InsertCharacters("XY", nil); err != nil {
		t.Fatalf("insert failed: %v\n", err)
	}
	if err := d.Delete(1); err != nil {
		t.Fatalf("delete failed: %v\n", err)
	}

	got := d.Complete().Content()
	expected := "ABXYD"

	if got != expected {
		t.Errorf("got != expected; got = %v, expected = %v\n", got, expected)
	}
}

func TestInsertBeforeRetainGrowsTail(t *testing.T) {
	// With the cursor still at home the buffer has not been rotated, so an
	// insert lands at the tail rather than at position zero.
	d := seedDocument(t, "ABCD")

	if err := d.InsertCharacters("XY", nil); err != nil {
		t.Fatalf("insert failed: %v\n", err)
	}

	got := d.Complete().Content()
	expected := "ABCDXY"

	if got != expected {
		t.Errorf("got != expected; got = %v, expected = %v\n", got, expected)
	}
}

func TestRetainValidation(t *testing.T) {
	tests := []struct {
		description string
		n           int
		wantErr     error
	}{
		{description: "negative count", n: -1, wantErr: ErrInvalidArgument},
		{description: "past the end", n: 5, wantErr: ErrOutOfRange},
		{description: "to the end", n: 4},
	}

	for _, tc := range tests {
		d := seedDocument(t, "ABCD")

		err := d.Retain(tc.n)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("(%s) got error %v, expected %v\n", tc.description, err, tc.wantErr)
		}
	}
}

func TestDeleteValidation(t *testing.T) {
	d := seedDocument(t, "ABCD")
	if err := d.Retain(2); err != nil {
		t.Fatalf("retain failed: %v\n", err)
	}

	err := d.Delete(3)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("got error %v, expected %v\n", err, ErrOutOfRange)
	}

	// A rejected delete must leave the buffer unchanged.
	got := d.Complete().Content()
	expected := "ABCD"

	if got != expected {
		t.Errorf("got != expected; got = %v, expected = %v\n", got, expected)
	}

	if err := seedDocument(t, "ABCD").Delete(-1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative delete: got error %v, expected %v\n", err, ErrInvalidArgument)
	}
}

func TestInsertTagsSpan(t *testing.T) {
	d := seedDocument(t, "ABCD")

	if err := d.Retain(2); err != nil {
		t.Fatalf("retain failed: %v\n", err)
	}
	if err := d.InsertCharacters("XY", map[string]string{"style/bold": "true"}); err != nil {
		t.Fatalf("insert failed: %v\n", err)
	}
	d.Complete()

	got := d.Annotations().All()
	expected := []Annotation{{Start: 2, End: 4, Name: "style/bold", Value: "true"}}

	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}
}

func TestInsertShiftsAnnotations(t *testing.T) {
	d := seedDocument(t, "ABCD")
	if err := d.Annotations().Annotate(2, 4, "style/bold", "true"); err != nil {
		t.Fatalf("annotate failed: %v\n", err)
	}

	if err := d.Retain(1); err != nil {
		t.Fatalf("retain failed: %v\n", err)
	}
	if err := d.InsertCharacters("xy", nil); err != nil {
		t.Fatalf("insert failed: %v\n", err)
	}
	d.Complete()

	if got, expected := d.Content(), "AxyBCD"; got != expected {
		t.Fatalf("got != expected; got = %v, expected = %v\n", got, expected)
	}

	got := d.Annotations().All()
	expected := []Annotation{{Start: 4, End: 6, Name: "style/bold", Value: "true"}}

	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}
}

func TestDeleteTruncatesAnnotations(t *testing.T) {
	d := seedDocument(t, "ABCDEF")
	if err := d.Annotations().Annotate(1, 5, "style/bold", "true"); err != nil {
		t.Fatalf("annotate failed: %v\n", err)
	}

	if err := d.Retain(2); err != nil {
		t.Fatalf("retain failed: %v\n", err)
	}
	if err := d.Delete(2); err != nil {
		t.Fatalf("delete failed: %v\n", err)
	}
	d.Complete()

	if got, expected := d.Content(), "ABEF"; got != expected {
		t.Fatalf("got != expected; got = %v, expected = %v\n", got, expected)
	}

	got := d.Annotations().All()
	expected := []Annotation{{Start: 1, End: 3, Name: "style/bold", Value: "true"}}

	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}
}

func TestFixRotationIdempotent(t *testing.T) {
	d := seedDocument(t, "ABCD")
	if err := d.Retain(3); err != nil {
		t.Fatalf("retain failed: %v\n", err)
	}

	d.FixRotation()
	first := d.Content()
	cursor := d.Cursor()

	d.FixRotation()
	second := d.Content()

	if first != second || cursor != 0 || d.Cursor() != 0 {
		t.Errorf("fix rotation is not idempotent: %q/%d then %q/%d\n", first, cursor, second, d.Cursor())
	}
}

func TestInsertElement(t *testing.T) {
	d := seedDocument(t, "AB")
	if err := d.Retain(1); err != nil {
		t.Fatalf("retain failed: %v\n", err)
	}

	el := Element{Type: "line", Properties: map[string]string{"t": "h1"}}
	if err := d.InsertElement(el, nil); err != nil {
		t.Fatalf("insert element failed: %v\n", err)
	}
	d.Complete()

	if got, expected := d.Content(), "A￼B"; got != expected {
		t.Errorf("got != expected; got = %q, expected = %q\n", got, expected)
	}

	got, ok := d.ElementAt(1)
	if !ok {
		t.Fatalf("no element at position 1\n")
	}
	if !cmp.Equal(got, el) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, el))
	}

	if _, ok := d.ElementAt(0); ok {
		t.Errorf("unexpected element at position 0\n")
	}
}

func TestQueryAnnotationsBounds(t *testing.T) {
	d := seedDocument(t, "ABCD")

	if _, err := d.QueryAnnotations(5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("got error %v, expected %v\n", err, ErrOutOfRange)
	}
	if _, err := d.QueryAnnotations(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("got error %v, expected %v\n", err, ErrOutOfRange)
	}
	if _, err := d.QueryAnnotations(4); err != nil {
		t.Errorf("query at the end boundary failed: %v\n", err)
	}
}
