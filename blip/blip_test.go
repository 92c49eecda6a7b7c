package blip

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewBlip(t *testing.T) {
	b := NewBlip("u1")

	if b.Creator != "u1" {
		t.Errorf("creator = %v, expected u1\n", b.Creator)
	}

	got := b.Contributors.All()
	expected := []string{"u1"}

	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}

	if b.Document.Len() != 0 {
		t.Errorf("new blip has non-empty document: %q\n", b.Document.Content())
	}
}

func TestContributorsAppendOnly(t *testing.T) {
	c := &Contributors{}
	c.Append("u1")
	c.Append("u2")

	got := c.All()
	expected := []string{"u1", "u2"}

	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}

	// All hands out a copy; writing through it must not reach the list.
	got[0] = "intruder"

	if !cmp.Equal(c.All(), expected) {
		t.Errorf("mutating the returned slice changed the list: %v\n", c.All())
	}

	if !c.Contains("u2") || c.Contains("u3") {
		t.Errorf("contains is wrong: %v\n", c.All())
	}
	if c.Len() != 2 {
		t.Errorf("len = %d, expected 2\n", c.Len())
	}
}

func TestBlipAnnotate(t *testing.T) {
	b := NewBlip("u1")
	if err := ApplyScript(b.Document, []Op{InsertChars{Text: "text"}}); err != nil {
		t.Fatalf("apply failed: %v\n", err)
	}

	if err := b.Annotate(1, 3, "style/bold", "true"); err != nil {
		t.Fatalf("annotate failed: %v\n", err)
	}

	got := b.Document.Annotations().All()
	expected := []Annotation{{Start: 1, End: 3, Name: "style/bold", Value: "true"}}

	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}

	if err := b.Annotate(2, 9, "style/bold", "true"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("got error %v, expected %v\n", err, ErrOutOfRange)
	}
	if err := b.Annotate(3, 1, "style/bold", "true"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("got error %v, expected %v\n", err, ErrInvalidArgument)
	}
}
