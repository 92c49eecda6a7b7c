package blip

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrMergeConflict      = errors.New("annotations are not mergeable")
	ErrResolution         = errors.New("annotation resolution did not reach a fixpoint")
	ErrMalformedOperation = errors.New("operation script does not account for buffer length")
	ErrOutOfRange         = errors.New("position out of range")
)

// Annotation is a named, valued metadata range over buffer positions.
//
// Start and End are boundary positions: in the four letter buffer "text",
// the range (1, 3) covers the letters "ex". A position query treats both
// bounds as inclusive.
//
// Annotations are value types and are never mutated in place; every merge
// produces a fresh Annotation.
type Annotation struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewAnnotation validates the range and returns an Annotation.
func NewAnnotation(start, end int, name, value string) (Annotation, error) {
	if start < 0 || end < 0 {
		return Annotation{}, fmt.Errorf("%w: negative annotation bound (%d, %d)", ErrInvalidArgument, start, end)
	}
	if start > end {
		return Annotation{}, fmt.Errorf("%w: annotation start %d after end %d", ErrInvalidArgument, start, end)
	}
	return Annotation{Start: start, End: end, Name: name, Value: value}, nil
}

// Key returns the (name, value) pair that decides merge eligibility.
func (a Annotation) Key() (string, string) {
	return a.Name, a.Value
}

// Contains reports whether pos falls inside the annotation's closed range.
func (a Annotation) Contains(pos int) bool {
	return a.Start <= pos && pos <= a.End
}

func (a Annotation) String() string {
	return fmt.Sprintf("(%d:%d) %q=%q", a.Start, a.End, a.Name, a.Value)
}

// relation classifies how the range of a sits relative to the range of b.
// Every pair of ranges falls into exactly one case; there is no default.
type relation int

const (
	relDisjointBefore relation = iota // a ends strictly before b starts
	relDisjointAfter                  // a starts strictly after b ends
	relTouchingBefore                 // a.End == b.Start
	relTouchingAfter                  // a.Start == b.End
	relOverlapLeft                    // a starts first, ranges overlap, neither contains the other
	relOverlapRight                   // b starts first, ranges overlap, neither contains the other
	relContains                       // a strictly contains b
	relContained                      // b strictly contains a
	relEqual                          // identical ranges
)

// relate exhaustively classifies the interval relationship of a and b.
func relate(a, b Annotation) relation {
	switch {
	case a.Start == b.Start && a.End == b.End:
		return relEqual
	case a.End < b.Start:
		return relDisjointBefore
	case b.End < a.Start:
		return relDisjointAfter
	case a.End == b.Start:
		return relTouchingBefore
	case b.End == a.Start:
		return relTouchingAfter
	case a.Start <= b.Start && b.End <= a.End:
		return relContains
	case b.Start <= a.Start && a.End <= b.End:
		return relContained
	case a.Start < b.Start:
		return relOverlapLeft
	default:
		return relOverlapRight
	}
}

// Mergeable reports whether Merge(a, b) would succeed.
func Mergeable(a, b Annotation) bool {
	if a.Name != b.Name || a.Value != b.Value {
		return false
	}
	switch relate(a, b) {
	case relDisjointBefore, relDisjointAfter:
		return false
	default:
		return true
	}
}

// Merge combines two annotations holding the same name and value into one.
// Overlapping or touching ranges produce the envelope of both; a contained
// range is absorbed by its container without growing it. Disjoint ranges and
// ranges with different keys fail with ErrMergeConflict.
//
// Merge is pure: neither argument is modified.
func Merge(a, b Annotation) (Annotation, error) {
	if a.Name != b.Name || a.Value != b.Value {
		return Annotation{}, fmt.Errorf("%w: %s vs %s", ErrMergeConflict, a, b)
	}
	switch relate(a, b) {
	case relEqual:
		return a, nil
	case relContains:
		return a, nil
	case relContained:
		return b, nil
	case relTouchingBefore, relTouchingAfter, relOverlapLeft, relOverlapRight:
		merged := a
		if b.Start < merged.Start {
			merged.Start = b.Start
		}
		if b.End > merged.End {
			merged.End = b.End
		}
		return merged, nil
	case relDisjointBefore, relDisjointAfter:
		return Annotation{}, fmt.Errorf("%w: disjoint ranges %s and %s", ErrMergeConflict, a, b)
	}
	// relate covers every geometry; this is unreachable.
	return Annotation{}, fmt.Errorf("%w: unclassified ranges %s and %s", ErrMergeConflict, a, b)
}
