package blip

import (
	"fmt"
	"sort"
)

// AnnotationSet owns every annotation attached to one document buffer.
// After resolution no two stored annotations share a (name, value) key with
// overlapping or touching ranges.
type AnnotationSet struct {
	anns []Annotation
}

// NewAnnotationSet returns an empty set.
func NewAnnotationSet() *AnnotationSet {
	return &AnnotationSet{}
}

// Len returns the number of stored annotations.
func (s *AnnotationSet) Len() int {
	return len(s.anns)
}

// All returns the stored annotations in deterministic order.
func (s *AnnotationSet) All() []Annotation {
	out := make([]Annotation, len(s.anns))
	copy(out, s.anns)
	sortAnnotations(out)
	return out
}

// Annotate validates and inserts a new annotation, then merges it with any
// stored annotation holding the same name and value whose range overlaps or
// touches the new one.
func (s *AnnotationSet) Annotate(start, end int, name, value string) error {
	ann, err := NewAnnotation(start, end, name, value)
	if err != nil {
		return err
	}
	s.add(ann)
	return nil
}

// add merges ann against the stored entries until it is disjoint from every
// remaining same-key annotation, then stores it. Each merge can bring ann
// into contact with another entry, so the scan restarts after every hit.
func (s *AnnotationSet) add(ann Annotation) {
	for {
		merged := false
		for i, cur := range s.anns {
			if !Mergeable(cur, ann) {
				continue
			}
			next, err := Merge(cur, ann)
			if err != nil {
				continue
			}
			s.anns = append(s.anns[:i], s.anns[i+1:]...)
			ann = next
			merged = true
			break
		}
		if !merged {
			break
		}
	}
	s.anns = append(s.anns, ann)
}

// Resolve repeatedly merges eligible pairs until no two stored annotations
// are mergeable. Each pass works against a snapshot of the set, and the pass
// count is bounded by the square of the set size; exceeding the bound fails
// with ErrResolution.
func (s *AnnotationSet) Resolve() error {
	bound := len(s.anns)*len(s.anns) + 1
	for pass := 0; pass < bound; pass++ {
		snapshot := make([]Annotation, len(s.anns))
		copy(snapshot, s.anns)

		merged := false
		for i := 0; i < len(snapshot) && !merged; i++ {
			for j := i + 1; j < len(snapshot); j++ {
				if !Mergeable(snapshot[i], snapshot[j]) {
					continue
				}
				next, err := Merge(snapshot[i], snapshot[j])
				if err != nil {
					continue
				}
				rest := append([]Annotation{}, snapshot[:i]...)
				rest = append(rest, snapshot[i+1:j]...)
				rest = append(rest, snapshot[j+1:]...)
				s.anns = append(rest, next)
				merged = true
				break
			}
		}
		if !merged {
			return nil
		}
	}
	return fmt.Errorf("%w: gave up after %d passes", ErrResolution, bound)
}

// Query returns every annotation whose closed range contains pos. The result
// is sorted by (start, end, name, value), so repeated calls on an unmodified
// set return identical slices.
func (s *AnnotationSet) Query(pos int) []Annotation {
	var out []Annotation
	for _, ann := range s.anns {
		if ann.Contains(pos) {
			out = append(out, ann)
		}
	}
	sortAnnotations(out)
	return out
}

// shiftInsert adjusts stored ranges for n atoms spliced in at pos. Ranges at
// or after pos move right; ranges spanning pos stretch over the insertion.
func (s *AnnotationSet) shiftInsert(pos, n int) {
	for i, ann := range s.anns {
		if ann.Start >= pos {
			ann.Start += n
			ann.End += n
		} else if ann.End > pos {
			ann.End += n
		}
		s.anns[i] = ann
	}
}

// shiftDelete adjusts stored ranges for n atoms removed at pos. Ranges past
// the hole move left, ranges overlapping it truncate, and ranges that lived
// entirely inside it are dropped.
func (s *AnnotationSet) shiftDelete(pos, n int) {
	kept := s.anns[:0]
	for _, ann := range s.anns {
		switch {
		case ann.End <= pos:
			// Entirely before the hole.
		case ann.Start >= pos+n:
			ann.Start -= n
			ann.End -= n
		case ann.Start >= pos && ann.End <= pos+n:
			continue
		default:
			if ann.Start > pos {
				ann.Start = pos
			}
			if ann.End >= pos+n {
				ann.End -= n
			} else {
				ann.End = pos
			}
		}
		kept = append(kept, ann)
	}
	s.anns = kept
}

func sortAnnotations(anns []Annotation) {
	sort.Slice(anns, func(i, j int) bool {
		a, b := anns[i], anns[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Value < b.Value
	})
}
