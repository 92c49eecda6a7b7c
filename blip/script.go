package blip

import "fmt"

// Op is one step of an operation script.
type Op interface {
	apply(d *DocumentBuffer) error
}

// Retain advances the cursor over count atoms.
type Retain struct {
	Count int
}

// InsertChars inserts a run of characters, uniformly annotated.
type InsertChars struct {
	Text        string
	Annotations map[string]string
}

// InsertElem inserts one embedded element.
type InsertElem struct {
	Element     Element
	Annotations map[string]string
}

// Delete removes count atoms ahead of the cursor.
type Delete struct {
	Count int
}

func (op Retain) apply(d *DocumentBuffer) error {
	return d.Retain(op.Count)
}

func (op InsertChars) apply(d *DocumentBuffer) error {
	return d.InsertCharacters(op.Text, op.Annotations)
}

func (op InsertElem) apply(d *DocumentBuffer) error {
	return d.InsertElement(op.Element, op.Annotations)
}

func (op Delete) apply(d *DocumentBuffer) error {
	return d.Delete(op.Count)
}

// ValidateScript checks a whole script against a buffer of length n without
// applying anything. Counts must be non-negative, and the retained plus
// deleted atoms must account for the entire pre-operation content.
func ValidateScript(ops []Op, n int) error {
	consumed := 0
	for _, op := range ops {
		switch o := op.(type) {
		case Retain:
			if o.Count < 0 {
				return fmt.Errorf("%w: retain count %d", ErrInvalidArgument, o.Count)
			}
			consumed += o.Count
		case Delete:
			if o.Count < 0 {
				return fmt.Errorf("%w: delete count %d", ErrInvalidArgument, o.Count)
			}
			consumed += o.Count
		case InsertChars, InsertElem:
			// Inserts consume nothing.
		default:
			return fmt.Errorf("%w: unknown operation %T", ErrMalformedOperation, op)
		}
	}
	if consumed != n {
		return fmt.Errorf("%w: script accounts for %d atoms, buffer holds %d", ErrMalformedOperation, consumed, n)
	}
	return nil
}

// ApplyScript validates ops against the buffer and then applies them in
// order, finishing with Complete. Validation happens before any mutation, so
// a rejected script leaves the buffer untouched.
func ApplyScript(d *DocumentBuffer, ops []Op) error {
	d.FixRotation()
	if err := ValidateScript(ops, d.Len()); err != nil {
		return err
	}
	for _, op := range ops {
		if err := op.apply(d); err != nil {
			return err
		}
	}
	d.Complete()
	return nil
}
