package blip

import "fmt"

// elementPlaceholder stands in for an embedded element when the buffer is
// rendered as text (U+FFFC, the object replacement character).
const elementPlaceholder = '￼'

// Element is an opaque non-text content unit embedded in a document, such as
// a line marker or a gadget.
type Element struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// atom is one content unit: either a single rune or an embedded element.
type atom struct {
	r  rune
	el *Element
}

// DocumentBuffer holds a blip's ordered content and its annotation layer and
// interprets retain/insert/delete operations against a single logical cursor.
//
// The cursor starts at the buffer's natural head. Retain advances it, insert
// splices new content at it, and delete consumes content ahead of it. An
// insert issued before any retain lands at the tail of the buffer, which is
// where an unrotated buffer grows. FixRotation returns the cursor home so
// the content reads left to right again.
//
// A DocumentBuffer is single-writer: callers must serialize operations.
type DocumentBuffer struct {
	atoms  []atom
	anns   *AnnotationSet
	cursor int
}

// NewDocumentBuffer returns an empty buffer with its cursor at home.
func NewDocumentBuffer() *DocumentBuffer {
	return &DocumentBuffer{anns: NewAnnotationSet()}
}

// Len returns the number of content atoms in the buffer.
func (d *DocumentBuffer) Len() int {
	return len(d.atoms)
}

// Cursor returns how far the logical cursor has advanced from the head.
func (d *DocumentBuffer) Cursor() int {
	return d.cursor
}

// Annotations exposes the buffer's annotation layer.
func (d *DocumentBuffer) Annotations() *AnnotationSet {
	return d.anns
}

// Content renders the buffer in its true left-to-right order. Embedded
// elements render as the object replacement character.
func (d *DocumentBuffer) Content() string {
	out := make([]rune, len(d.atoms))
	for i, a := range d.atoms {
		if a.el != nil {
			out[i] = elementPlaceholder
		} else {
			out[i] = a.r
		}
	}
	return string(out)
}

// Elements returns the embedded elements in buffer order along with their
// positions.
func (d *DocumentBuffer) Elements() map[int]Element {
	out := make(map[int]Element)
	for i, a := range d.atoms {
		if a.el != nil {
			out[i] = *a.el
		}
	}
	return out
}

// ElementAt returns the element at pos, if pos holds one.
func (d *DocumentBuffer) ElementAt(pos int) (Element, bool) {
	if pos < 0 || pos >= len(d.atoms) || d.atoms[pos].el == nil {
		return Element{}, false
	}
	return *d.atoms[pos].el, true
}

// QueryAnnotations returns the annotations covering pos, failing with
// ErrOutOfRange when pos falls outside the buffer.
func (d *DocumentBuffer) QueryAnnotations(pos int) ([]Annotation, error) {
	if pos < 0 || pos > len(d.atoms) {
		return nil, fmt.Errorf("%w: position %d in buffer of length %d", ErrOutOfRange, pos, len(d.atoms))
	}
	return d.anns.Query(pos), nil
}

// Retain advances the logical cursor by n without touching content.
func (d *DocumentBuffer) Retain(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: retain count %d", ErrInvalidArgument, n)
	}
	if d.cursor+n > len(d.atoms) {
		return fmt.Errorf("%w: retain %d with %d atoms ahead of cursor", ErrOutOfRange, n, len(d.atoms)-d.cursor)
	}
	d.cursor += n
	return nil
}

// InsertCharacters splices the runes of s in at the cursor and tags the
// inserted span uniformly with annotations. The cursor advances past the
// new content.
func (d *DocumentBuffer) InsertCharacters(s string, annotations map[string]string) error {
	runes := []rune(s)
	atoms := make([]atom, len(runes))
	for i, r := range runes {
		atoms[i] = atom{r: r}
	}
	return d.splice(atoms, annotations)
}

// InsertElement splices a single embedded element in at the cursor.
func (d *DocumentBuffer) InsertElement(el Element, annotations map[string]string) error {
	e := el
	return d.splice([]atom{{el: &e}}, annotations)
}

func (d *DocumentBuffer) splice(atoms []atom, annotations map[string]string) error {
	if len(atoms) == 0 {
		return nil
	}
	pos := d.cursor
	if d.cursor == 0 {
		// The buffer has not been rotated, so new content grows the tail.
		pos = len(d.atoms)
		d.atoms = append(d.atoms, atoms...)
	} else {
		tail := append([]atom{}, d.atoms[pos:]...)
		d.atoms = append(d.atoms[:pos], atoms...)
		d.atoms = append(d.atoms, tail...)
		d.anns.shiftInsert(pos, len(atoms))
		d.cursor += len(atoms)
	}
	for name, value := range annotations {
		if err := d.anns.Annotate(pos, pos+len(atoms), name, value); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the next n atoms ahead of the cursor and truncates the
// corresponding annotation ranges. A count larger than the remaining content
// fails with ErrOutOfRange and leaves the buffer unchanged.
func (d *DocumentBuffer) Delete(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: delete count %d", ErrInvalidArgument, n)
	}
	if d.cursor+n > len(d.atoms) {
		return fmt.Errorf("%w: delete %d with %d atoms ahead of cursor", ErrOutOfRange, n, len(d.atoms)-d.cursor)
	}
	if n == 0 {
		return nil
	}
	d.atoms = append(d.atoms[:d.cursor], d.atoms[d.cursor+n:]...)
	d.anns.shiftDelete(d.cursor, n)
	return nil
}

// FixRotation returns the cursor to the buffer's head. Calling it twice in a
// row is a no-op the second time.
func (d *DocumentBuffer) FixRotation() {
	d.cursor = 0
}

// Complete normalizes the buffer and returns it for reading.
func (d *DocumentBuffer) Complete() *DocumentBuffer {
	d.FixRotation()
	return d
}
