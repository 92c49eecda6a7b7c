package blip

import (
	"fmt"

	"github.com/google/uuid"
)

// Contributors is an append-only ordered list of identities. The type has no
// removal or reordering surface at all: once appended, an identity stays,
// and the order never changes.
type Contributors struct {
	ids []string
}

// Append adds an identity to the end of the list.
func (c *Contributors) Append(id string) {
	c.ids = append(c.ids, id)
}

// Len returns the number of contributors.
func (c *Contributors) Len() int {
	return len(c.ids)
}

// All returns a copy of the contributor list in append order.
func (c *Contributors) All() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Contains reports whether id has been appended.
func (c *Contributors) Contains(id string) bool {
	for _, cur := range c.ids {
		if cur == id {
			return true
		}
	}
	return false
}

// Blip is one atomic collaboratively-edited content unit: a creator, the
// ordered list of identities that have touched it, and a document buffer.
type Blip struct {
	ID           uuid.UUID
	Creator      string
	Contributors *Contributors
	Document     *DocumentBuffer
}

// NewBlip creates an empty blip. The creator is pre-inserted as the first
// contributor.
func NewBlip(creator string) *Blip {
	contributors := &Contributors{}
	contributors.Append(creator)
	return &Blip{
		ID:           uuid.New(),
		Creator:      creator,
		Contributors: contributors,
		Document:     NewDocumentBuffer(),
	}
}

// Annotate attaches a named, valued annotation to a position range of the
// blip's content, failing with ErrOutOfRange when the range does not fit the
// current content.
func (b *Blip) Annotate(start, end int, name, value string) error {
	ann, err := NewAnnotation(start, end, name, value)
	if err != nil {
		return err
	}
	if ann.End > b.Document.Len() {
		return fmt.Errorf("%w: annotation %s on content of length %d", ErrOutOfRange, ann, b.Document.Len())
	}
	return b.Document.Annotations().Annotate(start, end, name, value)
}
