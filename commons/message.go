package commons

import (
	"github.com/google/uuid"
	"github.com/hexwave/wavelet/blip"
)

// Message represents the message sent over the wire.
type Message struct {
	Username string `json:"username"`

	// Text represents the body of the message. This is used for joining
	// messages, error replies, and the list of active users.
	Text string `json:"text"`

	// Type represents the message type.
	Type MessageType `json:"type"`

	// ID represents the client's UUID.
	ID uuid.UUID `json:"ID"`

	// BlipID addresses the blip the message concerns.
	BlipID uuid.UUID `json:"blipID,omitempty"`

	// Script carries an operation script for opScript messages.
	Script []Operation `json:"script,omitempty"`

	// Annotation carries the range of an annotate message.
	Annotation *AnnotationRecord `json:"annotation,omitempty"`

	// Snapshot represents a blip's full state. This should only be used
	// when necessary, due to the large size of documents.
	Snapshot *BlipSnapshot `json:"snapshot,omitempty"`
}

// MessageType represents the type of the message.
type MessageType string

const (
	JoinMessage     MessageType = "join"
	UsersMessage    MessageType = "users"
	OpScriptMessage MessageType = "opScript"
	AnnotateMessage MessageType = "annotate"
	BlipSyncMessage MessageType = "blipSync"
	BlipReqMessage  MessageType = "blipReq"
	ErrorMessage    MessageType = "error"
)

// AnnotationRecord mirrors a core annotation in wire form.
type AnnotationRecord struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ElementRecord pins an embedded element to its content position.
type ElementRecord struct {
	Pos     int          `json:"pos"`
	Element blip.Element `json:"element"`
}

// BlipSnapshot is the normalized, linear view of a blip: content read left
// to right plus the resolved annotation layer, suitable for serialization
// or display.
type BlipSnapshot struct {
	BlipID       uuid.UUID          `json:"blipID"`
	Creator      string             `json:"creator"`
	Contributors []string           `json:"contributors"`
	Content      string             `json:"content"`
	Annotations  []AnnotationRecord `json:"annotations,omitempty"`
	Elements     []ElementRecord    `json:"elements,omitempty"`
}

// Snapshot normalizes b and captures its full state.
func Snapshot(b *blip.Blip) *BlipSnapshot {
	doc := b.Document.Complete()

	var anns []AnnotationRecord
	for _, a := range doc.Annotations().All() {
		anns = append(anns, AnnotationRecord{Start: a.Start, End: a.End, Name: a.Name, Value: a.Value})
	}

	var elements []ElementRecord
	for pos := 0; pos < doc.Len(); pos++ {
		if el, ok := doc.ElementAt(pos); ok {
			elements = append(elements, ElementRecord{Pos: pos, Element: el})
		}
	}

	return &BlipSnapshot{
		BlipID:       b.ID,
		Creator:      b.Creator,
		Contributors: b.Contributors.All(),
		Content:      doc.Content(),
		Annotations:  anns,
		Elements:     elements,
	}
}

// Restore rebuilds a blip from a snapshot. Content is replayed as a single
// insert, elements are re-embedded at their recorded positions, and the
// stored annotations are re-applied; they are already resolved, so the
// replay reaches the same layer.
func Restore(s *BlipSnapshot) (*blip.Blip, error) {
	b := blip.NewBlip(s.Creator)
	b.ID = s.BlipID
	for _, id := range s.Contributors {
		if id != s.Creator {
			b.Contributors.Append(id)
		}
	}

	elements := make(map[int]blip.Element, len(s.Elements))
	for _, rec := range s.Elements {
		elements[rec.Pos] = rec.Element
	}

	for pos, r := range []rune(s.Content) {
		if el, ok := elements[pos]; ok {
			if err := b.Document.InsertElement(el, nil); err != nil {
				return nil, err
			}
			continue
		}
		if err := b.Document.InsertCharacters(string(r), nil); err != nil {
			return nil, err
		}
	}
	b.Document.Complete()

	for _, a := range s.Annotations {
		if err := b.Document.Annotations().Annotate(a.Start, a.End, a.Name, a.Value); err != nil {
			return nil, err
		}
	}
	return b, nil
}
