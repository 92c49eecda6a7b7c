package commons

import (
	"fmt"

	"github.com/hexwave/wavelet/blip"
)

// OpType represents the kind of a wire operation.
type OpType string

const (
	OpRetain        OpType = "retain"
	OpInsertChars   OpType = "insertChars"
	OpInsertElement OpType = "insertElement"
	OpDelete        OpType = "delete"
)

// Operation is one retain/insert/delete record of an operation script as it
// travels over the wire.
type Operation struct {
	// Type represents the operation type.
	Type OpType `json:"type"`

	// Count is the retain or delete length.
	Count int `json:"count,omitempty"`

	// Value holds the characters of an insertChars operation.
	Value string `json:"value,omitempty"`

	// Element holds the embedded element of an insertElement operation.
	Element *blip.Element `json:"element,omitempty"`

	// Annotations tag an inserted span, name to value.
	Annotations map[string]string `json:"annotations,omitempty"`
}

// Op converts the wire record into a core operation.
func (o Operation) Op() (blip.Op, error) {
	switch o.Type {
	case OpRetain:
		return blip.Retain{Count: o.Count}, nil
	case OpInsertChars:
		return blip.InsertChars{Text: o.Value, Annotations: o.Annotations}, nil
	case OpInsertElement:
		if o.Element == nil {
			return nil, fmt.Errorf("insertElement operation without an element")
		}
		return blip.InsertElem{Element: *o.Element, Annotations: o.Annotations}, nil
	case OpDelete:
		return blip.Delete{Count: o.Count}, nil
	default:
		return nil, fmt.Errorf("unknown operation type: %s", o.Type)
	}
}

// ToOps converts a wire script into core operations.
func ToOps(script []Operation) ([]blip.Op, error) {
	ops := make([]blip.Op, len(script))
	for i, o := range script {
		op, err := o.Op()
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}
