package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hexwave/wavelet/blip"
	"github.com/hexwave/wavelet/commons"
)

// parseCommand compiles one edit command into a message body. Operation
// scripts must account for the whole buffer, so positional commands pad the
// script with retains on both sides of the edit using the current content
// length.
//
// Supported commands:
//
//	append TEXT               insert TEXT at the end of the blip
//	ins POS TEXT              insert TEXT at position POS
//	del POS N                 delete N characters starting at POS
//	elem POS TYPE             embed an element of TYPE at position POS
//	note START END NAME VAL   annotate the range [START, END]
func parseCommand(input string, length int) (*commons.Message, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "append":
		text := rest(input, 1)
		if text == "" {
			return nil, fmt.Errorf("usage: append TEXT")
		}
		return &commons.Message{Type: commons.OpScriptMessage, Script: []commons.Operation{
			{Type: commons.OpRetain, Count: length},
			{Type: commons.OpInsertChars, Value: text},
		}}, nil

	case "ins":
		if len(fields) < 3 {
			return nil, fmt.Errorf("usage: ins POS TEXT")
		}
		pos, err := parseCount(fields[1], length)
		if err != nil {
			return nil, err
		}
		text := rest(input, 2)
		return &commons.Message{Type: commons.OpScriptMessage, Script: []commons.Operation{
			{Type: commons.OpRetain, Count: pos},
			{Type: commons.OpInsertChars, Value: text},
			{Type: commons.OpRetain, Count: length - pos},
		}}, nil

	case "del":
		if len(fields) != 3 {
			return nil, fmt.Errorf("usage: del POS N")
		}
		pos, err := parseCount(fields[1], length)
		if err != nil {
			return nil, err
		}
		n, err := parseCount(fields[2], length-pos)
		if err != nil {
			return nil, err
		}
		return &commons.Message{Type: commons.OpScriptMessage, Script: []commons.Operation{
			{Type: commons.OpRetain, Count: pos},
			{Type: commons.OpDelete, Count: n},
			{Type: commons.OpRetain, Count: length - pos - n},
		}}, nil

	case "elem":
		if len(fields) != 3 {
			return nil, fmt.Errorf("usage: elem POS TYPE")
		}
		pos, err := parseCount(fields[1], length)
		if err != nil {
			return nil, err
		}
		return &commons.Message{Type: commons.OpScriptMessage, Script: []commons.Operation{
			{Type: commons.OpRetain, Count: pos},
			{Type: commons.OpInsertElement, Element: &blip.Element{Type: fields[2]}},
			{Type: commons.OpRetain, Count: length - pos},
		}}, nil

	case "note":
		if len(fields) != 5 {
			return nil, fmt.Errorf("usage: note START END NAME VALUE")
		}
		start, err := parseCount(fields[1], length)
		if err != nil {
			return nil, err
		}
		end, err := parseCount(fields[2], length)
		if err != nil {
			return nil, err
		}
		return &commons.Message{Type: commons.AnnotateMessage, Annotation: &commons.AnnotationRecord{
			Start: start,
			End:   end,
			Name:  fields[3],
			Value: fields[4],
		}}, nil

	default:
		return nil, fmt.Errorf("unknown command %q", fields[0])
	}
}

// parseCount parses a non-negative position or count bounded by max.
func parseCount(s string, max int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if n < 0 || n > max {
		return 0, fmt.Errorf("%d is out of range (0..%d)", n, max)
	}
	return n, nil
}

// rest returns the input from the nth whitespace-separated field onward.
func rest(input string, n int) string {
	fields := strings.Fields(input)
	if len(fields) <= n {
		return ""
	}
	return strings.Join(fields[n:], " ")
}
