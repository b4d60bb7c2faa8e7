// Package jsonarray moves top-level JSON arrays through serializers that only
// accept a root object by wrapping them in a single-field envelope:
//
//	{"items": [...]}
//
// The field name is part of the wire contract and never changes between
// encode and decode.
package jsonarray

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// FieldName is the envelope key holding the array.
const FieldName = "items"

const prettyIndent = "    "

// ErrMalformedInput reports data that is not an envelope object.
var ErrMalformedInput = errors.New("jsonarray: malformed input")

type envelope[T any] struct {
	Items []T `json:"items"`
}

// Decode parses an envelope and returns its items in source order.
// A missing items field or non-object input fails with ErrMalformedInput.
func Decode[T any](data string) ([]T, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	raw, ok := fields[FieldName]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q field", ErrMalformedInput, FieldName)
	}

	var items []T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrMalformedInput, FieldName, err)
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// DecodeArray decodes a bare JSON array such as one returned by a server the
// caller does not control.
func DecodeArray[T any](raw string) ([]T, error) {
	return Decode[T](WrapArray(raw))
}

// Encode serializes items inside an envelope. A nil slice encodes as an empty
// array. pretty only changes whitespace.
func Encode[T any](items []T, pretty bool) (string, error) {
	if items == nil {
		items = []T{}
	}
	env := envelope[T]{Items: items}

	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(env, "", prettyIndent)
	} else {
		out, err = json.Marshal(env)
	}
	if err != nil {
		return "", fmt.Errorf("jsonarray: encode: %w", err)
	}
	return string(out), nil
}

// WrapArray turns a bare array literal into envelope text. It does not
// validate raw; Decode reports malformed input.
func WrapArray(raw string) string {
	return `{"` + FieldName + `":` + raw + `}`
}
