// Package msgpack provides strict MessagePack encoding and decoding for wire
// messages and codec payloads.
package msgpack

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// ErrTooDeep is returned by CheckDepth when containers nest beyond the limit.
var ErrTooDeep = errors.New("nesting depth exceeds limit")

// Encode serializes a Go value into MessagePack format.
// Keys of map[string]string, map[string]bool and map[string]any are sorted.
// Other map types encode in iteration order, so deterministic messages must
// use structs or sorted slices instead.
//
// Example:
//
//	ref := TableRef{Schema: "main", Table: "users"}
//	data, err := msgpack.Encode(ref)
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes MessagePack data into a Go value.
// The v parameter should be a pointer to the target structure.
//
// Decoding is strict: unknown struct fields and trailing bytes after the
// first value are errors.
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty MessagePack data")
	}

	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.DisallowUnknownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}
	if r.Len() != 0 {
		return fmt.Errorf("failed to decode MessagePack: %d trailing bytes", r.Len())
	}

	return nil
}

// CheckDepth scans the first value in data and fails with ErrTooDeep if maps
// and arrays nest more than maxDepth levels. The scan is iterative, so it is
// safe to run on hostile input before handing it to a recursive decoder.
func CheckDepth(data []byte, maxDepth int) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))

	// remaining values to read in each open container
	var stack []int
	started := false
	for {
		for len(stack) > 0 && stack[len(stack)-1] == 0 {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			stack[len(stack)-1]--
		} else if started {
			return nil
		}
		started = true

		c, err := dec.PeekCode()
		if err != nil {
			return fmt.Errorf("failed to scan MessagePack: %w", err)
		}

		var n int
		switch {
		case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
			n, err = dec.DecodeMapLen()
			n *= 2
		case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
			n, err = dec.DecodeArrayLen()
		default:
			if err := dec.Skip(); err != nil {
				return fmt.Errorf("failed to scan MessagePack: %w", err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to scan MessagePack: %w", err)
		}
		if len(stack) >= maxDepth {
			return fmt.Errorf("%w (%d)", ErrTooDeep, maxDepth)
		}
		if n < 0 {
			n = 0
		}
		stack = append(stack, n)
	}
}
