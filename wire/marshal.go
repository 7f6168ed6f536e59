package wire

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/hugr-lab/plancodec/internal/msgpack"
)

// DefaultMaxDepth bounds container nesting accepted by Unmarshal and
// FromJSON when the caller passes a non-positive limit.
const DefaultMaxDepth = 4096

// Marshal encodes a wire node in the binary form. Equal nodes produce equal
// bytes.
func Marshal(v any) ([]byte, error) {
	return msgpack.Encode(v)
}

// Unmarshal decodes the binary form into a wire node. Input nested deeper
// than maxDepth containers is rejected before decoding starts. Every failure
// matches ErrMalformedWireData.
func Unmarshal(data []byte, v any, maxDepth int) error {
	if len(data) == 0 {
		return malformed("empty input")
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if err := msgpack.CheckDepth(data, maxDepth); err != nil {
		if errors.Is(err, msgpack.ErrTooDeep) {
			return malformed("nesting depth exceeds %d", maxDepth)
		}
		return malformed("%v", err)
	}
	if err := msgpack.Decode(data, v); err != nil {
		return malformed("%v", err)
	}
	return nil
}

// ToJSON encodes a wire node in the text form.
func ToJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

// FromJSON decodes the text form into a wire node with the same checks as
// Unmarshal. Unknown keys are rejected.
func FromJSON(data []byte, v any, maxDepth int) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if err := checkJSON(data, maxDepth); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return malformed("%v", err)
	}
	return nil
}

// checkJSON scans data once without recursion. It rejects empty input,
// unbalanced brackets, trailing data after the top-level value and nesting
// deeper than maxDepth.
func checkJSON(data []byte, maxDepth int) error {
	depth := 0
	inString, escaped := false, false
	started, done := false, false

	for i, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				done = depth == 0
			}
			continue
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		if done {
			return malformed("trailing data at offset %d", i)
		}
		started = true
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > maxDepth {
				return malformed("nesting depth exceeds %d", maxDepth)
			}
		case '}', ']':
			depth--
			if depth < 0 {
				return malformed("unbalanced %q at offset %d", c, i)
			}
			done = depth == 0
		}
	}

	switch {
	case !started:
		return malformed("empty input")
	case inString || depth != 0:
		return malformed("truncated input")
	}
	return nil
}
