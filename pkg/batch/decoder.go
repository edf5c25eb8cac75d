// Package batch turns N identical-shaped property reads across a remote
// collection into exactly one round trip, then decodes and assembles the
// response into detached, locally-owned items.
package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videre-project/mtgosdk-go/pkg/handle"
)

const decoderLogPrefix = "batch:decoder"

// ErrUnknownTag marks a type tag this decoder does not recognize. Batch
// assembly absorbs it as "value unavailable" for the affected cell only;
// other callers may surface it.
var ErrUnknownTag = errors.New("unknown type tag")

// Decode converts one raw cell into a locally typed value. Null cells decode
// to nil; empty lists stay empty rather than nil.
func Decode(raw handle.RawValue) (any, error) {
	return decodeTag(raw.TypeTag, raw.Data)
}

func decodeTag(tag string, data []byte) (any, error) {
	if tag == "" || tag == "null" {
		return nil, nil
	}
	if elem, ok := strings.CutPrefix(tag, "[]"); ok {
		return decodeList(elem, data)
	}
	if _, ok := strings.CutPrefix(tag, "enum:"); ok {
		// Enumerations travel by name; coercion maps the name onto the
		// caller's enumeration type.
		return decodeJSON[string](tag, data)
	}

	switch tag {
	case "string":
		return decodeJSON[string](tag, data)
	case "bool":
		return decodeJSON[bool](tag, data)
	case "int8":
		return decodeJSON[int8](tag, data)
	case "int16":
		return decodeJSON[int16](tag, data)
	case "int32":
		return decodeJSON[int32](tag, data)
	case "int64":
		return decodeJSON[int64](tag, data)
	case "uint8":
		return decodeJSON[uint8](tag, data)
	case "uint16":
		return decodeJSON[uint16](tag, data)
	case "uint32":
		return decodeJSON[uint32](tag, data)
	case "uint64":
		return decodeJSON[uint64](tag, data)
	case "float32":
		return decodeJSON[float32](tag, data)
	case "float64":
		return decodeJSON[float64](tag, data)
	case "time":
		s, err := decodeJSON[string](tag, data)
		if err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("%s - bad time value %q: %w", decoderLogPrefix, s, err)
		}
		return t, nil
	case "duration":
		s, err := decodeJSON[string](tag, data)
		if err != nil {
			return nil, err
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("%s - bad duration value %q: %w", decoderLogPrefix, s, err)
		}
		return d, nil
	case "uuid":
		s, err := decodeJSON[string](tag, data)
		if err != nil {
			return nil, err
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%s - bad uuid value %q: %w", decoderLogPrefix, s, err)
		}
		return id, nil
	case "handle":
		h, err := decodeJSON[handle.Handle](tag, data)
		if err != nil {
			return nil, err
		}
		return &h, nil
	}
	return nil, fmt.Errorf("%s - tag %q: %w", decoderLogPrefix, tag, ErrUnknownTag)
}

func decodeList(elemTag string, data []byte) (any, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s - bad list payload for []%s: %w", decoderLogPrefix, elemTag, err)
	}
	out := make([]any, 0, len(raw))
	for i, cell := range raw {
		v, err := decodeTag(elemTag, cell)
		if err != nil {
			return nil, fmt.Errorf("%s - list element %d: %w", decoderLogPrefix, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeJSON[T any](tag string, data []byte) (T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%s - bad payload for tag %q: %w", decoderLogPrefix, tag, err)
	}
	return out, nil
}
