package host

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/videre-project/mtgosdk-go/pkg/coerce"
	"github.com/videre-project/mtgosdk-go/pkg/commsutil"
	"github.com/videre-project/mtgosdk-go/pkg/handle"
)

const encodeLogPrefix = "host:encode"

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	uuidType     = reflect.TypeOf(uuid.UUID{})
)

// encodeValue turns one member value into a tagged wire cell. Scalar-like
// values encode inline; structured values are registered in the table and
// travel as a handle instead.
func (t *Table) encodeValue(ctx context.Context, v reflect.Value) (handle.RawValue, error) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return handle.RawValue{TypeTag: "null"}, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return handle.RawValue{TypeTag: "null"}, nil
	}

	tag, rendered, ok := renderScalar(v)
	if !ok {
		// Structured result: expose it through a fresh handle.
		h, err := t.Register(ctx, v.Interface())
		if err != nil {
			return handle.RawValue{}, err
		}
		tag, rendered = "handle", h
	}

	data, err := commsutil.EncodePayload(rendered)
	if err != nil {
		return handle.RawValue{}, fmt.Errorf("%s - failed to encode %s value: %w", encodeLogPrefix, tag, err)
	}
	return handle.RawValue{Data: data, TypeTag: tag}, nil
}

// renderScalar maps a scalar-like value to its wire tag and JSON-able form.
func renderScalar(v reflect.Value) (string, any, bool) {
	rt := v.Type()

	if name, ok := coerce.EnumName(v.Interface()); ok {
		return "enum:" + rt.Name(), name, true
	}
	switch rt {
	case timeType:
		return "time", v.Interface().(time.Time).Format(time.RFC3339Nano), true
	case durationType:
		return "duration", v.Interface().(time.Duration).String(), true
	case uuidType:
		return "uuid", v.Interface().(uuid.UUID).String(), true
	}

	switch v.Kind() {
	case reflect.String:
		return "string", v.String(), true
	case reflect.Bool:
		return "bool", v.Bool(), true
	case reflect.Int8:
		return "int8", v.Int(), true
	case reflect.Int16:
		return "int16", v.Int(), true
	case reflect.Int32:
		return "int32", v.Int(), true
	case reflect.Int, reflect.Int64:
		return "int64", v.Int(), true
	case reflect.Uint8:
		return "uint8", v.Uint(), true
	case reflect.Uint16:
		return "uint16", v.Uint(), true
	case reflect.Uint32:
		return "uint32", v.Uint(), true
	case reflect.Uint, reflect.Uint64:
		return "uint64", v.Uint(), true
	case reflect.Float32:
		return "float32", v.Float(), true
	case reflect.Float64:
		return "float64", v.Float(), true
	case reflect.Slice, reflect.Array:
		return renderList(v)
	}
	return "", nil, false
}

func renderList(v reflect.Value) (string, any, bool) {
	elemTag, ok := tagForType(v.Type().Elem())
	if !ok {
		return "", nil, false
	}
	rendered := make([]any, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		_, cell, ok := renderScalar(v.Index(i))
		if !ok {
			return "", nil, false
		}
		rendered = append(rendered, cell)
	}
	return "[]" + elemTag, rendered, true
}

// tagForType is the static form of renderScalar's tag mapping, used so empty
// lists still carry an element tag.
func tagForType(rt reflect.Type) (string, bool) {
	if coerce.IsEnum(rt) {
		return "enum:" + rt.Name(), true
	}
	switch rt {
	case timeType:
		return "time", true
	case durationType:
		return "duration", true
	case uuidType:
		return "uuid", true
	}
	switch rt.Kind() {
	case reflect.String:
		return "string", true
	case reflect.Bool:
		return "bool", true
	case reflect.Int8:
		return "int8", true
	case reflect.Int16:
		return "int16", true
	case reflect.Int32:
		return "int32", true
	case reflect.Int, reflect.Int64:
		return "int64", true
	case reflect.Uint8:
		return "uint8", true
	case reflect.Uint16:
		return "uint16", true
	case reflect.Uint32:
		return "uint32", true
	case reflect.Uint, reflect.Uint64:
		return "uint64", true
	case reflect.Float32:
		return "float32", true
	case reflect.Float64:
		return "float64", true
	}
	return "", false
}
