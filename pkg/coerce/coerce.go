// Package coerce converts loosely-typed values from the inspected process
// into requested static types via a layered, all-or-nothing fallback chain.
package coerce

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"

	"github.com/videre-project/mtgosdk-go/pkg/construct"
)

const logPrefix = "coerce:coerce"

// Error reports an exhausted coercion chain. It always carries both type
// identifiers so mismatches are diagnosable from the message alone.
type Error struct {
	SourceType string
	TargetType string
	Reason     string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot coerce %s to %s: %s", e.SourceType, e.TargetType, e.Reason)
	}
	return fmt.Sprintf("cannot coerce %s to %s", e.SourceType, e.TargetType)
}

// As converts value to T through the coercion chain. The conversion either
// fully succeeds or fails with a *Error; it never partially succeeds, and
// identical inputs always produce equal results or equal errors.
func As[T any](value any) (T, error) {
	var zero T
	out, err := To(value, reflect.TypeOf(&zero).Elem())
	if err != nil {
		return zero, err
	}
	return out.Interface().(T), nil
}

// Slice maps a loosely-typed sequence element-wise through the coercion
// chain. All elements convert or none do.
func Slice[T any](values []any) ([]T, error) {
	out := make([]T, len(values))
	for i, v := range values {
		converted, err := As[T](v)
		if err != nil {
			return nil, fmt.Errorf("%s - element %d: %w", logPrefix, i, err)
		}
		out[i] = converted
	}
	return out, nil
}

// To is the reflect-typed form of As. Attempts, in order: direct assignment,
// implicit numeric conversion, element-wise slice conversion, string
// round-trip (TextUnmarshaler, registered enumeration names, strconv), and
// finally construction of the target from the value as a single constructor
// argument. Matching on type names alone is never accepted: two distinct
// types sharing a name fail with an explicit error rather than aliasing.
func To(value any, target reflect.Type) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, &Error{SourceType: typeName(value), TargetType: "<nil>", Reason: "nil target type"}
	}

	if value == nil {
		return reflect.Zero(target), nil
	}
	src := reflect.ValueOf(value)

	// Step 1: direct assignment (also satisfies interface targets).
	if src.Type().AssignableTo(target) {
		return src, nil
	}

	// Step 2: implicit numeric conversion.
	if isNumericKind(src.Kind()) && isNumericKind(target.Kind()) {
		return src.Convert(target), nil
	}

	// Element-wise mapping for sequence targets.
	if src.Kind() == reflect.Slice && target.Kind() == reflect.Slice {
		return sliceTo(src, target)
	}

	// Step 3: string round-trip.
	if out, ok := viaString(src, target); ok {
		return out, nil
	}

	// Step 4: construct target from value as a single handle-like argument.
	if out, err := construct.New(target, value); err == nil {
		v := reflect.ValueOf(out)
		if v.Type().AssignableTo(target) {
			return v, nil
		}
	}

	// Same name, different identity: a real mismatch, never an alias.
	if src.Type().String() == target.String() {
		return reflect.Value{}, &Error{
			SourceType: src.Type().String(),
			TargetType: target.String(),
			Reason:     "types share a name but have distinct identities",
		}
	}

	return reflect.Value{}, &Error{SourceType: src.Type().String(), TargetType: target.String()}
}

func sliceTo(src reflect.Value, target reflect.Type) (reflect.Value, error) {
	out := reflect.MakeSlice(target, src.Len(), src.Len())
	for i := 0; i < src.Len(); i++ {
		elem := src.Index(i)
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		var raw any
		if elem.IsValid() {
			raw = elem.Interface()
		}
		converted, err := To(raw, target.Elem())
		if err != nil {
			return reflect.Value{}, &Error{
				SourceType: src.Type().String(),
				TargetType: target.String(),
				Reason:     fmt.Sprintf("element %d: %v", i, err),
			}
		}
		out.Index(i).Set(converted)
	}
	return out, nil
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// viaString renders the source and re-parses it as the target: enumeration
// names first, then the target's own parse capability, then strconv.
func viaString(src reflect.Value, target reflect.Type) (reflect.Value, bool) {
	s := fmt.Sprint(src.Interface())

	if out, ok := parseEnum(target, s); ok {
		return out, true
	}

	if reflect.PtrTo(target).Implements(textUnmarshalerType) {
		p := reflect.New(target)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err == nil {
			return p.Elem(), true
		}
		return reflect.Value{}, false
	}

	switch target.Kind() {
	case reflect.String:
		if src.Kind() == reflect.String {
			// Named string type to plain string (or the reverse).
			return src.Convert(target), true
		}
		return reflect.ValueOf(s).Convert(target), true
	case reflect.Bool:
		if b, err := strconv.ParseBool(s); err == nil {
			return reflect.ValueOf(b).Convert(target), true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && !reflect.Zero(target).OverflowInt(n) {
			return reflect.ValueOf(n).Convert(target), true
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, err := strconv.ParseUint(s, 10, 64); err == nil && !reflect.Zero(target).OverflowUint(n) {
			return reflect.ValueOf(n).Convert(target), true
		}
	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return reflect.ValueOf(f).Convert(target), true
		}
	}
	return reflect.Value{}, false
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
