package coerce

import (
	"fmt"
	"reflect"
	"sync"
)

const enumLogPrefix = "coerce:enum"

type enumEntry struct {
	byName  map[string]reflect.Value
	byValue map[any]string
}

var enums sync.Map // reflect.Type -> *enumEntry

// RegisterEnum associates names with the values of an enumeration type so the
// coercion chain can parse the enumeration by name and hosts can encode it
// symmetrically. Registration replaces any previous entry for T.
func RegisterEnum[T any](names map[string]T) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() == reflect.Ptr {
		panic(fmt.Sprintf("%s - enum type must be a named value type", enumLogPrefix))
	}
	entry := &enumEntry{
		byName:  make(map[string]reflect.Value, len(names)),
		byValue: make(map[any]string, len(names)),
	}
	for name, v := range names {
		entry.byName[name] = reflect.ValueOf(v)
		entry.byValue[v] = name
	}
	enums.Store(t, entry)
}

// EnumName returns the registered name for an enumeration value.
func EnumName(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	e, ok := enums.Load(reflect.TypeOf(v))
	if !ok {
		return "", false
	}
	name, ok := e.(*enumEntry).byValue[v]
	return name, ok
}

// IsEnum reports whether t has a registered enumeration entry.
func IsEnum(t reflect.Type) bool {
	_, ok := enums.Load(t)
	return ok
}

func parseEnum(target reflect.Type, name string) (reflect.Value, bool) {
	e, ok := enums.Load(target)
	if !ok {
		return reflect.Value{}, false
	}
	v, ok := e.(*enumEntry).byName[name]
	return v, ok
}
