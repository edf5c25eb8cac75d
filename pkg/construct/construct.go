// Package construct provides the fast constructor: direct-construction
// closures compiled once per (type, argument-signature) pair and cached for
// the lifetime of the process.
package construct

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

const logPrefix = "construct:construct"

// builder produces an instance of the target type from pre-validated args.
type builder func(args []reflect.Value) (reflect.Value, error)

type ctorKey struct {
	typ reflect.Type
	sig string
}

type ctorEntry struct {
	once  sync.Once
	build builder
	err   error
}

var (
	ctors sync.Map // ctorKey -> *ctorEntry

	factoryMu sync.RWMutex
	factories = map[reflect.Type][]reflect.Value{}
)

// RegisterFactory registers a constructor function for the type it returns.
// fn must be a func whose first result is the constructed value; an optional
// second result may be an error. Registration is idempotent per function
// identity and safe for concurrent use.
func RegisterFactory(fn any) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func || t.NumOut() < 1 || t.NumOut() > 2 {
		panic(fmt.Sprintf("%s - factory must be func(...) (T) or func(...) (T, error), got %v", logPrefix, t))
	}
	if t.NumOut() == 2 && t.Out(1) != errorType {
		panic(fmt.Sprintf("%s - second factory result must be error, got %v", logPrefix, t.Out(1)))
	}
	target := t.Out(0)

	factoryMu.Lock()
	defer factoryMu.Unlock()
	for _, existing := range factories[target] {
		if existing.Pointer() == v.Pointer() {
			return
		}
	}
	factories[target] = append(factories[target], v)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// New constructs an instance of typ from args. The first call for a given
// (typ, argument-signature) pair performs the constructor lookup and compiles
// a direct-construction closure; later calls for the same pair reuse it.
//
// Lookup order: a registered factory whose parameters accept the args, then
// positional assignment onto the exported fields of a struct type. When typ
// is an interface (an abstract collection with no usable constructor) the
// result deliberately falls back to a generic []any holding the args; callers
// that need a concrete collection type must name one.
func New(typ reflect.Type, args ...any) (any, error) {
	if typ == nil {
		return nil, fmt.Errorf("%s - nil target type", logPrefix)
	}

	vals := make([]reflect.Value, len(args))
	sig := make([]string, len(args))
	for i, a := range args {
		vals[i] = reflect.ValueOf(a)
		if a == nil {
			sig[i] = "<nil>"
			continue
		}
		sig[i] = vals[i].Type().String()
	}

	key := ctorKey{typ: typ, sig: strings.Join(sig, ",")}
	e, _ := ctors.LoadOrStore(key, &ctorEntry{})
	entry := e.(*ctorEntry)
	entry.once.Do(func() {
		entry.build, entry.err = compile(typ, vals)
	})
	if entry.err != nil {
		return nil, entry.err
	}

	out, err := entry.build(vals)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// Make is the generic convenience over New.
func Make[T any](args ...any) (T, error) {
	var zero T
	out, err := New(reflect.TypeOf(zero), args...)
	if err != nil {
		return zero, err
	}
	v, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%s - constructed %T, want %T", logPrefix, out, zero)
	}
	return v, nil
}

// compile resolves a constructor for typ matching the arg signature and wraps
// it in a builder. Runs exactly once per cache key; must never call New.
func compile(typ reflect.Type, vals []reflect.Value) (builder, error) {
	if fn, ok := matchFactory(typ, vals); ok {
		return factoryBuilder(fn), nil
	}

	switch typ.Kind() {
	case reflect.Struct:
		return structBuilder(typ, vals)
	case reflect.Slice:
		return sliceBuilder(typ, vals)
	case reflect.Map:
		if len(vals) == 0 {
			return func([]reflect.Value) (reflect.Value, error) {
				return reflect.MakeMap(typ), nil
			}, nil
		}
	case reflect.Interface:
		// Abstract collection target: generic fallback, documented on New.
		return func(args []reflect.Value) (reflect.Value, error) {
			generic := make([]any, len(args))
			for i, a := range args {
				generic[i] = a.Interface()
			}
			return reflect.ValueOf(generic), nil
		}, nil
	case reflect.Ptr:
		inner, err := compile(typ.Elem(), vals)
		if err != nil {
			return nil, err
		}
		return func(args []reflect.Value) (reflect.Value, error) {
			v, err := inner(args)
			if err != nil {
				return reflect.Value{}, err
			}
			p := reflect.New(typ.Elem())
			p.Elem().Set(v)
			return p, nil
		}, nil
	}
	return nil, fmt.Errorf("%s - no usable constructor for %v with signature (%s)", logPrefix, typ, sigString(vals))
}

func matchFactory(typ reflect.Type, vals []reflect.Value) (reflect.Value, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	for _, fn := range factories[typ] {
		ft := fn.Type()
		if ft.IsVariadic() || ft.NumIn() != len(vals) {
			continue
		}
		ok := true
		for i := range vals {
			if !vals[i].IsValid() || !vals[i].Type().AssignableTo(ft.In(i)) {
				ok = false
				break
			}
		}
		if ok {
			return fn, true
		}
	}
	return reflect.Value{}, false
}

func factoryBuilder(fn reflect.Value) builder {
	returnsErr := fn.Type().NumOut() == 2
	return func(args []reflect.Value) (reflect.Value, error) {
		out := fn.Call(args)
		if returnsErr && !out[1].IsNil() {
			return reflect.Value{}, out[1].Interface().(error)
		}
		return out[0], nil
	}
}

// structBuilder assigns args positionally onto the exported fields of typ.
func structBuilder(typ reflect.Type, vals []reflect.Value) (builder, error) {
	var exported []int
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).IsExported() && !typ.Field(i).Anonymous {
			exported = append(exported, i)
		}
	}
	if len(vals) > len(exported) {
		return nil, fmt.Errorf("%s - %v has %d exported fields, got %d args", logPrefix, typ, len(exported), len(vals))
	}
	for i := range vals {
		ft := typ.Field(exported[i]).Type
		if !vals[i].IsValid() || !vals[i].Type().AssignableTo(ft) {
			return nil, fmt.Errorf("%s - arg %d (%s) not assignable to %v.%s", logPrefix, i, sigOf(vals[i]), typ, typ.Field(exported[i]).Name)
		}
	}
	indexes := exported[:len(vals)]
	return func(args []reflect.Value) (reflect.Value, error) {
		out := reflect.New(typ).Elem()
		for i, fi := range indexes {
			out.Field(fi).Set(args[i])
		}
		return out, nil
	}, nil
}

func sliceBuilder(typ reflect.Type, vals []reflect.Value) (builder, error) {
	elem := typ.Elem()
	for i := range vals {
		if !vals[i].IsValid() || !vals[i].Type().AssignableTo(elem) {
			return nil, fmt.Errorf("%s - arg %d (%s) not assignable to element type %v", logPrefix, i, sigOf(vals[i]), elem)
		}
	}
	return func(args []reflect.Value) (reflect.Value, error) {
		out := reflect.MakeSlice(typ, 0, len(args))
		return reflect.Append(out, args...), nil
	}, nil
}

func sigString(vals []reflect.Value) string {
	parts := make([]string, len(vals))
	for i := range vals {
		parts[i] = sigOf(vals[i])
	}
	return strings.Join(parts, ",")
}

func sigOf(v reflect.Value) string {
	if !v.IsValid() {
		return "<nil>"
	}
	return v.Type().String()
}
