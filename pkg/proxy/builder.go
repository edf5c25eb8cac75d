package proxy

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/videre-project/mtgosdk-go/pkg/batch"
	"github.com/videre-project/mtgosdk-go/pkg/coerce"
	"github.com/videre-project/mtgosdk-go/pkg/handle"
)

const builderLogPrefix = "proxy:builder"

// BindingError reports a capability member with no usable remote counterpart.
// It is raised on first access of the member, never at bind time.
type BindingError struct {
	Member      string
	RuntimeType string
	Err         error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("member %s has no remote counterpart on %s: %v", e.Member, e.RuntimeType, e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

type bindingKey struct {
	runtimeType string
	capability  reflect.Type
}

// binding is the compiled dispatch table for one (runtime type, capability)
// pair. Generated exactly once and shared by every proxy bound with that key.
type binding struct {
	once    sync.Once
	members []memberSpec
	objects [][]int
	err     error
}

type memberSpec struct {
	name     string
	index    []int
	fnType   reflect.Type
	retType  reflect.Type
	takesCtx bool
}

var (
	bindings sync.Map // bindingKey -> *binding

	errType = reflect.TypeOf((*error)(nil)).Elem()
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// Bind binds a single capability struct T to the object behind h. Member
// validation against the remote object is lazy: an unsatisfiable member fails
// on its first access, so rarely-used members never force eager validation.
func Bind[T any](tc handle.TransportClient, h *handle.Handle) (*T, error) {
	out := new(T)
	if err := BindAs(tc, h, out); err != nil {
		return nil, err
	}
	return out, nil
}

// BindAs binds out, a pointer to a capability struct (possibly composed of
// several embedded capability structs), to the object behind h. The dispatch
// table for (h's runtime type, out's type) is compiled on first use and
// cached; concurrent first-use of the same key compiles exactly once and all
// callers observe the identical table.
func BindAs(tc handle.TransportClient, h *handle.Handle, out any) error {
	if tc == nil {
		return fmt.Errorf("%s - nil transport client", builderLogPrefix)
	}
	if h == nil {
		return fmt.Errorf("%s - nil handle", builderLogPrefix)
	}
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%s - bind target must be a non-nil pointer to a capability struct, got %T", builderLogPrefix, out)
	}
	root := v.Elem()

	key := bindingKey{runtimeType: h.RuntimeType, capability: root.Type()}
	e, _ := bindings.LoadOrStore(key, &binding{})
	b := e.(*binding)
	b.once.Do(func() {
		b.members, b.objects, b.err = compileBinding(root.Type())
	})
	if b.err != nil {
		return b.err
	}

	marker := reflect.ValueOf(Object{h: h})
	for _, index := range b.objects {
		root.FieldByIndex(index).Set(marker)
	}
	for _, m := range b.members {
		root.FieldByIndex(m.index).Set(forwarder(m, tc, h))
	}
	return nil
}

// compileBinding validates the capability struct shape and produces its
// member table. Runs exactly once per key and never re-enters the cache.
func compileBinding(capability reflect.Type) ([]memberSpec, [][]int, error) {
	var members []memberSpec
	var objects [][]int
	seen := map[string]bool{}

	var walk func(t reflect.Type, prefix []int) error
	walk = func(t reflect.Type, prefix []int) error {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			index := append(append([]int{}, prefix...), i)
			if f.Type == objectType {
				objects = append(objects, index)
				continue
			}
			if f.Anonymous {
				if f.Type.Kind() != reflect.Struct {
					return fmt.Errorf("%s - embedded capability %s.%s must be a struct", builderLogPrefix, t.Name(), f.Name)
				}
				if err := walk(f.Type, index); err != nil {
					return err
				}
				continue
			}
			if !f.IsExported() || f.Type.Kind() != reflect.Func {
				continue
			}
			if seen[f.Name] {
				continue
			}
			spec, err := specFor(t, f)
			if err != nil {
				return err
			}
			spec.index = index
			seen[f.Name] = true
			members = append(members, spec)
		}
		return nil
	}
	if err := walk(capability, nil); err != nil {
		return nil, nil, err
	}
	if len(members) == 0 {
		return nil, nil, fmt.Errorf("%s - capability %v declares no members", builderLogPrefix, capability)
	}
	if len(objects) == 0 {
		return nil, nil, fmt.Errorf("%s - capability %v must embed proxy.Object", builderLogPrefix, capability)
	}
	return members, objects, nil
}

func specFor(owner reflect.Type, f reflect.StructField) (memberSpec, error) {
	ft := f.Type
	if ft.NumOut() != 2 || ft.Out(1) != errType {
		return memberSpec{}, fmt.Errorf("%s - member %s.%s must return (T, error)", builderLogPrefix, owner.Name(), f.Name)
	}
	if ft.IsVariadic() {
		return memberSpec{}, fmt.Errorf("%s - member %s.%s must not be variadic", builderLogPrefix, owner.Name(), f.Name)
	}
	spec := memberSpec{name: f.Name, fnType: ft, retType: ft.Out(0)}
	if ft.NumIn() > 0 && ft.In(0) == ctxType {
		spec.takesCtx = true
	}
	return spec, nil
}

// forwarder compiles the live closure for one member: invoke the matching
// remote member, decode the tagged result, coerce it to the declared type.
func forwarder(m memberSpec, tc handle.TransportClient, h *handle.Handle) reflect.Value {
	return reflect.MakeFunc(m.fnType, func(args []reflect.Value) []reflect.Value {
		ctx := context.Background()
		in := args
		if m.takesCtx {
			ctx = args[0].Interface().(context.Context)
			in = args[1:]
		}
		callArgs := make([]any, len(in))
		for i := range in {
			callArgs[i] = in[i].Interface()
		}

		raw, err := tc.Invoke(ctx, h, m.name, callArgs)
		if err != nil {
			return fail(m, classify(err, m.name, h))
		}
		val, err := batch.Decode(raw)
		if err != nil {
			return fail(m, fmt.Errorf("%s - member %s on %s: %w", builderLogPrefix, m.name, h, err))
		}
		ret, err := coerce.To(val, m.retType)
		if err != nil {
			return fail(m, err)
		}
		return []reflect.Value{ret, reflect.Zero(errType)}
	})
}

// classify maps a remote member-not-found into the binding error taxonomy;
// everything else passes through unchanged.
func classify(err error, member string, h *handle.Handle) error {
	var remote *handle.RemoteError
	if errors.As(err, &remote) && remote.Code == handle.CodeMemberNotFound {
		return &BindingError{Member: member, RuntimeType: h.RuntimeType, Err: err}
	}
	return err
}

func fail(m memberSpec, err error) []reflect.Value {
	ev := reflect.New(errType).Elem()
	ev.Set(reflect.ValueOf(err))
	return []reflect.Value{reflect.Zero(m.retType), ev}
}
