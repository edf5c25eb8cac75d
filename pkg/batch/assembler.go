package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/videre-project/mtgosdk-go/pkg/coerce"
	"github.com/videre-project/mtgosdk-go/pkg/handle"
	"github.com/videre-project/mtgosdk-go/pkg/paths"
)

const assemblerLogPrefix = "batch:assembler"

// memberField is one exported func-typed field of a capability struct,
// addressed by its index chain from the root.
type memberField struct {
	name    string
	index   []int
	fnType  reflect.Type
	retType reflect.Type
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// memberFields walks a capability struct, including embedded capability
// structs, and collects its declared members. Every member must be a func
// returning (T, error).
func memberFields(root reflect.Type) ([]memberField, error) {
	var out []memberField
	seen := map[string]bool{}

	var walk func(t reflect.Type, prefix []int) error
	walk = func(t reflect.Type, prefix []int) error {
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return fmt.Errorf("%s - capability must be a struct type, got %v", assemblerLogPrefix, t)
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			index := append(append([]int{}, prefix...), i)
			if f.Anonymous {
				if f.Type.Kind() == reflect.Struct && f.Type.NumField() > 0 {
					if err := walk(f.Type, index); err != nil {
						return err
					}
				}
				continue
			}
			if !f.IsExported() || f.Type.Kind() != reflect.Func {
				continue
			}
			if seen[f.Name] {
				continue
			}
			ft := f.Type
			if ft.NumOut() != 2 || ft.Out(1) != errType {
				return fmt.Errorf("%s - member %s.%s must return (T, error)", assemblerLogPrefix, t.Name(), f.Name)
			}
			seen[f.Name] = true
			out = append(out, memberField{name: f.Name, index: index, fnType: ft, retType: ft.Out(0)})
		}
		return nil
	}
	if err := walk(root, nil); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s - capability %v declares no members", assemblerLogPrefix, root)
	}
	return out, nil
}

// AssembleAs builds a detached local proxy of capability type T from decoded
// member values. Every member read is a pure local lookup; no handle is held,
// so the result stays valid after the source collection is gone. Members with
// no decoded value (including absorbed decode anomalies) read as zero values.
func AssembleAs[T any](values map[string]any) (*T, error) {
	out := new(T)
	root := reflect.ValueOf(out).Elem()

	members, err := memberFields(root.Type())
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		ret := reflect.Zero(m.retType)
		if v, ok := values[m.name]; ok && v != nil {
			coerced, err := coerce.To(v, m.retType)
			if err != nil {
				return nil, fmt.Errorf("%s - member %s: %w", assemblerLogPrefix, m.name, err)
			}
			ret = coerced
		}
		results := []reflect.Value{ret, reflect.Zero(errType)}
		root.FieldByIndex(m.index).Set(reflect.MakeFunc(m.fnType, func([]reflect.Value) []reflect.Value {
			return results
		}))
	}
	return out, nil
}

// SerializeOpts configures SerializeAs. Nil or zero values use defaults.
type SerializeOpts struct {
	// MaxItems caps how many collection elements the host walks (0 = no cap).
	MaxItems int
	// PathPrefix is forwarded to the Orchestrator (see OrchestratorOpts).
	PathPrefix string
}

// SerializeAs materializes a remote collection into detached items of
// capability type T using exactly one transport round trip: analyze which of
// T's members are batchable on the collection's wrapper type, fetch them all
// at once, then decode and assemble per element. An unrecognized type tag
// nulls only its own cell; a malformed payload or a transport failure aborts
// the whole call.
func SerializeAs[T any](ctx context.Context, tc handle.TransportClient, coll *handle.Handle, opts *SerializeOpts) ([]*T, error) {
	if coll == nil {
		return nil, fmt.Errorf("%s - nil collection handle", assemblerLogPrefix)
	}
	wrapper, ok := paths.LookupType(coll.RuntimeType)
	if !ok {
		return nil, fmt.Errorf("%s - no wrapper registered for runtime type %q", assemblerLogPrefix, coll.RuntimeType)
	}
	capability := reflect.TypeOf((*T)(nil)).Elem()

	batchable, err := paths.Batchable(wrapper, capability)
	if err != nil {
		return nil, err
	}
	reverse, err := paths.Reverse(wrapper, capability)
	if err != nil {
		return nil, err
	}
	targets := make([]string, len(batchable))
	for i, p := range batchable {
		targets[i] = p.Target
	}

	var oOpts *OrchestratorOpts
	maxItems := 0
	if opts != nil {
		maxItems = opts.MaxItems
		if opts.PathPrefix != "" {
			oOpts = &OrchestratorOpts{PathPrefix: opts.PathPrefix}
		}
	}

	resp, err := NewOrchestrator(tc, oOpts).Fetch(ctx, coll, targets, maxItems)
	if err != nil {
		return nil, err
	}

	items := make([]*T, 0, len(resp.Items))
	for i, item := range resp.Items {
		values := make(map[string]any, len(item))
		for path, raw := range item {
			member, ok := reverse[path]
			if !ok {
				continue
			}
			v, err := Decode(raw)
			if err != nil {
				// A tag this decoder does not know reads as unavailable for
				// this cell only; corrupt payloads are real failures.
				if errors.Is(err, ErrUnknownTag) {
					slog.Debug(fmt.Sprintf("%s - item %d path %s: %v", assemblerLogPrefix, i, path, err))
					continue
				}
				return nil, fmt.Errorf("%s - item %d path %s: %w", assemblerLogPrefix, i, path, err)
			}
			values[member] = v
		}
		assembled, err := AssembleAs[T](values)
		if err != nil {
			return nil, err
		}
		items = append(items, assembled)
	}
	return items, nil
}
