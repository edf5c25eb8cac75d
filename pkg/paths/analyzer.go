package paths

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const analyzerLogPrefix = "paths:analyzer"

type analysisKey struct {
	wrapper    reflect.Type
	capability reflect.Type
}

type analysis struct {
	paths   []Path
	reverse map[string]string
}

// Concurrent population may duplicate the walk; LoadOrStore keeps one winner.
var analyses sync.Map // analysisKey -> *analysis

// Batchable intersects the capability's declared members with the wrapper's
// merged registry entries and keeps only members whose declared static type
// on the wrapper is scalar-like. Structured members are excluded even when
// the capability declares a scalar result for them: they would need a live
// proxy, which a batch cannot carry.
func Batchable(wrapper, capability reflect.Type) ([]Path, error) {
	a, err := analyze(wrapper, capability)
	if err != nil {
		return nil, err
	}
	out := make([]Path, len(a.paths))
	copy(out, a.paths)
	return out, nil
}

// Reverse returns the path -> capability-member map for decode-side lookups.
func Reverse(wrapper, capability reflect.Type) (map[string]string, error) {
	a, err := analyze(wrapper, capability)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(a.reverse))
	for k, v := range a.reverse {
		out[k] = v
	}
	return out, nil
}

func analyze(wrapper, capability reflect.Type) (*analysis, error) {
	if wrapper == nil || capability == nil {
		return nil, fmt.Errorf("%s - wrapper and capability types are required", analyzerLogPrefix)
	}
	for wrapper.Kind() == reflect.Ptr {
		wrapper = wrapper.Elem()
	}
	for capability.Kind() == reflect.Ptr {
		capability = capability.Elem()
	}
	if capability.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s - capability must be a struct type, got %v", analyzerLogPrefix, capability)
	}

	key := analysisKey{wrapper: wrapper, capability: capability}
	if cached, ok := analyses.Load(key); ok {
		return cached.(*analysis), nil
	}

	merged := mergedEntries(wrapper)
	members := capabilityMembers(capability)

	a := &analysis{reverse: map[string]string{}}
	for _, member := range members {
		decl, ok := merged[member]
		if !ok {
			continue
		}
		static, ok := resolveStatic(decl.by, decl.path, member)
		if !ok || !isScalarLike(static) {
			continue
		}
		a.paths = append(a.paths, Path{Member: member, Target: decl.path, DeclaredType: static})
		a.reverse[decl.path] = member
	}
	sort.Slice(a.paths, func(i, j int) bool { return a.paths[i].Member < a.paths[j].Member })

	cached, _ := analyses.LoadOrStore(key, a)
	return cached.(*analysis), nil
}

// capabilityMembers lists the exported func-typed fields of a capability
// struct, including those of embedded capability structs.
func capabilityMembers(capability reflect.Type) []string {
	var members []string
	seen := map[string]bool{}
	var walk func(t reflect.Type)
	walk = func(t reflect.Type) {
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous {
				walk(f.Type)
				continue
			}
			if f.IsExported() && f.Type.Kind() == reflect.Func && !seen[f.Name] {
				seen[f.Name] = true
				members = append(members, f.Name)
			}
		}
	}
	walk(capability)
	return members
}

// resolveStatic resolves a dotted path through the declaring wrapper's fields
// and returns the terminal field's static type. A path that does not resolve
// falls back to a same-named field directly on the declarer.
func resolveStatic(declarer reflect.Type, path, member string) (reflect.Type, bool) {
	if t, ok := resolveSegments(declarer, strings.Split(path, ".")); ok {
		return t, true
	}
	return resolveSegments(declarer, []string{member})
}

func resolveSegments(t reflect.Type, segments []string) (reflect.Type, bool) {
	cur := t
	for _, seg := range segments {
		for cur.Kind() == reflect.Ptr {
			cur = cur.Elem()
		}
		if cur.Kind() != reflect.Struct {
			return nil, false
		}
		f, ok := cur.FieldByName(seg)
		if !ok {
			return nil, false
		}
		cur = f.Type
	}
	return cur, true
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	uuidType     = reflect.TypeOf(uuid.UUID{})
)

// isScalarLike reports whether a declared static type can travel in a batch
// cell: fixed-width numbers, text, booleans, date/time, durations, UUIDs,
// enumerations, and flat lists of those. Anything structured is excluded.
func isScalarLike(t reflect.Type) bool {
	switch t {
	case timeType, durationType, uuidType:
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		elem := t.Elem()
		return elem.Kind() != reflect.Slice && isScalarLike(elem)
	}
	return false
}
