// Package paths maintains the static registry of property paths reachable on
// each wrapper type and analyzes which of them can be fetched in a batch.
package paths

import (
	"fmt"
	"reflect"
	"sync"
)

const registryLogPrefix = "paths:registry"

// Path is one batchable property on a wrapper type: the capability member it
// serves, the dotted target path on the wrapper (optionally carrying a
// structural prefix), and the wrapper's own declared static type for it.
type Path struct {
	Member       string
	Target       string
	DeclaredType reflect.Type
}

var (
	regMu   sync.RWMutex
	entries = map[reflect.Type]map[string]string{} // wrapper -> member -> path
	byName  = map[string]reflect.Type{}            // runtime type name -> wrapper
)

// Register associates a wrapper type with the property paths reachable on it.
// The wrapper's unqualified type name doubles as its runtime type name for
// handle lookup. Entries on a derived wrapper override same-named entries
// inherited from embedded bases when chains are merged. Re-registering a
// wrapper replaces its entry set.
func Register(wrapper any, paths map[string]string) {
	t := reflect.TypeOf(wrapper)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("%s - wrapper must be a struct type, got %v", registryLogPrefix, t))
	}

	copied := make(map[string]string, len(paths))
	for member, path := range paths {
		copied[member] = path
	}

	regMu.Lock()
	defer regMu.Unlock()
	entries[t] = copied
	byName[t.Name()] = t
}

// LookupType resolves a runtime type name to its registered wrapper type.
func LookupType(runtimeType string) (reflect.Type, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	t, ok := byName[runtimeType]
	return t, ok
}

// NameFor returns the runtime type name a wrapper type registers under.
func NameFor(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func entriesFor(t reflect.Type) map[string]string {
	regMu.RLock()
	defer regMu.RUnlock()
	return entries[t]
}

// mergedEntries walks the wrapper's embedding chain most-derived to most-base
// and merges registry entries, derived entries winning name collisions. Each
// surviving member records the declaring wrapper so its static type resolves
// against the type that actually declares it.
func mergedEntries(wrapper reflect.Type) map[string]declared {
	merged := map[string]declared{}
	queue := []reflect.Type{wrapper}
	seen := map[reflect.Type]bool{}

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct || seen[t] {
			continue
		}
		seen[t] = true

		for member, path := range entriesFor(t) {
			if _, exists := merged[member]; !exists {
				merged[member] = declared{path: path, by: t}
			}
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous {
				queue = append(queue, f.Type)
			}
		}
	}
	return merged
}

type declared struct {
	path string
	by   reflect.Type
}
