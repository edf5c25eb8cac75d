// Package host is the in-process counterpart of the binding layer: it keeps
// a table of live objects exposed for inspection and answers query, invoke
// and fetchBatch requests against them.
package host

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/videre-project/mtgosdk-go/pkg/events"
	"github.com/videre-project/mtgosdk-go/pkg/handle"
	"github.com/videre-project/mtgosdk-go/pkg/paths"
)

const tableLogPrefix = "host:table"

type entry struct {
	value reflect.Value
	h     handle.Handle
}

// Table maps handle IDs to live objects in this process. Handles are minted
// here and released by whatever owns the object's lifecycle.
type Table struct {
	objects   sync.Map // id -> *entry
	publisher events.EventPublisher
}

// NewTable creates a Table. Pass nil to publish no lifecycle events.
func NewTable(publisher events.EventPublisher) *Table {
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}
	return &Table{publisher: publisher}
}

// Register exposes a live object and returns its handle. Slices register as
// collections of their element type.
func (t *Table) Register(ctx context.Context, v any) (*handle.Handle, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("%s - cannot register nil", tableLogPrefix)
	}

	rt := rv.Type()
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	isCollection := rt.Kind() == reflect.Slice || rt.Kind() == reflect.Array
	if isCollection {
		rt = rt.Elem()
		for rt.Kind() == reflect.Ptr {
			rt = rt.Elem()
		}
	}

	h := handle.Handle{
		ID:           uuid.NewString(),
		RuntimeType:  paths.NameFor(rt),
		IsCollection: isCollection,
	}
	t.objects.Store(h.ID, &entry{value: rv, h: h})
	t.publish(ctx, events.ActionRegistered, &h)
	return &h, nil
}

// Release removes an object from the table. Releasing an unknown ID is a
// no-op.
func (t *Table) Release(ctx context.Context, id string) {
	e, loaded := t.objects.LoadAndDelete(id)
	if !loaded {
		return
	}
	t.publish(ctx, events.ActionReleased, &e.(*entry).h)
}

func (t *Table) publish(ctx context.Context, action string, h *handle.Handle) {
	// Publish failures never affect table state.
	_ = t.publisher.PublishObject(ctx, &events.ObjectEvent{
		Action:      action,
		HandleID:    h.ID,
		RuntimeType: h.RuntimeType,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (t *Table) lookup(id string) (*entry, bool) {
	e, ok := t.objects.Load(id)
	if !ok {
		return nil, false
	}
	return e.(*entry), true
}

// find scans the table for an object matching the query: runtime type first,
// then an optional match on the value of its Name member.
func (t *Table) find(q handle.Query) (*handle.Handle, bool) {
	var found *handle.Handle
	t.objects.Range(func(_, v any) bool {
		e := v.(*entry)
		if e.h.RuntimeType != q.Type {
			return true
		}
		if q.Name != "" {
			name, ok := resolvePath(e.value, "Name")
			if !ok || fmt.Sprint(name.Interface()) != q.Name {
				return true
			}
		}
		found = &e.h
		return false
	})
	return found, found != nil
}

// resolvePath walks a dotted member path through struct fields. Unexported
// fields are invisible to wire requests; naming one resolves as not found.
func resolvePath(v reflect.Value, path string) (reflect.Value, bool) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		for cur.Kind() == reflect.Ptr || cur.Kind() == reflect.Interface {
			if cur.IsNil() {
				return reflect.Value{}, false
			}
			cur = cur.Elem()
		}
		if cur.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		f, ok := cur.Type().FieldByName(seg)
		if !ok || f.PkgPath != "" {
			return reflect.Value{}, false
		}
		cur = cur.FieldByName(seg)
	}
	return cur, true
}
