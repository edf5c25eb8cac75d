// Package proxy binds capability structs to remote handles: it compiles one
// cached dispatch table per (runtime type, capability type) pair and
// populates struct members with forwarders that reach the inspected process.
package proxy

import (
	"reflect"

	"github.com/videre-project/mtgosdk-go/pkg/handle"
)

// Object is the marker every capability struct embeds. Bind fills it with the
// bound handle; Unbind reads it back. Embedding Object is what
// identifies a value as a proxy; type names carry no meaning here.
type Object struct {
	h *handle.Handle
}

// RemoteObject returns the handle this proxy forwards to, or nil when the
// value was never bound.
func (o Object) RemoteObject() *handle.Handle {
	return o.h
}

var objectType = reflect.TypeOf(Object{})

// Unbind strips proxy wrapping down to the innermost remote handle. It is the
// sanctioned crossing from capability-typed code back to raw handle access:
// handles pass through unchanged, bound proxies yield their handle however
// deeply the capability structs nest, and any other input yields nil.
func Unbind(x any) *handle.Handle {
	switch v := x.(type) {
	case nil:
		return nil
	case *handle.Handle:
		return v
	case handle.Proxied:
		if h := v.RemoteObject(); h != nil {
			return h
		}
	}
	return findObject(reflect.ValueOf(x))
}

// findObject walks struct fields for an embedded Object. Composite
// capabilities may embed several; they all carry the same handle, so the
// first one found wins.
func findObject(v reflect.Value) *handle.Handle {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	if v.Type() == objectType {
		return v.Interface().(Object).RemoteObject()
	}
	for i := 0; i < v.NumField(); i++ {
		f := v.Type().Field(i)
		if !f.Anonymous && f.Type != objectType {
			continue
		}
		if f.Type.Kind() != reflect.Struct && f.Type.Kind() != reflect.Ptr {
			continue
		}
		if h := findObject(v.Field(i)); h != nil {
			return h
		}
	}
	return nil
}
