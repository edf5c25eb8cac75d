package host

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/videre-project/mtgosdk-go/pkg/coerce"
	"github.com/videre-project/mtgosdk-go/pkg/commsutil"
	"github.com/videre-project/mtgosdk-go/pkg/handle"
	"github.com/videre-project/mtgosdk-go/pkg/transport"
)

const dispatcherLogPrefix = "host:dispatcher"

// Dispatcher routes COMMS inspection requests to the object table.
type Dispatcher struct {
	table *Table
	desc  transport.HostDescriptor
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(table *Table, desc transport.HostDescriptor) *Dispatcher {
	return &Dispatcher{table: table, desc: desc}
}

// Dispatch routes a request to the appropriate handler and returns a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *transport.Request) *transport.Response {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", dispatcherLogPrefix, req.Method, req.ID))

	switch req.Method {
	case transport.MethodDescribe:
		return okResponse(req.ID, d.desc)
	case transport.MethodQuery:
		return d.handleQuery(req)
	case transport.MethodInvoke:
		return d.handleInvoke(ctx, req)
	case transport.MethodFetchBatch:
		return d.handleFetchBatch(ctx, req)
	default:
		return errorResponse(req.ID, "METHOD_NOT_FOUND", fmt.Sprintf("Unknown method: %s", req.Method), false)
	}
}

func (d *Dispatcher) handleQuery(req *transport.Request) *transport.Response {
	var q handle.Query
	if err := commsutil.DecodePayload(req.Params, &q); err != nil {
		return errorResponse(req.ID, handle.CodeInvalidArgument, "Failed to parse query params", false)
	}
	if q.Type == "" {
		return errorResponse(req.ID, handle.CodeInvalidArgument, "Query requires a runtime type", false)
	}

	h, ok := d.table.find(q)
	if !ok {
		return errorResponse(req.ID, handle.CodeHandleNotFound, fmt.Sprintf("No object of type %s", q.Type), false)
	}
	return okResponse(req.ID, h)
}

func (d *Dispatcher) handleInvoke(ctx context.Context, req *transport.Request) *transport.Response {
	var params transport.InvokeParams
	if err := commsutil.DecodePayload(req.Params, &params); err != nil {
		return errorResponse(req.ID, handle.CodeInvalidArgument, "Failed to parse invoke params", false)
	}

	e, ok := d.table.lookup(params.Handle.ID)
	if !ok {
		return errorResponse(req.ID, handle.CodeHandleNotFound, fmt.Sprintf("Unknown handle %s", params.Handle.ID), false)
	}

	result, err := invokeMember(e.value, params.Member, params.Args)
	if err != nil {
		if _, missing := err.(*memberNotFound); missing {
			return errorResponse(req.ID, handle.CodeMemberNotFound,
				fmt.Sprintf("Member %s not found on %s", params.Member, e.h.RuntimeType), false)
		}
		return errorResponse(req.ID, handle.CodeInternal, err.Error(), true)
	}

	raw, err := d.table.encodeValue(ctx, result)
	if err != nil {
		return errorResponse(req.ID, handle.CodeInternal, err.Error(), true)
	}
	return okResponse(req.ID, raw)
}

func (d *Dispatcher) handleFetchBatch(ctx context.Context, req *transport.Request) *transport.Response {
	var params transport.FetchBatchParams
	if err := commsutil.DecodePayload(req.Params, &params); err != nil {
		return errorResponse(req.ID, handle.CodeInvalidArgument, "Failed to parse fetchBatch params", false)
	}

	e, ok := d.table.lookup(params.Handle.ID)
	if !ok {
		return errorResponse(req.ID, handle.CodeHandleNotFound, fmt.Sprintf("Unknown handle %s", params.Handle.ID), false)
	}

	coll := e.value
	for coll.Kind() == reflect.Ptr {
		coll = coll.Elem()
	}
	if coll.Kind() != reflect.Slice && coll.Kind() != reflect.Array {
		return errorResponse(req.ID, handle.CodeNotACollection, fmt.Sprintf("Handle %s is not a collection", params.Handle.ID), false)
	}

	count := coll.Len()
	if params.MaxItems > 0 && params.MaxItems < count {
		count = params.MaxItems
	}

	resp := handle.BatchResponse{Items: make([]handle.BatchItem, 0, count)}
	for i := 0; i < count; i++ {
		item := make(handle.BatchItem, len(params.Paths))
		for _, path := range params.Paths {
			cell, ok := resolvePath(coll.Index(i), path)
			if !ok {
				item[path] = handle.RawValue{TypeTag: "null"}
				continue
			}
			raw, err := d.table.encodeValue(ctx, cell)
			if err != nil {
				item[path] = handle.RawValue{TypeTag: "null"}
				continue
			}
			item[path] = raw
		}
		resp.Items = append(resp.Items, item)
	}
	return okResponse(req.ID, &resp)
}

// --- member invocation ---

type memberNotFound struct{ member string }

func (e *memberNotFound) Error() string {
	return "member not found: " + e.member
}

// invokeMember evaluates a member on a live object: a method when one exists
// (on the value or its address), otherwise an exported struct field. Method
// args are coerced onto the parameter types; a trailing error result
// propagates. Unexported fields are invisible to wire requests.
func invokeMember(v reflect.Value, member string, args []any) (reflect.Value, error) {
	m := v.MethodByName(member)
	if !m.IsValid() && v.CanAddr() {
		m = v.Addr().MethodByName(member)
	}
	if !m.IsValid() && v.Kind() == reflect.Ptr {
		m = v.Elem().MethodByName(member)
	}
	if m.IsValid() {
		return callMethod(m, member, args)
	}

	target := v
	for target.Kind() == reflect.Ptr || target.Kind() == reflect.Interface {
		if target.IsNil() {
			return reflect.Value{}, &memberNotFound{member: member}
		}
		target = target.Elem()
	}
	if target.Kind() == reflect.Struct {
		if f, ok := target.Type().FieldByName(member); ok && f.PkgPath == "" {
			return target.FieldByName(member), nil
		}
	}
	return reflect.Value{}, &memberNotFound{member: member}
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

func callMethod(m reflect.Value, member string, args []any) (reflect.Value, error) {
	mt := m.Type()
	if mt.NumIn() != len(args) {
		return reflect.Value{}, fmt.Errorf("%s - member %s takes %d args, got %d", dispatcherLogPrefix, member, mt.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		converted, err := coerce.To(a, mt.In(i))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%s - member %s arg %d: %w", dispatcherLogPrefix, member, i, err)
		}
		in[i] = converted
	}

	out := m.Call(in)
	switch len(out) {
	case 1:
		return out[0], nil
	case 2:
		if out[1].Type() == errType {
			if !out[1].IsNil() {
				return reflect.Value{}, out[1].Interface().(error)
			}
			return out[0], nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%s - member %s must return one value or (value, error)", dispatcherLogPrefix, member)
}

// --- helpers ---

func okResponse(id string, result any) *transport.Response {
	data, err := commsutil.EncodePayload(result)
	if err != nil {
		return errorResponse(id, handle.CodeInternal, err.Error(), false)
	}
	return &transport.Response{ID: id, Ok: true, Result: data}
}

func errorResponse(id, code, message string, retryable bool) *transport.Response {
	return &transport.Response{
		ID: id,
		Ok: false,
		Error: &transport.ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}
