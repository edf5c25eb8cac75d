// Package transport implements the COMMS-backed transport client: the
// request/response channel the binding layer uses to reach objects in the
// inspected process.
package transport

import (
	"encoding/json"

	"github.com/videre-project/mtgosdk-go/pkg/handle"
)

// Wire methods understood by the inspection host.
const (
	MethodDescribe   = "describe"
	MethodQuery      = "query"
	MethodInvoke     = "invoke"
	MethodFetchBatch = "fetchBatch"
)

// Request is the JSON envelope for outgoing COMMS inspection requests.
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the JSON envelope for COMMS inspection responses.
type Response struct {
	ID     string          `json:"id"`
	Ok     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorDetail    `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// InvokeParams holds parameters for the invoke method.
type InvokeParams struct {
	Handle handle.Handle `json:"handle"`
	Member string        `json:"member"`
	Args   []any         `json:"args,omitempty"`
}

// FetchBatchParams holds parameters for the fetchBatch method.
type FetchBatchParams struct {
	Handle   handle.Handle `json:"handle"`
	Paths    []string      `json:"paths"`
	MaxItems int           `json:"maxItems,omitempty"`
}

// HostDescriptor is the describe result: what is serving the other end of
// the channel, validated against the client's version constraint on connect.
type HostDescriptor struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Runtime string `json:"runtime,omitempty"`
}
