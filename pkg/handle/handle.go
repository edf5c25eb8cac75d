// Package handle defines the remote handle value type and the transport
// contracts this SDK consumes to reach objects in the inspected process.
package handle

import (
	"context"
	"fmt"
)

// Handle is an opaque reference to an object living in the inspected process.
// It is created by the transport on lookup or construction and released by an
// external lifecycle collaborator; this layer holds a non-owning reference.
type Handle struct {
	ID           string `json:"id"`
	RuntimeType  string `json:"runtimeType"`
	IsCollection bool   `json:"isCollection"`
}

// String returns a short diagnostic form of the handle.
func (h *Handle) String() string {
	if h == nil {
		return "<nil handle>"
	}
	if h.IsCollection {
		return fmt.Sprintf("%s[] (%s)", h.RuntimeType, h.ID)
	}
	return fmt.Sprintf("%s (%s)", h.RuntimeType, h.ID)
}

// Query selects an object in the inspected process by runtime type and,
// optionally, by the value of its Name member.
type Query struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// RawValue is one encoded cell from the inspected process: JSON-encoded data
// plus the type tag the host assigned when encoding it.
type RawValue struct {
	Data    []byte `json:"data"`
	TypeTag string `json:"typeTag"`
}

// BatchItem maps a property path to the raw value fetched for one element.
type BatchItem map[string]RawValue

// BatchResponse is the ordered per-element result of a single batch fetch.
type BatchResponse struct {
	Items []BatchItem `json:"items"`
}

// TransportClient is the request/response channel to the inspected process.
// Implementations own cancellation, timeouts and retries; this layer
// propagates the context it is given without reinterpreting it.
type TransportClient interface {
	// GetRemoteHandle looks up an object in the inspected process.
	GetRemoteHandle(ctx context.Context, q Query) (*Handle, error)

	// Invoke accesses a single member on the object behind h.
	Invoke(ctx context.Context, h *Handle, member string, args []any) (RawValue, error)

	// FetchBatch retrieves the given property paths for every element of the
	// collection behind h, in one round trip, bounded by maxItems (0 = no cap).
	FetchBatch(ctx context.Context, h *Handle, paths []string, maxItems int) (*BatchResponse, error)
}

// Proxied is implemented by every bound proxy. It is the explicit marker used
// to detect and unwrap proxies; never rely on type names for that.
type Proxied interface {
	RemoteObject() *Handle
}
