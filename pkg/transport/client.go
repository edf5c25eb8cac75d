package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/videre-project/mtgosdk-go/pkg/commsutil"
	"github.com/videre-project/mtgosdk-go/pkg/handle"
	"github.com/videre-project/mtgosdk-go/pkg/semver"
)

const clientLogPrefix = "transport:client"

const defaultRequestTimeout = 25 * time.Second

// ClientOpts configures a Client. Nil or zero values use defaults.
type ClientOpts struct {
	// Subject overrides the host request subject.
	Subject string
	// Timeout bounds each request when the caller's context has no deadline.
	Timeout time.Duration
	// HostVersionRange is a semver constraint the host's reported version
	// must satisfy at handshake (empty = accept any).
	HostVersionRange string
}

// Client is the COMMS-backed implementation of handle.TransportClient.
type Client struct {
	nc      *comms.Conn
	subject string
	timeout time.Duration
	host    HostDescriptor
}

// NewClient creates a Client over an established COMMS connection and
// performs the describe handshake. A host whose version falls outside the
// configured constraint fails the connect, not later calls.
func NewClient(ctx context.Context, nc *comms.Conn, opts *ClientOpts) (*Client, error) {
	c := &Client{nc: nc, subject: commsutil.SubjectInspector, timeout: defaultRequestTimeout}
	versionRange := ""
	if opts != nil {
		if opts.Subject != "" {
			c.subject = opts.Subject
		}
		if opts.Timeout > 0 {
			c.timeout = opts.Timeout
		}
		versionRange = opts.HostVersionRange
	}

	desc, err := c.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s - handshake failed: %w", clientLogPrefix, err)
	}
	if err := semver.CheckCompat(versionRange, desc.Version); err != nil {
		return nil, fmt.Errorf("%s - %w: %w", clientLogPrefix,
			handle.NewRemoteError(handle.CodeUnsupportedVersion, fmt.Sprintf("host %s v%s", desc.Service, desc.Version)), err)
	}
	c.host = *desc

	slog.Info(fmt.Sprintf("%s - connected to %s v%s on %s", clientLogPrefix, desc.Service, desc.Version, c.subject))
	return c, nil
}

// Host returns the descriptor captured at handshake.
func (c *Client) Host() HostDescriptor {
	return c.host
}

// Describe asks the host for its descriptor.
func (c *Client) Describe(ctx context.Context) (*HostDescriptor, error) {
	result, err := c.request(ctx, MethodDescribe, nil)
	if err != nil {
		return nil, err
	}
	var desc HostDescriptor
	if err := commsutil.DecodePayload(result, &desc); err != nil {
		return nil, fmt.Errorf("%s - bad describe result: %w", clientLogPrefix, err)
	}
	return &desc, nil
}

// GetRemoteHandle looks up an object in the inspected process.
func (c *Client) GetRemoteHandle(ctx context.Context, q handle.Query) (*handle.Handle, error) {
	result, err := c.request(ctx, MethodQuery, q)
	if err != nil {
		return nil, err
	}
	var h handle.Handle
	if err := commsutil.DecodePayload(result, &h); err != nil {
		return nil, fmt.Errorf("%s - bad query result: %w", clientLogPrefix, err)
	}
	return &h, nil
}

// Invoke accesses a single member on the object behind h.
func (c *Client) Invoke(ctx context.Context, h *handle.Handle, member string, args []any) (handle.RawValue, error) {
	if h == nil {
		return handle.RawValue{}, fmt.Errorf("%s - nil handle", clientLogPrefix)
	}
	result, err := c.request(ctx, MethodInvoke, InvokeParams{Handle: *h, Member: member, Args: args})
	if err != nil {
		return handle.RawValue{}, err
	}
	var raw handle.RawValue
	if err := commsutil.DecodePayload(result, &raw); err != nil {
		return handle.RawValue{}, fmt.Errorf("%s - bad invoke result: %w", clientLogPrefix, err)
	}
	return raw, nil
}

// FetchBatch retrieves the given paths for every element of the collection
// behind h in one request.
func (c *Client) FetchBatch(ctx context.Context, h *handle.Handle, paths []string, maxItems int) (*handle.BatchResponse, error) {
	if h == nil {
		return nil, fmt.Errorf("%s - nil handle", clientLogPrefix)
	}
	result, err := c.request(ctx, MethodFetchBatch, FetchBatchParams{Handle: *h, Paths: paths, MaxItems: maxItems})
	if err != nil {
		return nil, err
	}
	var resp handle.BatchResponse
	if err := commsutil.DecodePayload(result, &resp); err != nil {
		return nil, fmt.Errorf("%s - bad fetchBatch result: %w", clientLogPrefix, err)
	}
	return &resp, nil
}

// request performs one round trip. The caller's context is propagated as-is;
// the configured timeout only applies when it carries no deadline.
func (c *Client) request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := Request{ID: uuid.NewString(), Method: method}
	if params != nil {
		data, err := commsutil.EncodePayload(params)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to encode %s params: %w", clientLogPrefix, method, err)
		}
		req.Params = data
	}
	payload, err := commsutil.EncodePayload(&req)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to encode %s request: %w", clientLogPrefix, method, err)
	}

	msg, err := c.nc.RequestWithContext(ctx, c.subject, payload)
	if err != nil {
		return nil, fmt.Errorf("%s - %s request failed: %w", clientLogPrefix, method, err)
	}

	var resp Response
	if err := commsutil.DecodePayload(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("%s - bad %s response: %w", clientLogPrefix, method, err)
	}
	if !resp.Ok {
		if resp.Error == nil {
			return nil, handle.NewRemoteError(handle.CodeInternal, "host reported failure without detail")
		}
		return nil, handle.NewRemoteError(resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}
