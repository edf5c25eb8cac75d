package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/videre-project/mtgosdk-go/pkg/handle"
)

const orchestratorLogPrefix = "batch:orchestrator"

// OrchestratorOpts configures an Orchestrator. Nil or zero values use defaults.
type OrchestratorOpts struct {
	// PathPrefix is a structural prefix prepended to every requested path and
	// stripped from every response key, so nested storage is addressed
	// consistently between request and decode.
	PathPrefix string
}

// Orchestrator issues one batch request per collection+path-set against the
// transport, regardless of collection size.
type Orchestrator struct {
	tc     handle.TransportClient
	prefix string
}

// NewOrchestrator creates an Orchestrator. Pass nil for opts to use defaults.
func NewOrchestrator(tc handle.TransportClient, opts *OrchestratorOpts) *Orchestrator {
	o := &Orchestrator{tc: tc}
	if opts != nil {
		o.prefix = opts.PathPrefix
	}
	return o
}

// Fetch retrieves the given paths for every element of the collection in a
// single round trip, bounded only by maxItems (0 = no cap). An empty path
// list yields an empty result with no round trip. Transport failures
// propagate unchanged with no partial result.
func (o *Orchestrator) Fetch(ctx context.Context, coll *handle.Handle, paths []string, maxItems int) (*handle.BatchResponse, error) {
	if coll == nil {
		return nil, fmt.Errorf("%s - nil collection handle", orchestratorLogPrefix)
	}
	if !coll.IsCollection {
		return nil, fmt.Errorf("%s - handle %s is not a collection", orchestratorLogPrefix, coll)
	}
	if len(paths) == 0 {
		return &handle.BatchResponse{}, nil
	}

	wire := paths
	if o.prefix != "" {
		wire = make([]string, len(paths))
		for i, p := range paths {
			wire[i] = o.prefix + "." + p
		}
	}

	slog.Debug(fmt.Sprintf("%s - fetching %d paths from %s (maxItems=%d)", orchestratorLogPrefix, len(wire), coll, maxItems))
	resp, err := o.tc.FetchBatch(ctx, coll, wire, maxItems)
	if err != nil {
		return nil, err
	}

	if o.prefix != "" {
		resp = o.stripPrefix(resp)
	}
	return resp, nil
}

// stripPrefix restores the caller's path space on response keys.
func (o *Orchestrator) stripPrefix(resp *handle.BatchResponse) *handle.BatchResponse {
	out := &handle.BatchResponse{Items: make([]handle.BatchItem, len(resp.Items))}
	cut := o.prefix + "."
	for i, item := range resp.Items {
		stripped := make(handle.BatchItem, len(item))
		for path, raw := range item {
			stripped[strings.TrimPrefix(path, cut)] = raw
		}
		out.Items[i] = stripped
	}
	return out
}
