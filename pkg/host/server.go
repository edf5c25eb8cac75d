package host

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/videre-project/mtgosdk-go/pkg/commsutil"
	"github.com/videre-project/mtgosdk-go/pkg/transport"
)

const serverLogPrefix = "host:server"

// ServeOpts configures Serve. Nil or zero values use defaults.
type ServeOpts struct {
	// Subject overrides the request subject this host answers on.
	Subject string
}

// Serve subscribes the dispatcher on the host request subject and answers
// requests until the subscription is unsubscribed or the connection closes.
func Serve(nc *comms.Conn, d *Dispatcher, opts *ServeOpts) (*comms.Subscription, error) {
	subject := commsutil.SubjectInspector
	if opts != nil && opts.Subject != "" {
		subject = opts.Subject
	}

	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		var req transport.Request
		if err := commsutil.DecodePayload(msg.Data, &req); err != nil {
			respond(msg, errorResponse("", "INVALID_ENVELOPE", "Failed to parse request envelope", false))
			return
		}
		respond(msg, d.Dispatch(context.Background(), &req))
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe on %s: %w", serverLogPrefix, subject, err)
	}

	slog.Info(fmt.Sprintf("%s - serving %s v%s on %s", serverLogPrefix, d.desc.Service, d.desc.Version, subject))
	return sub, nil
}

func respond(msg *comms.Msg, resp *transport.Response) {
	data, err := commsutil.EncodePayload(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", serverLogPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to respond: %v", serverLogPrefix, err))
	}
}
