// Package mtgosdk is the front door of the cross-process object-inspection
// SDK: it dials the COMMS broker from environment configuration, performs the
// host handshake, and exposes the bound transport for the binding and batch
// layers in pkg/.
package mtgosdk

import (
	"context"
	"fmt"

	comms "github.com/nats-io/nats.go"

	"github.com/videre-project/mtgosdk-go/internal/config"
	"github.com/videre-project/mtgosdk-go/pkg/batch"
	"github.com/videre-project/mtgosdk-go/pkg/commsutil"
	"github.com/videre-project/mtgosdk-go/pkg/handle"
	"github.com/videre-project/mtgosdk-go/pkg/transport"
)

const logPrefix = "mtgosdk:client"

// Session is a connected inspection session: one COMMS connection and one
// handshaken transport client.
type Session struct {
	nc     *comms.Conn
	client *transport.Client
	cfg    *config.Config
}

// Dial loads configuration from the environment, connects to COMMS and
// performs the host handshake.
func Dial(ctx context.Context) (*Session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return nil, err
	}

	client, err := transport.NewClient(ctx, nc, &transport.ClientOpts{
		Subject:          cfg.HostSubject,
		Timeout:          cfg.RequestTimeout,
		HostVersionRange: cfg.HostVersionRange,
	})
	if err != nil {
		nc.Close()
		return nil, err
	}
	return &Session{nc: nc, client: client, cfg: cfg}, nil
}

// Transport returns the session's transport client.
func (s *Session) Transport() *transport.Client {
	return s.client
}

// Close drains and closes the COMMS connection.
func (s *Session) Close() {
	s.nc.Close()
}

// Serialize materializes a remote collection into detached items of
// capability type T, applying the session's configured default item cap when
// opts is nil.
func Serialize[T any](ctx context.Context, s *Session, coll *handle.Handle, opts *batch.SerializeOpts) ([]*T, error) {
	if opts == nil {
		opts = &batch.SerializeOpts{MaxItems: s.cfg.DefaultMaxItems}
	}
	return batch.SerializeAs[T](ctx, s.client, coll, opts)
}
