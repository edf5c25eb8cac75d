//go:build integration

package tests

import (
	"context"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"

	mtgosdk "github.com/videre-project/mtgosdk-go"
	"github.com/videre-project/mtgosdk-go/pkg/commsutil"
	"github.com/videre-project/mtgosdk-go/pkg/events"
	"github.com/videre-project/mtgosdk-go/pkg/handle"
	"github.com/videre-project/mtgosdk-go/pkg/host"
	"github.com/videre-project/mtgosdk-go/pkg/transport"
)

const integrationTestPrefix = "tests:integration_test"
const integrationNatsPort = 14241

// TestIntegration_DialServeSerialize drives the full stack the way an
// embedding application would: host side served via host.Serve with COMMS
// lifecycle events, client side dialed purely from environment configuration.
func TestIntegration_DialServeSerialize(t *testing.T) {
	opts := &commsserver.Options{
		Host:   "127.0.0.1",
		Port:   integrationNatsPort,
		NoLog:  true,
		NoSigs: true,
	}
	ns, err := commsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("%s - failed to create NATS server: %v", integrationTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - NATS server failed to start", integrationTestPrefix)
	}
	defer func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	}()

	hostConn, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		t.Fatalf("%s - host connect failed: %v", integrationTestPrefix, err)
	}
	defer hostConn.Close()

	// Host side: table with COMMS lifecycle events, served on the default
	// subject scheme.
	subject := commsutil.BuildHostSubject("mtgo-integration")
	table := host.NewTable(events.NewCommsPublisher(hostConn, nil))
	d := host.NewDispatcher(table, transport.HostDescriptor{
		Service: "mtgo-integration-host",
		Version: "1.0.0",
		Runtime: "go",
	})
	sub, err := host.Serve(hostConn, d, &host.ServeOpts{Subject: subject})
	if err != nil {
		t.Fatalf("%s - Serve failed: %v", integrationTestPrefix, err)
	}
	defer sub.Unsubscribe()

	// Capture lifecycle events off the global subject.
	eventCh := make(chan *events.ObjectEvent, 8)
	eventSub, err := hostConn.Subscribe(commsutil.SubjectObjectEvent, func(msg *comms.Msg) {
		var ev events.ObjectEvent
		if err := commsutil.DecodePayload(msg.Data, &ev); err == nil {
			eventCh <- &ev
		}
	})
	if err != nil {
		t.Fatalf("%s - event subscribe failed: %v", integrationTestPrefix, err)
	}
	defer eventSub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cards := make([]Card, 60)
	for i := range cards {
		cards[i] = Card{Name: names[i%len(names)], Cmc: i % 8}
	}
	coll, err := table.Register(ctx, cards)
	if err != nil {
		t.Fatalf("%s - Register failed: %v", integrationTestPrefix, err)
	}

	select {
	case ev := <-eventCh:
		if ev.Action != events.ActionRegistered || ev.HandleID != coll.ID {
			t.Errorf("%s - lifecycle event = %+v", integrationTestPrefix, ev)
		}
	case <-time.After(5 * time.Second):
		t.Errorf("%s - no lifecycle event received", integrationTestPrefix)
	}

	// Client side: everything from environment configuration.
	t.Setenv("COMMS_URL", ns.ClientURL())
	t.Setenv("INSPECT_HOST_SUBJECT", subject)
	t.Setenv("INSPECT_HOST_VERSION_RANGE", "^1.0.0")
	t.Setenv("INSPECT_DEFAULT_MAX_ITEMS", "25")

	session, err := mtgosdk.Dial(ctx)
	if err != nil {
		t.Fatalf("%s - Dial failed: %v", integrationTestPrefix, err)
	}
	defer session.Close()

	if got := session.Transport().Host().Service; got != "mtgo-integration-host" {
		t.Errorf("%s - host service = %q", integrationTestPrefix, got)
	}

	// The session's default item cap applies when no opts are given.
	items, err := mtgosdk.Serialize[CardView](ctx, session, coll, nil)
	if err != nil {
		t.Fatalf("%s - Serialize failed: %v", integrationTestPrefix, err)
	}
	if len(items) != 25 {
		t.Fatalf("%s - expected 25 items under the default cap, got %d", integrationTestPrefix, len(items))
	}
	for i, item := range items {
		name, err := item.Name()
		if err != nil || name != names[i%len(names)] {
			t.Errorf("%s - item %d Name = %q, %v", integrationTestPrefix, i, name, err)
		}
	}

	// Single-object lookup through the same session.
	if _, err := table.Register(ctx, Card{Name: "Ancestral Recall", Cmc: 1}); err != nil {
		t.Fatalf("%s - Register failed: %v", integrationTestPrefix, err)
	}
	h, err := session.Transport().GetRemoteHandle(ctx, handle.Query{Type: "Card", Name: "Ancestral Recall"})
	if err != nil {
		t.Fatalf("%s - GetRemoteHandle failed: %v", integrationTestPrefix, err)
	}
	if h.RuntimeType != "Card" || h.IsCollection {
		t.Errorf("%s - handle = %+v", integrationTestPrefix, h)
	}
}
