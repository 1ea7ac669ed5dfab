// Copyright 2023 The emqx-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package broker contains the event bus broker: the per-socket connection
// state machine, the accept loop, and the fan-out writer each connection
// owns.
package broker

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"sync/atomic"

	"github.com/fhv-hotel/eventbus/pkg/actor"
	"github.com/fhv-hotel/eventbus/pkg/eventlog"
	"github.com/fhv-hotel/eventbus/pkg/frame"
	"github.com/fhv-hotel/eventbus/pkg/metrics"
	"github.com/fhv-hotel/eventbus/pkg/registry"
	"github.com/fhv-hotel/eventbus/pkg/supervisor"
)

// State is one of the three states a broker connection moves through.
type State int32

const (
	// AwaitingRegistration is the initial state: only REGISTER_CONSUMERS
	// frames are acted on.
	AwaitingRegistration State = iota
	// Active accepts PUBLISH frames; other frame types are discarded.
	Active
	// Closed is terminal, entered once the socket has closed.
	Closed
)

func (s State) String() string {
	switch s {
	case AwaitingRegistration:
		return "AWAITING_REGISTRATION"
	case Active:
		return "ACTIVE"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

var nextConnID uint64

// Connection is the per-socket state machine described by the broker
// connection handler: it owns the socket's read loop, serializes its own
// blocking log calls onto the shared worker pool in frame arrival order, and
// hands outbound frames to its own serialized writer.
type Connection struct {
	id       uint64
	conn     net.Conn
	registry *registry.Registry
	log      eventlog.Log
	pool     *actor.Pool
	gate     *typeGate

	state     atomic.Int32
	outbox    *actor.Mailbox
	work      *actor.Mailbox
	cancelOut context.CancelFunc
}

// newConnection constructs a Connection in AwaitingRegistration and starts
// its outbound writer and its serialized work dispatcher, both supervised so
// a panic in either cannot take the accept loop down with it.
func newConnection(ctx context.Context, conn net.Conn, reg *registry.Registry, evlog eventlog.Log, pool *actor.Pool, sup supervisor.Supervisor, gate *typeGate) *Connection {
	id := atomic.AddUint64(&nextConnID, 1)
	outCtx, cancel := context.WithCancel(ctx)

	c := &Connection{
		id:        id,
		conn:      conn,
		registry:  reg,
		log:       evlog,
		pool:      pool,
		gate:      gate,
		outbox:    actor.NewMailbox(256),
		work:      actor.NewMailbox(256),
		cancelOut: cancel,
	}
	c.state.Store(int32(AwaitingRegistration))

	writer := newOutboundWriter(conn)
	sup.StartChild(outCtx, supervisor.Spec{
		ID:      fmt.Sprintf("conn-writer-%d", id),
		Actor:   writer,
		Restart: supervisor.RestartTemporary,
		Mailbox: c.outbox,
	})

	dispatcher := &workDispatcher{pool: pool}
	sup.StartChild(outCtx, supervisor.Spec{
		ID:      fmt.Sprintf("conn-dispatch-%d", id),
		Actor:   dispatcher,
		Restart: supervisor.RestartTemporary,
		Mailbox: c.work,
	})

	return c
}

// ID implements registry.Connection.
func (c *Connection) ID() uint64 { return c.id }

// Send implements registry.Connection. It is a non-blocking, best-effort
// enqueue onto this connection's outbound mailbox: a full mailbox means the
// peer is not draining fast enough, and the frame is dropped rather than
// stalling the caller.
func (c *Connection) Send(frameBytes []byte) {
	if !c.outbox.TrySend(frameBytes) {
		log.Printf("[WARN] broker: connection %d outbox full, dropping frame", c.id)
	}
}

func (c *Connection) currentState() State { return State(c.state.Load()) }

// serve runs the connection's read loop until the socket closes or ctx is
// canceled. It is the sole owner of frame parsing and state transitions for
// this connection; it never blocks on storage calls itself.
func (c *Connection) serve(ctx context.Context, pub publisher) {
	metrics.ConnectionsTotal.Inc()
	defer c.close()

	reader := bufio.NewReader(c.conn)
	var tail []byte
	buf := make([]byte, 32*1024)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := reader.Read(buf)
		if n > 0 {
			tail = append(tail, buf[:n]...)
			var frames []*frame.Frame
			frames, tail = frame.Split(tail)
			for _, f := range frames {
				metrics.FramesReceivedTotal.WithLabelValues(f.Type().String()).Inc()
				c.handleFrame(ctx, f, pub)
			}
		}
		if err != nil {
			return
		}
	}
}

func (c *Connection) handleFrame(ctx context.Context, f *frame.Frame, pub publisher) {
	switch c.currentState() {
	case AwaitingRegistration:
		if f.Type() == frame.RegisterConsumers {
			c.handleRegister(ctx, f)
		}
		// Any other frame type is discarded while awaiting registration.
	case Active:
		if f.Type() == frame.Publish {
			c.handlePublish(ctx, f, pub)
		}
		// REGISTER_CONSUMERS and CONSUME are both ignored once active: no
		// re-registration, and CONSUME never arrives from a peer.
	}
}

func (c *Connection) handleRegister(ctx context.Context, f *frame.Frame) {
	replay := f.Flags()&frame.ReplayRequested != 0
	payload := f.Payload()

	seen := make(map[byte]bool)
	for _, typeID := range payload {
		seen[typeID] = true
	}
	c.state.Store(int32(Active))

	for typeID := range seen {
		typeID := typeID
		c.enqueueWork(func() { c.registerType(ctx, typeID, replay) })
	}
}

// registerType subscribes c to typeID and, when replay is requested, sends
// its full history first. Both halves run under typeID's gate, the same
// lock handlePublish holds across its append and fan-out: either this
// registration finishes in full, outbox already holding every replay frame
// and the registry already holding c, before a racing publish's fan-out can
// run, or that publish finishes first and this call's own snapshot already
// contains it. Replay can therefore never be followed by an earlier live
// event on this socket, and no event is skipped or delivered twice.
func (c *Connection) registerType(ctx context.Context, typeID byte, replay bool) {
	c.gate.Lock(typeID)
	defer c.gate.Unlock(typeID)

	if replay {
		payloads, err := c.log.ListAscending(ctx, typeID)
		if err != nil {
			log.Printf("[WARN] broker: replay aborted for type %d on connection %d: %v", typeID, c.id, err)
		} else {
			for _, p := range payloads {
				f, err := frame.Encode(frame.Consume, p)
				if err != nil {
					log.Printf("[ERROR] broker: failed to encode replay frame for type %d: %v", typeID, err)
					continue
				}
				metrics.ReplayEventsSentTotal.WithLabelValues(fmt.Sprint(typeID)).Inc()
				c.Send(f.Bytes())
			}
		}
	}

	c.registry.Add(typeID, c)
}

// enqueueWork hands fn to this connection's dispatcher, which runs it on the
// shared pool and waits for it to finish before starting the next one, so
// frames arriving on this connection are never reordered by the pool.
func (c *Connection) enqueueWork(fn func()) {
	c.work.Send(fn)
}

// publisher is the narrow interface Connection needs from the broker's
// fan-out component, kept separate to avoid an import cycle between broker
// and publisher.
type publisher interface {
	Publish(typeID byte, payload []byte)
}

func (c *Connection) handlePublish(ctx context.Context, f *frame.Frame, pub publisher) {
	payload := f.Payload()
	if len(payload) == 0 {
		log.Printf("[WARN] broker: discarding empty PUBLISH payload on connection %d", c.id)
		return
	}
	typeID := payload[0]

	c.enqueueWork(func() {
		c.gate.Lock(typeID)
		defer c.gate.Unlock(typeID)

		if err := c.log.Append(ctx, typeID, payload); err != nil {
			metrics.EventsAppendFailuresTotal.WithLabelValues(fmt.Sprint(typeID)).Inc()
			log.Printf("[ERROR] broker: append failed for type %d on connection %d: %v", typeID, c.id, err)
			return
		}
		metrics.EventsAppendedTotal.WithLabelValues(fmt.Sprint(typeID)).Inc()
		pub.Publish(typeID, payload)
	})
}

func (c *Connection) close() {
	c.state.Store(int32(Closed))
	c.registry.RemoveAll(c)
	c.cancelOut()
	c.conn.Close()
}
