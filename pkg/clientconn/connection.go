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

// Package clientconn is the client side of a single TCP connection to the
// broker: it sends the initial registration frame, serializes outbound
// PUBLISH frames through its actor mailbox, and dispatches inbound CONSUME
// payloads to the codec registry off its own read loop.
package clientconn

import (
	"log"
	"net"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/fhv-hotel/eventbus/pkg/eventcodec"
	"github.com/fhv-hotel/eventbus/pkg/frame"
)

// Publish is sent to the Connection actor to write one PUBLISH frame.
// Payload is the full frame payload: the leading event type byte followed
// by the serialized event body.
type Publish struct {
	Payload []byte
}

// Connection is the actor that owns a single connected socket. Because
// protoactor-go delivers one message at a time to Receive, every write
// this actor performs is automatically serialized without extra locking.
type Connection struct {
	conn    net.Conn
	codecs  *eventcodec.Registry
	replay  bool
	stopCh  chan struct{}
}

// New creates the Props for a Connection actor around an already-dialed
// socket. codecs supplies the set of type identifiers to register for and
// decodes inbound CONSUME payloads; replay sets the REPLAY_REQUESTED flag
// on the registration frame.
func New(conn net.Conn, codecs *eventcodec.Registry, replay bool) *actor.Props {
	return actor.PropsFromProducer(func() actor.Actor {
		return &Connection{conn: conn, codecs: codecs, replay: replay, stopCh: make(chan struct{})}
	})
}

// Receive is the actor's message handler.
func (c *Connection) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		if err := c.register(); err != nil {
			log.Printf("[ERROR] clientconn: failed to send registration: %v", err)
			return
		}
		go c.receiveLoop()
	case Publish:
		c.handlePublish(msg)
	case *actor.Stopping:
		close(c.stopCh)
		c.conn.Close()
	}
}

func (c *Connection) register() error {
	typeIDs := c.codecs.TypeIDs()
	var flags byte
	if c.replay {
		flags = frame.ReplayRequested
	}
	f, err := frame.EncodeWithFlags(frame.RegisterConsumers, flags, typeIDs)
	if err != nil {
		return err
	}
	_, err = c.conn.Write(f.Bytes())
	return err
}

func (c *Connection) handlePublish(msg Publish) {
	f, err := frame.Encode(frame.Publish, msg.Payload)
	if err != nil {
		log.Printf("[ERROR] clientconn: failed to encode publish frame: %v", err)
		return
	}
	if _, err := c.conn.Write(f.Bytes()); err != nil {
		log.Printf("[ERROR] clientconn: write failed: %v", err)
	}
}

// receiveLoop reads inbound bytes, splits them into frames, and hands each
// CONSUME payload to the codec registry on its own goroutine so that a slow
// handler cannot stall the read loop. It runs until the socket closes.
func (c *Connection) receiveLoop() {
	buf := make([]byte, 32*1024)
	var tail []byte

	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			tail = append(tail, buf[:n]...)
			var frames []*frame.Frame
			frames, tail = frame.Split(tail)
			for _, f := range frames {
				c.dispatch(f)
			}
		}
		if err != nil {
			select {
			case <-c.stopCh:
			default:
				log.Printf("[INFO] clientconn: connection closed: %v", err)
			}
			return
		}
	}
}

func (c *Connection) dispatch(f *frame.Frame) {
	if f.Type() != frame.Consume {
		return
	}
	payload := f.Payload()
	if len(payload) <= 1 {
		log.Printf("[WARN] clientconn: discarding CONSUME payload of length %d", len(payload))
		return
	}
	go c.codecs.Dispatch(payload)
}
