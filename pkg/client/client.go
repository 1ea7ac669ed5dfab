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

// Package client is the application-facing entry point: it dials the
// broker, registers the application's handlers, and buffers publishes that
// arrive before the socket is usable so that submission order is never
// lost.
package client

import (
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/fhv-hotel/eventbus/pkg/clientconn"
	"github.com/fhv-hotel/eventbus/pkg/eventcodec"
)

// Client manages connection establishment to a single broker and the
// pending-publish queue used before that connection is ready.
type Client struct {
	system        *actor.ActorSystem
	codecs        *eventcodec.Registry
	requestReplay bool

	mu      sync.Mutex
	ready   bool
	pid     *actor.PID
	pending [][]byte
}

// New creates a Client around codecs, the application's registered
// handlers. requestReplay is carried on the registration frame sent once
// Connect succeeds.
func New(codecs *eventcodec.Registry, requestReplay bool) *Client {
	return &Client{
		system:        actor.NewActorSystem(),
		codecs:        codecs,
		requestReplay: requestReplay,
	}
}

// Connect dials addr in the background and returns immediately; publishes
// submitted before the dial completes are queued, not blocked. A failed
// dial is logged and leaves the client not-ready: pending events stay
// queued, since automatic reconnect is out of scope.
func (c *Client) Connect(addr string) {
	go func() {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			log.Printf("[ERROR] client: failed to connect to %s: %v", addr, err)
			return
		}
		pid, err := c.system.Root.SpawnNamed(clientconn.New(conn, c.codecs, c.requestReplay), fmt.Sprintf("conn-%s", addr))
		if err != nil {
			log.Printf("[ERROR] client: failed to spawn connection actor: %v", err)
			conn.Close()
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.pid = pid
		c.ready = true
		for _, payload := range c.pending {
			c.system.Root.Send(pid, clientconn.Publish{Payload: payload})
		}
		c.pending = nil
	}()
}

// Publish sends event, tagged with typeID, to the broker if the connection
// is ready, or appends it to the FIFO pending queue otherwise. Events
// submitted by a single caller are delivered to the broker in submission
// order regardless of which path they took.
func (c *Client) Publish(typeID byte, event eventcodec.Event) error {
	body, err := event.Encode()
	if err != nil {
		return fmt.Errorf("client: failed to encode event: %w", err)
	}
	payload := append([]byte{typeID}, body...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		c.system.Root.Send(c.pid, clientconn.Publish{Payload: payload})
		return nil
	}
	c.pending = append(c.pending, payload)
	return nil
}

// Ready reports whether the connection has completed and publishes are
// being sent directly rather than queued.
func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}
