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

package broker

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/fhv-hotel/eventbus/pkg/actor"
	"github.com/fhv-hotel/eventbus/pkg/eventlog"
	"github.com/fhv-hotel/eventbus/pkg/registry"
	"github.com/fhv-hotel/eventbus/pkg/supervisor"
)

// Broker is the accept loop: it binds a listen address, and constructs one
// connection handler per accepted socket, wiring each to the shared log,
// registry and publisher.
type Broker struct {
	reg  *registry.Registry
	log  eventlog.Log
	pool *actor.Pool
	sup  supervisor.Supervisor
	pub  publisher
	gate *typeGate
}

// New creates a Broker over a caller-owned registry and publisher: the
// registry is shared with the publisher so that fan-out sees exactly the
// subscribers each connection has registered. workers sizes the single pool
// shared by every connection this broker accepts; each connection serializes
// its own submissions to it so that per-connection frame order is preserved
// regardless of how many workers the pool runs.
func New(ctx context.Context, reg *registry.Registry, evlog eventlog.Log, pub publisher, workers int) *Broker {
	return &Broker{
		reg:  reg,
		log:  evlog,
		pool: actor.NewPool(ctx, workers),
		sup:  supervisor.NewOneForOneSupervisor(),
		pub:  pub,
		gate: newTypeGate(),
	}
}

// ListenAndServe binds addr and accepts connections until ctx is canceled.
// Failure to bind is returned to the caller, which is expected to treat it
// as fatal at startup.
func (b *Broker) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("broker: failed to listen on %s: %w", addr, err)
	}
	defer listener.Close()
	log.Printf("event bus broker listening on %s", addr)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Printf("[ERROR] broker: accept failed: %v", err)
				return err
			}
		}
		c := newConnection(ctx, conn, b.reg, b.log, b.pool, b.sup, b.gate)
		go c.serve(ctx, b.pub)
	}
}
