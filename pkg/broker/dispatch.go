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
	"log"

	"github.com/fhv-hotel/eventbus/pkg/actor"
)

// workDispatcher is an actor that owns one connection's view of dispatch
// order. The read loop enqueues a closure per frame that needs blocking
// work (an append, a replay); the dispatcher submits one closure at a time
// to the shared pool and waits for it to finish before submitting the next.
// The blocking work itself still runs on a pool goroutine, off the read
// loop, but never overlaps with the next frame's work from the same
// connection, so ordering never depends on which pool worker happens to
// pick up which task first.
type workDispatcher struct {
	pool *actor.Pool
}

func (d *workDispatcher) Start(ctx context.Context, mb *actor.Mailbox) error {
	for {
		msg, err := mb.Receive(ctx)
		if err != nil {
			return nil
		}

		fn, ok := msg.(func())
		if !ok {
			log.Printf("[WARN] broker: work dispatcher received unexpected message type %T", msg)
			continue
		}

		done := make(chan struct{})
		d.pool.Submit(func() {
			defer close(done)
			fn()
		})

		select {
		case <-done:
		case <-ctx.Done():
			return nil
		}
	}
}
