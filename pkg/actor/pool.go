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

package actor

import "context"

// Pool runs submitted work on a fixed number of goroutines, so a broker
// connection's I/O task can hand off blocking calls (event log append,
// replay read) without spinning up an unbounded number of goroutines.
type Pool struct {
	work chan func()
}

// NewPool starts a pool with the given number of workers. A pool is never
// stopped explicitly; its workers exit when ctx is canceled.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{work: make(chan func(), workers*4)}
	for i := 0; i < workers; i++ {
		go p.runWorker(ctx)
	}
	return p
}

func (p *Pool) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-p.work:
			fn()
		}
	}
}

// Submit enqueues fn to run on a worker goroutine. Submit blocks if every
// worker is busy and the internal queue is full; callers on a connection's
// I/O task should size the pool generously enough that this is rare.
func (p *Pool) Submit(fn func()) {
	p.work <- fn
}
