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

// Package registry provides a thread-safe mapping from event type
// identifier to the set of broker-side connections subscribed to it. It is
// the broker's routing table for fan-out.
package registry

import "sync"

// Connection is the interface the registry and the publisher need from a
// broker connection: enough identity to dedupe and remove it, and a way to
// hand it an already-encoded frame to write.
type Connection interface {
	// ID uniquely identifies the connection for dedup/removal purposes.
	ID() uint64
	// Send queues an encoded frame for delivery on this connection's
	// socket. Implementations MUST be non-blocking and best-effort: a slow
	// or dead peer must not block the caller or any other subscriber.
	Send(frameBytes []byte)
}

// Registry maps a type identifier to the ordered set of connections
// subscribed to it. Registration is idempotent; removal clears a
// connection out of every type's subscriber set at once.
type Registry struct {
	mu   sync.RWMutex
	subs map[byte][]Connection
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{subs: make(map[byte][]Connection)}
}

// Add registers conn as a subscriber of typeID. Registering the same
// connection for the same type more than once has no additional effect.
func (r *Registry) Add(typeID byte, conn Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.subs[typeID] {
		if existing.ID() == conn.ID() {
			return
		}
	}
	r.subs[typeID] = append(r.subs[typeID], conn)
}

// ConnectionsFor returns a snapshot of the connections currently subscribed
// to typeID. The slice is safe to iterate without holding any lock and is
// unaffected by subsequent Add/RemoveAll calls.
func (r *Registry) ConnectionsFor(typeID byte) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	existing := r.subs[typeID]
	out := make([]Connection, len(existing))
	copy(out, existing)
	return out
}

// RemoveAll removes conn from every type's subscriber set. Called once a
// connection's socket has closed, so fan-out never writes to a dead
// socket.
func (r *Registry) RemoveAll(conn Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for typeID, conns := range r.subs {
		filtered := conns[:0:0]
		for _, c := range conns {
			if c.ID() != conn.ID() {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) == 0 {
			delete(r.subs, typeID)
		} else {
			r.subs[typeID] = filtered
		}
	}
}
