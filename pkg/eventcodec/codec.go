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

// Package eventcodec is the client-side codec registry: it turns a CONSUME
// payload into an application event object and dispatches it to every
// handler registered for that event's type identifier.
package eventcodec

import "log"

// Event is any application-level event body that knows how to serialize
// itself. Descriptor.Deserialize produces one of these from wire bytes.
type Event interface {
	// Encode serializes the event body (not including the leading type
	// byte) with the length-prefixed binary scheme described by the wire
	// contract.
	Encode() ([]byte, error)
}

// Descriptor deserializes the wire bytes of one event type into an Event.
// Fields are written positionally, so a descriptor must read them back in
// the order the event's Encode wrote them. The order in which descriptors
// are registered does not affect the bytes: each carries an explicit type
// identifier.
type Descriptor interface {
	Deserialize(body []byte) (Event, error)
}

// Handler receives a fully deserialized event.
type Handler func(Event)

type registration struct {
	descriptor Descriptor
	handlers   []Handler
}

// Registry is the type_identifier -> (descriptor, handler list) table used
// to decode inbound CONSUME payloads and dispatch them. It is safe to read
// concurrently once registration (done at startup, single-threaded) has
// completed.
type Registry struct {
	entries map[byte]*registration
}

// New creates an empty codec registry.
func New() *Registry {
	return &Registry{entries: make(map[byte]*registration)}
}

// Register wires a handler for typeID, using descriptor to deserialize its
// payload. Registering a second handler for a typeID that already has one
// appends to the list; both are invoked on dispatch. Registering a second
// descriptor for the same typeID replaces the first (the descriptor is
// expected to be the same type's own (de)serializer, declared once).
func (r *Registry) Register(typeID byte, descriptor Descriptor, handler Handler) {
	reg, ok := r.entries[typeID]
	if !ok {
		reg = &registration{descriptor: descriptor}
		r.entries[typeID] = reg
	} else if descriptor != nil {
		reg.descriptor = descriptor
	}
	reg.handlers = append(reg.handlers, handler)
}

// TypeIDs returns every event type identifier with at least one registered
// handler, in no particular order. The client entry point unions these
// across all receivers to build a REGISTER_CONSUMERS payload.
func (r *Registry) TypeIDs() []byte {
	ids := make([]byte, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// Dispatch decodes a CONSUME payload (type byte + body) and invokes every
// handler registered for its type. Payloads with no registered handler are
// discarded. A handler panic is recovered, logged, and does not prevent the
// remaining handlers from running.
func (r *Registry) Dispatch(payload []byte) {
	if len(payload) < 1 {
		log.Printf("[WARN] eventcodec: discarding empty payload")
		return
	}
	typeID := payload[0]
	reg, ok := r.entries[typeID]
	if !ok || reg.descriptor == nil {
		log.Printf("[DEBUG] eventcodec: no handler registered for type %d, discarding", typeID)
		return
	}

	event, err := reg.descriptor.Deserialize(payload[1:])
	if err != nil {
		log.Printf("[WARN] eventcodec: failed to deserialize type %d: %v", typeID, err)
		return
	}

	for _, h := range reg.handlers {
		func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[ERROR] eventcodec: handler for type %d panicked: %v", typeID, r)
				}
			}()
			h(event)
		}(h)
	}
}
