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
	"io"
	"log"

	"github.com/fhv-hotel/eventbus/pkg/actor"
)

// outboundWriter is an actor that owns serialized writes to one
// connection's socket. The fan-out publisher and replay both hand it
// already-encoded frame bytes through its mailbox rather than writing to
// the socket directly, so two goroutines can never interleave their writes
// on the same connection.
type outboundWriter struct {
	conn io.Writer
}

func newOutboundWriter(conn io.Writer) *outboundWriter {
	return &outboundWriter{conn: conn}
}

// Start is the writer's main loop. It terminates, without restart, the
// first time a write fails: a write error means the socket is dead, and
// the connection's read loop will observe the same thing and tear down the
// rest of the connection's state.
func (w *outboundWriter) Start(ctx context.Context, mb *actor.Mailbox) error {
	for {
		msg, err := mb.Receive(ctx)
		if err != nil {
			return nil
		}

		frameBytes, ok := msg.([]byte)
		if !ok {
			log.Printf("[WARN] broker: outbound writer received unexpected message type %T", msg)
			continue
		}
		if _, err := w.conn.Write(frameBytes); err != nil {
			log.Printf("[WARN] broker: write failed, closing writer: %v", err)
			return err
		}
	}
}
