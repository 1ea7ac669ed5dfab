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

// Package publisher implements the broker-side fan-out step: given a
// published payload and its type identifier, write one CONSUME frame to
// every current subscriber of that type.
package publisher

import (
	"fmt"
	"log"

	"github.com/fhv-hotel/eventbus/pkg/frame"
	"github.com/fhv-hotel/eventbus/pkg/metrics"
	"github.com/fhv-hotel/eventbus/pkg/registry"
)

// Publisher fans a published event out to every subscriber of its type.
type Publisher struct {
	reg *registry.Registry
}

// New creates a Publisher over reg, the same registry connections register
// themselves into.
func New(reg *registry.Registry) *Publisher {
	return &Publisher{reg: reg}
}

// Publish encodes payload as a single CONSUME frame and writes it to every
// connection currently subscribed to typeID. The frame is built once and
// its bytes are shared across all subscribers. Writes are best-effort and
// non-blocking: a slow or dead peer does not hold up delivery to anyone
// else.
func (p *Publisher) Publish(typeID byte, payload []byte) {
	f, err := frame.Encode(frame.Consume, payload)
	if err != nil {
		log.Printf("[ERROR] publisher: failed to encode CONSUME frame for type %d: %v", typeID, err)
		return
	}
	frameBytes := f.Bytes()

	subscribers := p.reg.ConnectionsFor(typeID)
	for _, conn := range subscribers {
		conn.Send(frameBytes)
	}
	metrics.ConsumeFramesSentTotal.WithLabelValues(fmt.Sprint(typeID)).Add(float64(len(subscribers)))
}
