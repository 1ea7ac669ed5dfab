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

package publisher

import (
	"sync"
	"testing"

	"github.com/fhv-hotel/eventbus/pkg/frame"
	"github.com/fhv-hotel/eventbus/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	id uint64

	mu     sync.Mutex
	frames [][]byte
}

func (c *recordingConn) ID() uint64 { return c.id }

func (c *recordingConn) Send(frameBytes []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frameBytes)
}

func (c *recordingConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func TestPublishFansOutToAllSubscribersOfType(t *testing.T) {
	reg := registry.New()
	s1 := &recordingConn{id: 1}
	s2 := &recordingConn{id: 2}
	s3 := &recordingConn{id: 3}
	reg.Add(0x00, s1)
	reg.Add(0x00, s2)
	reg.Add(0x02, s2)
	reg.Add(0x02, s3)

	p := New(reg)
	p.Publish(0x00, []byte{0x00, 'X'})
	p.Publish(0x02, []byte{0x02, 'Y'})

	require.Len(t, s1.received(), 1)
	require.Len(t, s2.received(), 2)
	require.Len(t, s3.received(), 1)

	decoded, err := frame.Decode(s1.received()[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 'X'}, decoded.Payload())
}

func TestPublishDoesNotReachUnsubscribedConnections(t *testing.T) {
	reg := registry.New()
	s1 := &recordingConn{id: 1}
	reg.Add(0x00, s1)

	p := New(reg)
	p.Publish(0x02, []byte{0x02, 'Z'})

	assert.Empty(t, s1.received())
}

func TestPublishOrdersFramesPerSubscriber(t *testing.T) {
	reg := registry.New()
	sub := &recordingConn{id: 1}
	reg.Add(0x00, sub)

	p := New(reg)
	p.Publish(0x00, []byte{0x00, 'A'})
	p.Publish(0x00, []byte{0x00, 'B'})

	frames := sub.received()
	require.Len(t, frames, 2)

	a, err := frame.Decode(frames[0])
	require.NoError(t, err)
	b, err := frame.Decode(frames[1])
	require.NoError(t, err)
	assert.Equal(t, byte('A'), a.Payload()[1])
	assert.Equal(t, byte('B'), b.Payload()[1])
}
