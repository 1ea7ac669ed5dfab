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
	"net"
	"sync"
	"testing"
	"time"

	"github.com/fhv-hotel/eventbus/pkg/actor"
	"github.com/fhv-hotel/eventbus/pkg/eventlog"
	"github.com/fhv-hotel/eventbus/pkg/frame"
	pubpkg "github.com/fhv-hotel/eventbus/pkg/publisher"
	"github.com/fhv-hotel/eventbus/pkg/registry"
	"github.com/fhv-hotel/eventbus/pkg/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness wires a single Connection to one end of a net.Pipe, leaving the
// other end for the test to drive as the remote peer.
type harness struct {
	peer net.Conn
	conn *Connection
	reg  *registry.Registry
	log  eventlog.Log
	pub  *pubpkg.Publisher
}

func newHarness(t *testing.T, ctx context.Context) *harness {
	t.Helper()
	serverSide, peer := net.Pipe()

	reg := registry.New()
	evlog := eventlog.NewMemoryLog()
	pub := pubpkg.New(reg)
	pool := actor.NewPool(ctx, 2)
	sup := supervisor.NewOneForOneSupervisor()
	gate := newTypeGate()

	c := newConnection(ctx, serverSide, reg, evlog, pool, sup, gate)
	go c.serve(ctx, pub)

	return &harness{peer: peer, conn: c, reg: reg, log: evlog, pub: pub}
}

func readFrame(t *testing.T, conn net.Conn, timeout time.Duration) *frame.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(timeout))
	header := make([]byte, frame.HeaderSize)
	_, err := readFull(conn, header)
	require.NoError(t, err)

	size := int(header[6])<<8 | int(header[7])
	rest := make([]byte, size-frame.HeaderSize)
	_, err = readFull(conn, rest)
	require.NoError(t, err)

	f, err := frame.Decode(append(header, rest...))
	require.NoError(t, err)
	return f
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestConnection_DiscardsPublishBeforeRegistration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, ctx)
	defer h.peer.Close()

	f, err := frame.Encode(frame.Publish, []byte{0x00, 'x'})
	require.NoError(t, err)
	_, err = h.peer.Write(f.Bytes())
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	payloads, err := h.log.ListAscending(ctx, 0x00)
	require.NoError(t, err)
	assert.Empty(t, payloads, "PUBLISH before registration must be discarded")
}

func TestConnection_RegisterThenPublish_IsAppendedAndFannedOutToSelf(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, ctx)
	defer h.peer.Close()

	reg, err := frame.Encode(frame.RegisterConsumers, []byte{0x00})
	require.NoError(t, err)
	_, err = h.peer.Write(reg.Bytes())
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)

	pub, err := frame.Encode(frame.Publish, []byte{0x00, 'A'})
	require.NoError(t, err)
	_, err = h.peer.Write(pub.Bytes())
	require.NoError(t, err)

	consumed := readFrame(t, h.peer, time.Second)
	assert.Equal(t, frame.Consume, consumed.Type())
	assert.Equal(t, []byte{0x00, 'A'}, consumed.Payload())
}

func TestConnection_ReplayPrecedesLive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := registry.New()
	evlog := eventlog.NewMemoryLog()
	require.NoError(t, evlog.Append(ctx, 0x02, []byte{0x02, 'C'}))

	pub := pubpkg.New(reg)
	pool := actor.NewPool(ctx, 2)
	sup := supervisor.NewOneForOneSupervisor()
	gate := newTypeGate()

	serverSide, peer := net.Pipe()
	defer peer.Close()
	c := newConnection(ctx, serverSide, reg, evlog, pool, sup, gate)
	go c.serve(ctx, pub)

	regFrame, err := frame.EncodeWithFlags(frame.RegisterConsumers, frame.ReplayRequested, []byte{0x02})
	require.NoError(t, err)
	_, err = peer.Write(regFrame.Bytes())
	require.NoError(t, err)

	replayed := readFrame(t, peer, time.Second)
	assert.Equal(t, []byte{0x02, 'C'}, replayed.Payload())

	pubFrame, err := frame.Encode(frame.Publish, []byte{0x02, 'D'})
	require.NoError(t, err)
	_, err = peer.Write(pubFrame.Bytes())
	require.NoError(t, err)

	live := readFrame(t, peer, time.Second)
	assert.Equal(t, []byte{0x02, 'D'}, live.Payload())
}

// TestConnection_RegisterRacesWithConcurrentPublish_NeverDeliversOutOfOrder
// drives a real race, unlike TestConnection_ReplayPrecedesLive above: a
// publisher connection keeps appending sequentially numbered events of one
// type while a second connection registers for that type with replay mid-
// stream. Every event the subscriber receives — whether from its replay
// snapshot or from live fan-out afterward — must carry a strictly greater
// sequence number than the one before it. A regression in either the
// register/replay atomicity or the per-connection append order would show
// up as a repeated or decreasing sequence number.
func TestConnection_RegisterRacesWithConcurrentPublish_NeverDeliversOutOfOrder(t *testing.T) {
	const typeID = 0x07
	const seedCount = 5
	const liveCount = 20

	for iter := 0; iter < 20; iter++ {
		ctx, cancel := context.WithCancel(context.Background())

		reg := registry.New()
		evlog := eventlog.NewMemoryLog()
		pub := pubpkg.New(reg)
		pool := actor.NewPool(ctx, 4)
		sup := supervisor.NewOneForOneSupervisor()
		gate := newTypeGate()

		pubServerSide, pubPeer := net.Pipe()
		pubConn := newConnection(ctx, pubServerSide, reg, evlog, pool, sup, gate)
		go pubConn.serve(ctx, pub)

		// The publisher registers for nothing: PUBLISH frames are only
		// accepted once a connection has sent REGISTER_CONSUMERS.
		pubReg, err := frame.Encode(frame.RegisterConsumers, nil)
		require.NoError(t, err)
		_, err = pubPeer.Write(pubReg.Bytes())
		require.NoError(t, err)

		for i := 0; i < seedCount; i++ {
			writeSequencedPublish(t, pubPeer, typeID, byte(i))
		}
		time.Sleep(10 * time.Millisecond)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := seedCount; i < seedCount+liveCount; i++ {
				writeSequencedPublish(t, pubPeer, typeID, byte(i))
			}
		}()

		subServerSide, subPeer := net.Pipe()
		subConn := newConnection(ctx, subServerSide, reg, evlog, pool, sup, gate)
		go subConn.serve(ctx, pub)

		regFrame, err := frame.EncodeWithFlags(frame.RegisterConsumers, frame.ReplayRequested, []byte{typeID})
		require.NoError(t, err)
		_, err = subPeer.Write(regFrame.Bytes())
		require.NoError(t, err)

		wg.Wait()

		lastSeq := -1
		for received := 0; received < seedCount+liveCount; received++ {
			f := readFrame(t, subPeer, 2*time.Second)
			require.Equal(t, frame.Consume, f.Type())
			seq := int(f.Payload()[1])
			assert.Greater(t, seq, lastSeq, "iteration %d: event delivered out of order or duplicated", iter)
			lastSeq = seq
		}

		pubPeer.Close()
		subPeer.Close()
		cancel()
	}
}

func writeSequencedPublish(t *testing.T, peer net.Conn, typeID, seq byte) {
	t.Helper()
	f, err := frame.Encode(frame.Publish, []byte{typeID, seq})
	require.NoError(t, err)
	_, err = peer.Write(f.Bytes())
	require.NoError(t, err)
}

func TestConnection_CloseRemovesFromRegistry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, ctx)

	reg, err := frame.Encode(frame.RegisterConsumers, []byte{0x00})
	require.NoError(t, err)
	_, err = h.peer.Write(reg.Bytes())
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)

	require.Len(t, h.reg.ConnectionsFor(0x00), 1)

	h.peer.Close()
	assert.Eventually(t, func() bool {
		return len(h.reg.ConnectionsFor(0x00)) == 0
	}, time.Second, 10*time.Millisecond)
}
