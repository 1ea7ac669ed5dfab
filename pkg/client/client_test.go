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

package client

import (
	"net"
	"testing"
	"time"

	"github.com/fhv-hotel/eventbus/pkg/eventcodec"
	"github.com/fhv-hotel/eventbus/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoEvent struct{ Body string }

func (e echoEvent) Encode() ([]byte, error) { return []byte(e.Body), nil }

func acceptOne(t *testing.T, ln net.Listener) net.Conn {
	t.Helper()
	conn, err := ln.Accept()
	require.NoError(t, err)
	return conn
}

func readFrame(t *testing.T, conn net.Conn) *frame.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
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

func TestClient_PublishesBeforeConnectAreDeliveredInOrder(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	codecs := eventcodec.New()
	c := New(codecs, false)

	require.NoError(t, c.Publish(0x00, echoEvent{Body: "e1"}))
	require.NoError(t, c.Publish(0x00, echoEvent{Body: "e2"}))
	assert.False(t, c.Ready())

	c.Connect(ln.Addr().String())
	conn := acceptOne(t, ln)
	defer conn.Close()

	readFrame(t, conn) // registration

	first := readFrame(t, conn)
	second := readFrame(t, conn)
	assert.Equal(t, []byte{0x00, 'e', '1'}, first.Payload())
	assert.Equal(t, []byte{0x00, 'e', '2'}, second.Payload())

	assert.Eventually(t, c.Ready, time.Second, 10*time.Millisecond)
}

func TestClient_PublishAfterConnectGoesDirect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	codecs := eventcodec.New()
	c := New(codecs, false)
	c.Connect(ln.Addr().String())

	conn := acceptOne(t, ln)
	defer conn.Close()
	readFrame(t, conn) // registration

	assert.Eventually(t, c.Ready, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Publish(0x02, echoEvent{Body: "live"}))
	f := readFrame(t, conn)
	assert.Equal(t, []byte{0x02, 'l', 'i', 'v', 'e'}, f.Payload())
}
