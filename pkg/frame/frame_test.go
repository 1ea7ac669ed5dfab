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

package frame

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		typ     Type
		payload []byte
	}{
		{"publish with body", Publish, []byte{0x00, 'a', 'b', 'c'}},
		{"consume empty", Consume, nil},
		{"register consumers", RegisterConsumers, []byte{0, 2, 4}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := Encode(c.typ, c.payload)
			require.NoError(t, err)

			decoded, err := Decode(f.Bytes())
			require.NoError(t, err)
			assert.Equal(t, c.typ, decoded.Type())
			if len(c.payload) == 0 {
				assert.Empty(t, decoded.Payload())
			} else {
				assert.Equal(t, c.payload, decoded.Payload())
			}
			assert.Equal(t, len(f.Bytes()), decoded.Size())
			assert.Equal(t, EndMarker, f.Bytes()[len(f.Bytes())-1])
		})
	}
}

func TestEncodeWithFlagsSetsReplayBit(t *testing.T) {
	f, err := EncodeWithFlags(RegisterConsumers, ReplayRequested, []byte{0, 1})
	require.NoError(t, err)
	assert.Equal(t, ReplayRequested, f.Flags())
}

func TestSplitConcatenatedFrames(t *testing.T) {
	f1, _ := Encode(Publish, []byte{0, 'x'})
	f2, _ := Encode(Consume, []byte{1, 'y', 'z'})
	f3, _ := Encode(RegisterConsumers, []byte{2})

	var stream bytes.Buffer
	stream.Write(f1.Bytes())
	stream.Write(f2.Bytes())
	stream.Write(f3.Bytes())

	frames, tail := Split(stream.Bytes())
	require.Len(t, frames, 3)
	assert.Empty(t, tail)
	assert.Equal(t, Publish, frames[0].Type())
	assert.Equal(t, Consume, frames[1].Type())
	assert.Equal(t, RegisterConsumers, frames[2].Type())
}

func TestSplitIncompleteFrameKeepsTail(t *testing.T) {
	f1, _ := Encode(Publish, []byte{0, 'x'})
	partial := f1.Bytes()[:len(f1.Bytes())-2]

	frames, tail := Split(partial)
	assert.Empty(t, frames)
	assert.Equal(t, partial, tail)
}

func TestSplitResyncsPastGarbage(t *testing.T) {
	garbage := make([]byte, 7)
	rand.New(rand.NewSource(1)).Read(garbage)
	// Avoid an accidental sentinel collision with the frame that follows.
	for i := range garbage {
		garbage[i] &^= EndMarker
	}
	f1, _ := Encode(Publish, []byte{0, 'z'})

	buf := append(garbage, f1.Bytes()...)
	frames, tail := Split(buf)
	require.Len(t, frames, 1)
	assert.Empty(t, tail)
	assert.Equal(t, []byte{0, 'z'}, frames[0].Payload())
}

func TestSplitDiscardsZeroSizeHeader(t *testing.T) {
	buf := make([]byte, HeaderSize)
	frames, tail := Split(buf)
	assert.Empty(t, frames)
	// The zero-size header's first byte is skipped; the 7 bytes after it are
	// fewer than a header and are kept for the next read.
	assert.Equal(t, buf[1:], tail)
}

func TestDecodeRejectsBadType(t *testing.T) {
	f, _ := Encode(Publish, []byte{0})
	bad := append([]byte{}, f.Bytes()...)
	bad[0] = 0x09
	_, err := Decode(bad)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeRejectsMissingEndMarker(t *testing.T) {
	f, _ := Encode(Publish, []byte{0})
	bad := append([]byte{}, f.Bytes()...)
	bad[len(bad)-1] = 0x00
	_, err := Decode(bad)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEncodeOverflowRejected(t *testing.T) {
	_, err := Encode(Publish, make([]byte, 0x10000))
	assert.Error(t, err)
}
