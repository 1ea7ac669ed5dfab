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

package eventcodec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
)

// Writer accumulates an event body using the length-prefixed binary scheme:
// fixed-width integers are written directly, strings and byte slices are
// length-prefixed with a uint32, and 128-bit identifiers are written as two
// big-endian uint64 halves (most-significant first), matching the original
// Kryo UUID serializer's byte layout.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// PutUUID appends id as two big-endian uint64 halves.
func (w *Writer) PutUUID(id uuid.UUID) {
	hi := binary.BigEndian.Uint64(id[0:8])
	lo := binary.BigEndian.Uint64(id[8:16])
	w.PutUint64(hi)
	w.PutUint64(lo)
}

// PutUint64 appends v as 8 big-endian bytes.
func (w *Writer) PutUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutUint32 appends v as 4 big-endian bytes.
func (w *Writer) PutUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutFloat64 appends v as its IEEE-754 bit pattern in 8 big-endian bytes.
func (w *Writer) PutFloat64(v float64) {
	w.PutUint64(math.Float64bits(v))
}

// PutString appends s prefixed with its length as a big-endian uint32.
func (w *Writer) PutString(s string) {
	w.PutUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// PutBytes appends a raw byte slice, length-prefixed.
func (w *Writer) PutBytes(b []byte) {
	w.PutUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// Bytes returns the accumulated body.
func (w *Writer) Bytes() []byte { return w.buf }

// Reader decodes a body written by Writer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps body for sequential decoding.
func NewReader(body []byte) *Reader { return &Reader{buf: body} }

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return fmt.Errorf("eventcodec: unexpected end of body (need %d more bytes at offset %d): %w", n, r.pos, io.ErrUnexpectedEOF)
	}
	return nil
}

// UUID reads two big-endian uint64 halves and assembles them into a UUID.
func (r *Reader) UUID() (uuid.UUID, error) {
	hi, err := r.Uint64()
	if err != nil {
		return uuid.UUID{}, err
	}
	lo, err := r.Uint64()
	if err != nil {
		return uuid.UUID{}, err
	}
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[0:8], hi)
	binary.BigEndian.PutUint64(id[8:16], lo)
	return id, nil
}

// Uint64 reads 8 big-endian bytes.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

// Uint32 reads 4 big-endian bytes.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

// Float64 reads 8 bytes as an IEEE-754 double.
func (r *Reader) Float64() (float64, error) {
	bits, err := r.Uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// String reads a length-prefixed UTF-8 string.
func (r *Reader) String() (string, error) {
	n, err := r.Uint32()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// Bytes reads a length-prefixed raw byte slice.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b, nil
}
