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

package eventlog

import (
	"context"
	"sync"
)

// MemoryLog is an in-process Log backed by a map of slices. It is the
// default backend: durability does not survive process restart, which is
// acceptable for development and for deployments that don't need replay to
// outlive a broker restart.
type MemoryLog struct {
	mu      sync.RWMutex
	streams map[byte][][]byte
}

// NewMemoryLog creates an empty in-memory event log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		streams: make(map[byte][][]byte),
	}
}

// Append stores payload as the newest entry for typeID. All appends,
// whatever their type, are serialized by the log's single mutex, so
// position assignment within a type is strictly ordered.
func (l *MemoryLog) Append(ctx context.Context, typeID byte, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored := make([]byte, len(payload))
	copy(stored, payload)
	l.streams[typeID] = append(l.streams[typeID], stored)
	return nil
}

// ListAscending returns a snapshot of every payload stored for typeID, in
// the order they were appended. The snapshot reflects the state of the log
// at the moment the read lock is acquired; appends that start afterward are
// not included and appends that complete before are always included in
// full, never interleaved out of order.
func (l *MemoryLog) ListAscending(ctx context.Context, typeID byte) ([][]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stream := l.streams[typeID]
	out := make([][]byte, len(stream))
	copy(out, stream)
	return out, nil
}
