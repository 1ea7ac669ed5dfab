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

import "sync"

// typeGate serializes, per event type identifier, the two operations that
// must never interleave: a publish's log append plus its fan-out, and a new
// subscriber's replay snapshot plus its registration into the fan-out set.
// Holding the same type's lock across both halves of each operation makes
// them atomic with respect to each other: a registration either completes
// in full (snapshot read, subscribed, every replay frame enqueued) before a
// racing publish's fan-out can reach the new subscriber, or the publish
// completes in full first, in which case the registration's own snapshot
// already contains it. Either way replay can never be followed by an
// earlier live event on the same socket, and no event is delivered twice or
// lost.
//
// One lock per possible type identifier (a plain byte) is cheap enough to
// allocate up front rather than manage a map.
type typeGate struct {
	locks [256]sync.Mutex
}

func newTypeGate() *typeGate {
	return &typeGate{}
}

func (g *typeGate) Lock(typeID byte)   { g.locks[typeID].Lock() }
func (g *typeGate) Unlock(typeID byte) { g.locks[typeID].Unlock() }
