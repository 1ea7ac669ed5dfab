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

// Package eventlog stores published event payloads, partitioned by their
// leading event type identifier byte, and replays them in append order.
package eventlog

import "context"

// Log is the append-only, per-type ordered store the broker uses to durably
// record every published event and to replay history to new subscribers.
type Log interface {
	// Append stores payload (the full PUBLISH payload, leading type byte
	// included) under typeID, assigning it the next position in that
	// type's ordering.
	Append(ctx context.Context, typeID byte, payload []byte) error
	// ListAscending returns every payload ever appended for typeID, in
	// append order.
	ListAscending(ctx context.Context, typeID byte) ([][]byte, error)
}
