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

// Package events is example collaborator code: concrete Go structs for the
// fixed event type enumeration the bus ships with, used by the example
// producer/consumer binaries and by tests to exercise pkg/eventcodec with
// real payloads. The bus itself treats every payload as opaque bytes; this
// package is not part of the core wire protocol.
package events

import "github.com/google/uuid"

// TypeID identifies one of the fixed event types by its stable ordinal.
type TypeID byte

const (
	RoomBooked       TypeID = 0
	BookingCancelled TypeID = 1
	CustomerCreated  TypeID = 2
	CustomerUpdated  TypeID = 3
	BookingPaid      TypeID = 4
	RoomCreated      TypeID = 5
	RoomUpdated      TypeID = 6
)

// RoomBookedEvent is published when a booking reserves a room.
type RoomBookedEvent struct {
	OccurredAt int64 // unix nanos
	RoomID     uuid.UUID
	CustomerID uuid.UUID
}

// BookingCancelledEvent is published when a booking is cancelled.
type BookingCancelledEvent struct {
	OccurredAt int64
	BookingID  uuid.UUID
	RoomNumber int64
}

// CustomerCreatedEvent is published when a new customer record is created.
type CustomerCreatedEvent struct {
	OccurredAt   int64
	CustomerID   uuid.UUID
	CustomerNo   int64
	FirstName    string
	LastName     string
	BirthdayUnix int64
}

// CustomerUpdatedEvent is published when a customer record changes.
type CustomerUpdatedEvent struct {
	OccurredAt   int64
	CustomerID   uuid.UUID
	CustomerNo   int64
	FirstName    string
	LastName     string
	BirthdayUnix int64
	Address      string
}

// BookingPaidEvent is published when a booking's payment is settled.
type BookingPaidEvent struct {
	OccurredAt    int64
	BookingID     uuid.UUID
	RoomNumber    int64
	PaymentOption string
}

// RoomCreatedEvent is published when a new room is added to the catalogue.
type RoomCreatedEvent struct {
	OccurredAt  int64
	RoomNumber  int64
	RoomName    string
	Description string
	Price       float64
}

// RoomUpdatedEvent is published when a room's catalogue entry changes.
type RoomUpdatedEvent struct {
	OccurredAt  int64
	RoomNumber  int64
	RoomName    string
	Description string
	Price       float64
}
