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

package events

import "github.com/fhv-hotel/eventbus/pkg/eventcodec"

// Encode implements eventcodec.Event for every struct in this package. Field
// order here must match the order they are read back in Deserialize.

func (e RoomBookedEvent) Encode() ([]byte, error) {
	w := eventcodec.NewWriter()
	w.PutUint64(uint64(e.OccurredAt))
	w.PutUUID(e.RoomID)
	w.PutUUID(e.CustomerID)
	return w.Bytes(), nil
}

func (e BookingCancelledEvent) Encode() ([]byte, error) {
	w := eventcodec.NewWriter()
	w.PutUint64(uint64(e.OccurredAt))
	w.PutUUID(e.BookingID)
	w.PutUint64(uint64(e.RoomNumber))
	return w.Bytes(), nil
}

func (e CustomerCreatedEvent) Encode() ([]byte, error) {
	w := eventcodec.NewWriter()
	w.PutUint64(uint64(e.OccurredAt))
	w.PutUUID(e.CustomerID)
	w.PutUint64(uint64(e.CustomerNo))
	w.PutString(e.FirstName)
	w.PutString(e.LastName)
	w.PutUint64(uint64(e.BirthdayUnix))
	return w.Bytes(), nil
}

func (e CustomerUpdatedEvent) Encode() ([]byte, error) {
	w := eventcodec.NewWriter()
	w.PutUint64(uint64(e.OccurredAt))
	w.PutUUID(e.CustomerID)
	w.PutUint64(uint64(e.CustomerNo))
	w.PutString(e.FirstName)
	w.PutString(e.LastName)
	w.PutUint64(uint64(e.BirthdayUnix))
	w.PutString(e.Address)
	return w.Bytes(), nil
}

func (e BookingPaidEvent) Encode() ([]byte, error) {
	w := eventcodec.NewWriter()
	w.PutUint64(uint64(e.OccurredAt))
	w.PutUUID(e.BookingID)
	w.PutUint64(uint64(e.RoomNumber))
	w.PutString(e.PaymentOption)
	return w.Bytes(), nil
}

func (e RoomCreatedEvent) Encode() ([]byte, error) {
	w := eventcodec.NewWriter()
	w.PutUint64(uint64(e.OccurredAt))
	w.PutUint64(uint64(e.RoomNumber))
	w.PutString(e.RoomName)
	w.PutString(e.Description)
	w.PutFloat64(e.Price)
	return w.Bytes(), nil
}

func (e RoomUpdatedEvent) Encode() ([]byte, error) {
	w := eventcodec.NewWriter()
	w.PutUint64(uint64(e.OccurredAt))
	w.PutUint64(uint64(e.RoomNumber))
	w.PutString(e.RoomName)
	w.PutString(e.Description)
	w.PutFloat64(e.Price)
	return w.Bytes(), nil
}

// Descriptor implementations: one eventcodec.Descriptor per event type,
// each the sole place that knows how to read back what its Encode wrote.

type roomBookedDescriptor struct{}

func (roomBookedDescriptor) Deserialize(body []byte) (eventcodec.Event, error) {
	r := eventcodec.NewReader(body)
	occurredAt, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	roomID, err := r.UUID()
	if err != nil {
		return nil, err
	}
	customerID, err := r.UUID()
	if err != nil {
		return nil, err
	}
	e := RoomBookedEvent{OccurredAt: int64(occurredAt)}
	e.RoomID = roomID
	e.CustomerID = customerID
	return e, nil
}

// RoomBookedDescriptor is the registered descriptor for RoomBooked.
var RoomBookedDescriptor eventcodec.Descriptor = roomBookedDescriptor{}

type bookingCancelledDescriptor struct{}

func (bookingCancelledDescriptor) Deserialize(body []byte) (eventcodec.Event, error) {
	r := eventcodec.NewReader(body)
	occurredAt, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	bookingID, err := r.UUID()
	if err != nil {
		return nil, err
	}
	roomNumber, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	e := BookingCancelledEvent{OccurredAt: int64(occurredAt), RoomNumber: int64(roomNumber)}
	e.BookingID = bookingID
	return e, nil
}

// BookingCancelledDescriptor is the registered descriptor for BookingCancelled.
var BookingCancelledDescriptor eventcodec.Descriptor = bookingCancelledDescriptor{}

type customerCreatedDescriptor struct{}

func (customerCreatedDescriptor) Deserialize(body []byte) (eventcodec.Event, error) {
	r := eventcodec.NewReader(body)
	occurredAt, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	customerID, err := r.UUID()
	if err != nil {
		return nil, err
	}
	customerNo, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	firstName, err := r.String()
	if err != nil {
		return nil, err
	}
	lastName, err := r.String()
	if err != nil {
		return nil, err
	}
	birthday, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	e := CustomerCreatedEvent{
		OccurredAt:   int64(occurredAt),
		CustomerNo:   int64(customerNo),
		FirstName:    firstName,
		LastName:     lastName,
		BirthdayUnix: int64(birthday),
	}
	e.CustomerID = customerID
	return e, nil
}

// CustomerCreatedDescriptor is the registered descriptor for CustomerCreated.
var CustomerCreatedDescriptor eventcodec.Descriptor = customerCreatedDescriptor{}

type customerUpdatedDescriptor struct{}

func (customerUpdatedDescriptor) Deserialize(body []byte) (eventcodec.Event, error) {
	r := eventcodec.NewReader(body)
	occurredAt, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	customerID, err := r.UUID()
	if err != nil {
		return nil, err
	}
	customerNo, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	firstName, err := r.String()
	if err != nil {
		return nil, err
	}
	lastName, err := r.String()
	if err != nil {
		return nil, err
	}
	birthday, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	address, err := r.String()
	if err != nil {
		return nil, err
	}
	e := CustomerUpdatedEvent{
		OccurredAt:   int64(occurredAt),
		CustomerNo:   int64(customerNo),
		FirstName:    firstName,
		LastName:     lastName,
		BirthdayUnix: int64(birthday),
		Address:      address,
	}
	e.CustomerID = customerID
	return e, nil
}

// CustomerUpdatedDescriptor is the registered descriptor for CustomerUpdated.
var CustomerUpdatedDescriptor eventcodec.Descriptor = customerUpdatedDescriptor{}

type bookingPaidDescriptor struct{}

func (bookingPaidDescriptor) Deserialize(body []byte) (eventcodec.Event, error) {
	r := eventcodec.NewReader(body)
	occurredAt, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	bookingID, err := r.UUID()
	if err != nil {
		return nil, err
	}
	roomNumber, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	paymentOption, err := r.String()
	if err != nil {
		return nil, err
	}
	e := BookingPaidEvent{
		OccurredAt:    int64(occurredAt),
		RoomNumber:    int64(roomNumber),
		PaymentOption: paymentOption,
	}
	e.BookingID = bookingID
	return e, nil
}

// BookingPaidDescriptor is the registered descriptor for BookingPaid.
var BookingPaidDescriptor eventcodec.Descriptor = bookingPaidDescriptor{}

type roomCreatedDescriptor struct{}

func (roomCreatedDescriptor) Deserialize(body []byte) (eventcodec.Event, error) {
	r := eventcodec.NewReader(body)
	occurredAt, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	roomNumber, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	roomName, err := r.String()
	if err != nil {
		return nil, err
	}
	description, err := r.String()
	if err != nil {
		return nil, err
	}
	price, err := r.Float64()
	if err != nil {
		return nil, err
	}
	return RoomCreatedEvent{
		OccurredAt:  int64(occurredAt),
		RoomNumber:  int64(roomNumber),
		RoomName:    roomName,
		Description: description,
		Price:       price,
	}, nil
}

// RoomCreatedDescriptor is the registered descriptor for RoomCreated.
var RoomCreatedDescriptor eventcodec.Descriptor = roomCreatedDescriptor{}

type roomUpdatedDescriptor struct{}

func (roomUpdatedDescriptor) Deserialize(body []byte) (eventcodec.Event, error) {
	r := eventcodec.NewReader(body)
	occurredAt, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	roomNumber, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	roomName, err := r.String()
	if err != nil {
		return nil, err
	}
	description, err := r.String()
	if err != nil {
		return nil, err
	}
	price, err := r.Float64()
	if err != nil {
		return nil, err
	}
	return RoomUpdatedEvent{
		OccurredAt:  int64(occurredAt),
		RoomNumber:  int64(roomNumber),
		RoomName:    roomName,
		Description: description,
		Price:       price,
	}, nil
}

// RoomUpdatedDescriptor is the registered descriptor for RoomUpdated.
var RoomUpdatedDescriptor eventcodec.Descriptor = roomUpdatedDescriptor{}
