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

// package main is an example producer: it books a room and settles its
// payment, publishing both events to the broker.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/fhv-hotel/eventbus/pkg/client"
	"github.com/fhv-hotel/eventbus/pkg/eventcodec"
	"github.com/fhv-hotel/eventbus/pkg/events"
	"github.com/google/uuid"
)

func main() {
	addr := flag.String("broker", "127.0.0.1:5672", "broker address")
	flag.Parse()

	// A producer registers no handlers of its own, but still needs a codec
	// registry to compute the (empty) REGISTER_CONSUMERS payload.
	codecs := eventcodec.New()
	c := client.New(codecs, false)
	c.Connect(*addr)

	roomID := uuid.New()
	customerID := uuid.New()
	bookingID := uuid.New()

	if err := c.Publish(byte(events.RoomBooked), events.RoomBookedEvent{
		OccurredAt: time.Now().UnixNano(),
		RoomID:     roomID,
		CustomerID: customerID,
	}); err != nil {
		log.Fatalf("failed to publish RoomBooked: %v", err)
	}

	if err := c.Publish(byte(events.BookingPaid), events.BookingPaidEvent{
		OccurredAt:    time.Now().UnixNano(),
		BookingID:     bookingID,
		RoomNumber:    101,
		PaymentOption: "credit_card",
	}); err != nil {
		log.Fatalf("failed to publish BookingPaid: %v", err)
	}

	log.Println("published RoomBooked and BookingPaid")
	time.Sleep(500 * time.Millisecond)
}
