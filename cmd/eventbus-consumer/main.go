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

// package main is an example consumer: it registers handlers for
// RoomBooked and BookingPaid, requests replay, and logs every event it
// receives.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fhv-hotel/eventbus/pkg/client"
	"github.com/fhv-hotel/eventbus/pkg/eventcodec"
	"github.com/fhv-hotel/eventbus/pkg/events"
)

func main() {
	addr := flag.String("broker", "127.0.0.1:5672", "broker address")
	replay := flag.Bool("replay", true, "request replay of history on connect")
	flag.Parse()

	codecs := eventcodec.New()
	codecs.Register(byte(events.RoomBooked), events.RoomBookedDescriptor, func(e eventcodec.Event) {
		log.Printf("RoomBooked: %+v", e)
	})
	codecs.Register(byte(events.BookingPaid), events.BookingPaidDescriptor, func(e eventcodec.Event) {
		log.Printf("BookingPaid: %+v", e)
	})

	c := client.New(codecs, *replay)
	c.Connect(*addr)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	<-shutdownChan
	log.Println("shutdown signal received, shutting down")
}
