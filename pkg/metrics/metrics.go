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

// Package metrics provides Prometheus metrics for the event bus broker.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsTotal counts TCP connections accepted by the broker.
	ConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventbus_connections_total",
		Help: "The total number of connections accepted by the broker.",
	})

	// FramesReceivedTotal counts frames parsed off the wire, by type.
	FramesReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventbus_frames_received_total",
		Help: "The total number of frames received, labeled by frame type.",
	}, []string{"frame_type"})

	// EventsAppendedTotal counts events successfully appended to the log.
	EventsAppendedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventbus_events_appended_total",
		Help: "The total number of events appended to the log, labeled by event type identifier.",
	}, []string{"type_id"})

	// EventsAppendFailuresTotal counts append failures.
	EventsAppendFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventbus_events_append_failures_total",
		Help: "The total number of failed log appends, labeled by event type identifier.",
	}, []string{"type_id"})

	// ConsumeFramesSentTotal counts CONSUME frames fanned out to subscribers.
	ConsumeFramesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventbus_consume_frames_sent_total",
		Help: "The total number of CONSUME frames written to subscriber sockets.",
	}, []string{"type_id"})

	// ReplayEventsSentTotal counts CONSUME frames sent as part of a replay.
	ReplayEventsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventbus_replay_events_sent_total",
		Help: "The total number of CONSUME frames sent during replay, labeled by event type identifier.",
	}, []string{"type_id"})

	// SupervisorRestartsTotal counts supervised actor restarts.
	SupervisorRestartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventbus_supervisor_restarts_total",
		Help: "The total number of times a supervised actor has been restarted.",
	},
		[]string{"actor_id"},
	)
)

// Serve starts an HTTP server to expose the Prometheus metrics.
func Serve(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	log.Printf("Metrics server listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		logFatalf("Metrics server failed: %v", err)
	}
}

// logFatalf can be replaced by tests to prevent process exit.
var logFatalf = log.Fatalf
