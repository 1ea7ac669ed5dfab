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

// package main is the entrypoint for the event bus broker.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fhv-hotel/eventbus/pkg/broker"
	"github.com/fhv-hotel/eventbus/pkg/config"
	"github.com/fhv-hotel/eventbus/pkg/eventlog"
	"github.com/fhv-hotel/eventbus/pkg/metrics"
	"github.com/fhv-hotel/eventbus/pkg/publisher"
	"github.com/fhv-hotel/eventbus/pkg/registry"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	log.Printf("starting event bus broker %s", cfg.Broker.NodeID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evlog, err := newEventLog(cfg)
	if err != nil {
		log.Fatalf("failed to initialize event log: %v", err)
	}

	reg := registry.New()
	pub := publisher.New(reg)
	b := broker.New(ctx, reg, evlog, pub, cfg.Broker.WorkerPoolSize)

	go func() {
		if err := b.ListenAndServe(ctx, cfg.Broker.ListenAddr); err != nil {
			log.Fatalf("broker listener failed: %v", err)
		}
	}()

	go metrics.Serve(cfg.Broker.MetricsAddr)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	<-shutdownChan

	log.Println("shutdown signal received, shutting down")
}

func newEventLog(cfg *config.Config) (eventlog.Log, error) {
	switch cfg.Broker.LogBackend {
	case config.LogBackendPostgres:
		return eventlog.NewPostgresLog(cfg.Broker.Postgres)
	default:
		return eventlog.NewMemoryLog(), nil
	}
}
