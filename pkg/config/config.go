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

// Package config provides configuration management for the event bus
// broker: listen address, metrics address, replay defaults and event log
// backend selection.
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"path/filepath"
	"strings"

	"github.com/fhv-hotel/eventbus/pkg/eventlog"
	"gopkg.in/yaml.v2"
)

// LogBackend selects the Log implementation the broker appends to and
// replays from.
type LogBackend string

const (
	// LogBackendMemory keeps the event log in process memory. Events do not
	// survive a broker restart.
	LogBackendMemory LogBackend = "memory"
	// LogBackendPostgres persists the event log in a Postgres table.
	LogBackendPostgres LogBackend = "postgres"
)

// BrokerConfig represents the overall broker configuration.
type BrokerConfig struct {
	// NodeID identifies this broker instance in its startup log line.
	NodeID string `yaml:"node_id" json:"node_id"`
	// ListenAddr is the TCP address the broker accepts consumer and
	// publisher connections on.
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	// MetricsAddr is the HTTP address the Prometheus /metrics endpoint is
	// served on.
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
	// ReplayDefault records the broker's default replay posture. The broker
	// does not read it: replay is decided by each REGISTER_CONSUMERS frame's
	// flag alone.
	ReplayDefault bool `yaml:"replay_default" json:"replay_default"`
	// WorkerPoolSize sets the number of goroutines in the single pool shared
	// by every connection the broker accepts. Each connection serializes its
	// own submissions to this pool so frame order on one socket is preserved
	// no matter how many workers are running.
	WorkerPoolSize int `yaml:"worker_pool_size" json:"worker_pool_size"`
	// LogBackend selects which Log implementation the broker uses.
	LogBackend LogBackend `yaml:"log_backend" json:"log_backend"`
	// Postgres configures the durable log backend. Ignored unless
	// LogBackend is LogBackendPostgres.
	Postgres eventlog.PostgresConfig `yaml:"postgres" json:"postgres"`
}

// Config holds the complete configuration.
type Config struct {
	Broker BrokerConfig `yaml:"broker" json:"broker"`
}

// DefaultConfig returns a default configuration: broker listening on the
// event bus's conventional port, metrics on 8082, replay off unless a
// consumer asks for it, and an in-memory log backend.
func DefaultConfig() *Config {
	return &Config{
		Broker: BrokerConfig{
			NodeID:         "eventbus-node",
			ListenAddr:     ":5672",
			MetricsAddr:    ":8082",
			ReplayDefault:  false,
			WorkerPoolSize: 8,
			LogBackend:     LogBackendMemory,
			Postgres:       eventlog.DefaultPostgresConfig(),
		},
	}
}

// LoadConfig loads configuration from a file. An empty path returns the
// default configuration.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		log.Println("[INFO] No config file specified, using default configuration")
		return DefaultConfig(), nil
	}

	data, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := DefaultConfig()
	ext := strings.ToLower(filepath.Ext(configPath))

	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Printf("[INFO] Configuration loaded from %s", configPath)
	return config, nil
}

// SaveConfig saves configuration to a file.
func SaveConfig(config *Config, configPath string) error {
	var data []byte
	var err error

	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		return fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := ioutil.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configPath, err)
	}

	log.Printf("[INFO] Configuration saved to %s", configPath)
	return nil
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Broker.NodeID == "" {
		return fmt.Errorf("node_id cannot be empty")
	}
	if config.Broker.ListenAddr == "" {
		return fmt.Errorf("listen_addr cannot be empty")
	}
	if config.Broker.WorkerPoolSize < 1 {
		return fmt.Errorf("worker_pool_size must be at least 1")
	}

	switch config.Broker.LogBackend {
	case LogBackendMemory, LogBackendPostgres:
	default:
		return fmt.Errorf("unsupported log_backend: %s (supported: memory, postgres)", config.Broker.LogBackend)
	}

	return nil
}
