// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"time"
)

// MenagerieConfig is the on-disk menagerie.yaml.
type MenagerieConfig struct {
	// Dataset is a JSON or YAML dataset file. Empty uses the built-in seed.
	Dataset string `yaml:"dataset"`

	Index     IndexConfig     `yaml:"index"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Watch     WatchConfig     `yaml:"watch"`
}

// IndexConfig selects where the substring index is persisted.
type IndexConfig struct {
	// Backend is "file" or "badger".
	Backend string `yaml:"backend" validate:"required,oneof=file badger"`

	// Path is the index file or badger directory. Empty derives it from
	// the backend under ~/.menagerie.
	Path string `yaml:"path,omitempty"`
}

// LogConfig configures pkg/logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dir   string `yaml:"dir,omitempty"`
	JSON  bool   `yaml:"json"`
}

// TelemetryConfig configures pkg/telemetry.
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"omitempty,oneof=none stdout otlp"`
	MetricExporter string `yaml:"metric_exporter" validate:"omitempty,oneof=none stdout prometheus"`
	OTLPEndpoint   string `yaml:"otlp_endpoint,omitempty" validate:"required_if=TraceExporter otlp"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce    time.Duration `yaml:"debounce" validate:"gte=0"`
	MinInterval time.Duration `yaml:"min_interval" validate:"gte=0"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty" validate:"omitempty,hostname_port"`
}

// DefaultConfig returns the config written on first run.
func DefaultConfig() MenagerieConfig {
	return MenagerieConfig{
		Index: IndexConfig{Backend: "file"},
		Log:   LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
		},
		Watch: WatchConfig{
			Debounce:    250 * time.Millisecond,
			MinInterval: time.Second,
			MetricsAddr: "127.0.0.1:9464",
		},
	}
}
