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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".menagerie", "menagerie.yaml")

	cfg, created, err := Load(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, DefaultConfig(), cfg)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk MenagerieConfig
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	assert.Equal(t, "file", onDisk.Index.Backend)
	assert.Equal(t, 250*time.Millisecond, onDisk.Watch.Debounce)

	_, created, err = Load(path)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menagerie.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset: /data/zoo.yaml
index:
  backend: badger
  path: /var/lib/menagerie
log:
  level: debug
watch:
  debounce: 2s
`), 0o600))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/zoo.yaml", cfg.DatasetPath())
	assert.Equal(t, "badger", cfg.Index.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter, "unset keys keep defaults")

	p, err := cfg.IndexPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/menagerie", p)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menagerie.yaml")
	t.Setenv(EnvIndexBackend, "badger")
	t.Setenv(EnvIndexPath, "/tmp/idx")
	t.Setenv(EnvDataset, "/tmp/zoo.json")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Index.Backend)
	assert.Equal(t, "/tmp/idx", cfg.Index.Path)
	assert.Equal(t, "/tmp/zoo.json", cfg.Dataset)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown backend":      "index:\n  backend: sqlite\n",
		"unknown level":        "log:\n  level: loud\n",
		"unknown trace export": "telemetry:\n  trace_exporter: zipkin\n",
		"otlp needs endpoint":  "telemetry:\n  trace_exporter: otlp\n",
		"negative debounce":    "watch:\n  debounce: -1s\n",
		"bad metrics addr":     "watch:\n  metrics_addr: nope\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "menagerie.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			_, _, err := Load(path)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "menagerie.yaml")
		require.NoError(t, os.WriteFile(path, []byte("index: [\n"), 0o600))
		_, _, err := Load(path)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestIndexPath_Defaults(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultConfig()
	p, err := cfg.IndexPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".menagerie", "index.json"), p)

	cfg.Index.Backend = "badger"
	p, err = cfg.IndexPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".menagerie", "index.badger"), p)

	cfg.Index.Path = "~/elsewhere"
	p, err = cfg.IndexPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "elsewhere"), p)
}
