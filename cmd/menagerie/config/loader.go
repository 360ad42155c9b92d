// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads menagerie.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AleutianAI/menagerie/pkg/logging"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvIndexBackend = "MENAGERIE_INDEX_BACKEND"
	EnvIndexPath    = "MENAGERIE_INDEX_PATH"
	EnvDataset      = "MENAGERIE_DATASET"
)

// ErrInvalidConfig wraps validation failures.
var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

// DefaultPath returns ~/.menagerie/menagerie.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".menagerie", "menagerie.yaml"), nil
}

// Load reads the config at path, creating it with defaults if it does not
// exist. created reports whether the file was just written. Environment
// overrides are applied before validation.
func Load(path string) (cfg MenagerieConfig, created bool, err error) {
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return MenagerieConfig{}, false, err
		}
		created = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return MenagerieConfig{}, created, fmt.Errorf("failed to read the config file: %w", err)
	}

	cfg = DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return MenagerieConfig{}, created, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}

	applyEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return MenagerieConfig{}, created, err
	}
	return cfg, created, nil
}

// Validate checks field constraints.
func Validate(cfg MenagerieConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// IndexPath returns the configured index location with "~" expanded, or
// the backend's default under ~/.menagerie.
func (c MenagerieConfig) IndexPath() (string, error) {
	if c.Index.Path != "" {
		return logging.ExpandPath(c.Index.Path), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	name := "index.json"
	if c.Index.Backend == "badger" {
		name = "index.badger"
	}
	return filepath.Join(home, ".menagerie", name), nil
}

// DatasetPath returns the dataset path with "~" expanded, or "".
func (c MenagerieConfig) DatasetPath() string {
	return logging.ExpandPath(c.Dataset)
}

func applyEnv(cfg *MenagerieConfig) {
	if v := os.Getenv(EnvIndexBackend); v != "" {
		cfg.Index.Backend = v
	}
	if v := os.Getenv(EnvIndexPath); v != "" {
		cfg.Index.Path = v
	}
	if v := os.Getenv(EnvDataset); v != "" {
		cfg.Dataset = v
	}
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o640)
}
