// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/AleutianAI/menagerie/cmd/menagerie/config"
	"github.com/AleutianAI/menagerie/pkg/logging"
	"github.com/AleutianAI/menagerie/pkg/telemetry"
	"github.com/AleutianAI/menagerie/services/census/hierarchy"
	"github.com/AleutianAI/menagerie/services/census/index"
	"github.com/AleutianAI/menagerie/services/census/store"
	"github.com/spf13/cobra"
)

// flagValues holds persistent flag values. Empty means "use config".
type flagValues struct {
	configPath string
	dataset    string
	backend    string
	indexPath  string
	logLevel   string
}

// app carries per-invocation state from PersistentPreRunE to the commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  flagValues

	cfg       config.MenagerieConfig
	logger    *logging.Logger
	shutdown  func(context.Context) error
	store     *store.Store
	countries []hierarchy.Country
	loaded    bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

// setup loads config, applies flag overrides, and starts logging and
// telemetry.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.flags.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	cfg, created, err := config.Load(logging.ExpandPath(path))
	if err != nil {
		return err
	}
	if a.flags.dataset != "" {
		cfg.Dataset = a.flags.dataset
	}
	if a.flags.backend != "" {
		cfg.Index.Backend = a.flags.backend
	}
	if a.flags.indexPath != "" {
		cfg.Index.Path = a.flags.indexPath
	}
	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Log.Dir,
		Service: "menagerie",
		JSON:    cfg.Log.JSON,
		Output:  a.stderr,
	})
	slog.SetDefault(a.logger.Slog())
	if created {
		a.logger.Info("first run, created default config", slog.String("path", path))
	}

	tcfg := telemetry.DefaultConfig()
	tcfg.TraceExporter = orDefault(cfg.Telemetry.TraceExporter, tcfg.TraceExporter)
	tcfg.MetricExporter = orDefault(cfg.Telemetry.MetricExporter, tcfg.MetricExporter)
	tcfg.OTLPEndpoint = orDefault(cfg.Telemetry.OTLPEndpoint, tcfg.OTLPEndpoint)
	tcfg.Output = a.stderr
	shutdown, err := telemetry.Init(cmd.Context(), tcfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	a.shutdown = shutdown
	return nil
}

// teardown releases everything setup and the commands acquired.
func (a *app) teardown() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(context.Background()))
		a.shutdown = nil
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
	}
	return errors.Join(errs...)
}

// dataset returns the configured dataset, loading it on first use.
func (a *app) dataset() ([]hierarchy.Country, error) {
	if a.loaded {
		return a.countries, nil
	}
	path := a.cfg.DatasetPath()
	if path == "" {
		a.countries = hierarchy.Seed()
	} else {
		countries, err := hierarchy.LoadFile(path)
		if err != nil {
			return nil, err
		}
		a.countries = countries
	}
	a.loaded = true
	a.logger.Debug("dataset ready",
		slog.String("source", orDefault(path, "seed")),
		slog.Int("countries", len(a.countries)),
	)
	return a.countries, nil
}

// openStore opens the configured index store once per invocation.
func (a *app) openStore(buildOpts ...index.BuildOption) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	path, err := a.cfg.IndexPath()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(
		store.Config{Backend: a.cfg.Index.Backend, Path: path},
		store.WithLogger(a.logger.Slog()),
		store.WithBuildOptions(buildOpts...),
	)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
