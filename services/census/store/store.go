// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists the substring index and builds it on demand.
//
// A Store is created once at process start around one Backend. Callers use
// EnsureReady to get an index (loading it, or building and saving it when
// nothing is persisted) and Reindex to force a wholesale rebuild.
//
// # Error Model
//
// I/O failures surface as *IOError (errors.Is ErrIO). Persisted content
// that cannot be decoded surfaces as *FormatError (errors.Is ErrFormat).
// The store never recovers from either; the caller decides.
//
// # Thread Safety
//
// Store methods are safe for concurrent use within one process. Concurrent
// EnsureReady calls share a single load-or-build. Writers are serialized.
// No locking is done across processes.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/menagerie/pkg/telemetry"
	"github.com/AleutianAI/menagerie/services/census/hierarchy"
	"github.com/AleutianAI/menagerie/services/census/index"
	kv "github.com/AleutianAI/menagerie/services/census/storage/badger"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

const tracerName = "menagerie.store"

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Backend reads and writes one persisted index.
type Backend interface {
	// Save overwrites any persisted index with idx.
	Save(ctx context.Context, idx *index.SubstringIndex) error

	// Load returns the persisted index. ok is false when nothing has been
	// saved yet.
	Load(ctx context.Context) (idx *index.SubstringIndex, ok bool, err error)

	// Name identifies the backend kind ("file", "badger").
	Name() string

	// Location is the file or directory the backend writes to.
	Location() string

	// Close releases backend resources.
	Close() error
}

// MetaReader is implemented by backends that persist build metadata.
type MetaReader interface {
	Meta(ctx context.Context) (Meta, bool, error)
}

// Config selects and locates the backend.
type Config struct {
	// Backend is "file" (default) or "badger".
	Backend string

	// Path is the index file (file backend) or database directory (badger).
	Path string

	// InMemory opens badger without touching disk. Ignored by the file backend.
	InMemory bool
}

// OpenBackend constructs the backend named by cfg.
func OpenBackend(cfg Config, logger *slog.Logger) (Backend, error) {
	switch cfg.Backend {
	case "", BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file backend: %w", kv.ErrPathRequired)
		}
		return NewFileBackend(cfg.Path), nil
	case BackendBadger:
		bcfg := kv.DefaultConfig(cfg.Path)
		if cfg.InMemory {
			bcfg = kv.InMemoryConfig()
		}
		bcfg.Logger = logger
		db, err := kv.Open(bcfg)
		if err != nil {
			return nil, &IOError{Op: "open", Path: cfg.Path, Err: err}
		}
		return NewBadgerBackend(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBuildOptions passes options to every index build.
func WithBuildOptions(opts ...index.BuildOption) Option {
	return func(s *Store) {
		s.buildOpts = append(s.buildOpts, opts...)
	}
}

// Store couples a Backend with on-demand builds.
type Store struct {
	backend   Backend
	logger    *slog.Logger
	buildOpts []index.BuildOption

	group   singleflight.Group
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

// New returns a Store over backend. The store owns backend.
func New(backend Backend, opts ...Option) *Store {
	return newStore(opts).attach(backend)
}

// Open opens the configured backend and wraps it in a Store.
func Open(cfg Config, opts ...Option) (*Store, error) {
	s := newStore(opts)
	backend, err := OpenBackend(cfg, s.logger)
	if err != nil {
		return nil, err
	}
	return s.attach(backend), nil
}

func newStore(opts []Option) *Store {
	s := &Store{
		logger: slog.Default(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) attach(backend Backend) *Store {
	s.backend = backend
	s.logger = s.logger.With(
		slog.String("component", "census.store"),
		slog.String("backend", backend.Name()),
	)
	return s
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Load returns the persisted index without building.
func (s *Store) Load(ctx context.Context) (*index.SubstringIndex, bool, error) {
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}
	return s.load(ctx)
}

// EnsureReady returns the persisted index, building and saving it from
// countries when nothing is persisted.
//
// Description:
//
//	Loads from the backend. When the backend reports no persisted index,
//	builds one from countries, saves it and returns it. Concurrent calls
//	share one load-or-build; the first caller's ctx and countries win.
//	Staleness is not detected: a persisted index is returned even if
//	countries has changed since it was built.
//
// Outputs:
//
//	*index.SubstringIndex - The ready index. Never nil when error is nil.
//	error - *IOError or *FormatError from the backend, or ctx errors.
//
// Thread Safety: Safe for concurrent use.
func (s *Store) EnsureReady(ctx context.Context, countries []hierarchy.Country) (*index.SubstringIndex, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	v, err, shared := s.group.Do("ensure-ready", func() (interface{}, error) {
		idx, ok, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return idx, nil
		}
		s.logger.Info("no persisted index, building")
		return s.rebuild(ctx, countries, "missing")
	})
	if shared {
		ensureReadyShared.Inc()
	}
	if err != nil {
		return nil, err
	}
	return v.(*index.SubstringIndex), nil
}

// Reindex builds a fresh index from countries and saves it unconditionally.
func (s *Store) Reindex(ctx context.Context, countries []hierarchy.Country) (*index.SubstringIndex, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.rebuild(ctx, countries, "reindex")
}

// Meta returns build metadata when the backend records it.
func (s *Store) Meta(ctx context.Context) (Meta, bool, error) {
	if err := s.checkOpen(); err != nil {
		return Meta{}, false, err
	}
	mr, ok := s.backend.(MetaReader)
	if !ok {
		return Meta{}, false, nil
	}
	return mr.Meta(ctx)
}

// Close closes the backend. Other methods return ErrClosed afterwards.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		s.closeErr = s.backend.Close()
	})
	return s.closeErr
}

func (s *Store) checkOpen() error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
		return nil
	}
}

func (s *Store) load(ctx context.Context) (*index.SubstringIndex, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Store.Load",
		attribute.String("census.backend", s.backend.Name()))
	defer span.End()

	start := time.Now()
	idx, ok, err := s.backend.Load(ctx)
	storeOpDuration.WithLabelValues(s.backend.Name(), "load").Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Bool("index.present", ok))

	switch {
	case err != nil:
		telemetry.RecordError(span, err)
		storeOpsTotal.WithLabelValues(s.backend.Name(), "load", resultError).Inc()
		s.logger.Error("index load failed", slog.String("error", err.Error()))
	case !ok:
		storeOpsTotal.WithLabelValues(s.backend.Name(), "load", resultAbsent).Inc()
	default:
		storeOpsTotal.WithLabelValues(s.backend.Name(), "load", resultOK).Inc()
		s.logger.Debug("index loaded",
			slog.Int("keys", idx.Len()),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return idx, ok, err
}

func (s *Store) rebuild(ctx context.Context, countries []hierarchy.Country, trigger string) (*index.SubstringIndex, error) {
	idx, err := index.Build(ctx, countries, append([]index.BuildOption{index.WithLogger(s.logger)}, s.buildOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	rebuildsTotal.WithLabelValues(trigger).Inc()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, tracerName, "Store.Save",
		attribute.String("census.backend", s.backend.Name()),
		attribute.String("census.trigger", trigger))
	defer span.End()

	start := time.Now()
	err = s.backend.Save(ctx, idx)
	storeOpDuration.WithLabelValues(s.backend.Name(), "save").Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.RecordError(span, err)
		storeOpsTotal.WithLabelValues(s.backend.Name(), "save", resultError).Inc()
		s.logger.Error("index save failed", slog.String("error", err.Error()))
		return nil, err
	}
	storeOpsTotal.WithLabelValues(s.backend.Name(), "save", resultOK).Inc()

	stats := idx.Stats()
	s.logger.Info("index saved",
		slog.String("trigger", trigger),
		slog.String("location", s.backend.Location()),
		slog.Int("keys", stats.Keys),
		slog.Int("entries", stats.Entries),
		slog.Duration("duration", time.Since(start)),
	)
	return idx, nil
}
