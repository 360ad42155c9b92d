// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch rebuilds the census index when the dataset file changes.
//
// The dataset's parent directory is watched rather than the file itself,
// because editors and atomic writers replace files by rename and a watch on
// the old inode would go silent. Events for other names in the directory
// are ignored. Bursts of events are collapsed by a debounce window, and
// each reload reindexes wholesale.
//
// # Thread Safety
//
// Run processes events on one goroutine, so rebuilds never overlap.
// Current and Countries may be called from any goroutine.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/menagerie/services/census/hierarchy"
	"github.com/AleutianAI/menagerie/services/census/index"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 250 * time.Millisecond

var reloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "census_watch_reloads_total",
	Help: "Dataset reloads triggered by file changes, by result",
}, []string{"result"}) // "ok", "load_error", "reindex_error"

// Reindexer rebuilds and persists the index. *store.Store satisfies it.
type Reindexer interface {
	Reindex(ctx context.Context, countries []hierarchy.Country) (*index.SubstringIndex, error)
}

// ReloadFunc is told the outcome of every reload. idx is nil when err is not.
type ReloadFunc func(idx *index.SubstringIndex, err error)

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period after the last event before reloading.
	Debounce time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OnReload, if set, is called after each reload attempt.
	OnReload ReloadFunc

	// Load reads the dataset. Defaults to hierarchy.LoadFile.
	Load func(path string) ([]hierarchy.Country, error)

	// MinInterval is the minimum spacing between reloads started by Run.
	// Zero means unlimited.
	MinInterval time.Duration
}

// Watcher reindexes on dataset changes.
type Watcher struct {
	path      string
	base      string
	fsw       *fsnotify.Watcher
	reindexer Reindexer
	debounce  time.Duration
	logger    *slog.Logger
	onReload  ReloadFunc
	load      func(string) ([]hierarchy.Country, error)
	limiter   *rate.Limiter

	current   atomic.Pointer[index.SubstringIndex]
	countries atomic.Pointer[[]hierarchy.Country]
}

// New prepares a watcher for the dataset at path. Nothing is watched until
// Run is called.
func New(path string, reindexer Reindexer, opts Options) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watch: dataset path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch: add %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:      abs,
		base:      filepath.Base(abs),
		fsw:       fsw,
		reindexer: reindexer,
		debounce:  opts.Debounce,
		logger:    opts.Logger,
		onReload:  opts.OnReload,
		load:      opts.Load,
		limiter:   rate.NewLimiter(rate.Inf, 1),
	}
	if opts.MinInterval > 0 {
		w.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.logger = w.logger.With(slog.String("component", "census.watch"), slog.String("dataset", abs))
	if w.load == nil {
		w.load = hierarchy.LoadFile
	}
	return w, nil
}

// Seed sets the index and dataset reported before the first reload.
func (w *Watcher) Seed(idx *index.SubstringIndex, countries []hierarchy.Country) {
	w.current.Store(idx)
	w.countries.Store(&countries)
}

// Current returns the most recently built index, or nil.
func (w *Watcher) Current() *index.SubstringIndex {
	return w.current.Load()
}

// Countries returns the dataset the current index was built from.
func (w *Watcher) Countries() []hierarchy.Country {
	if p := w.countries.Load(); p != nil {
		return *p
	}
	return nil
}

// Run watches until ctx is cancelled, then closes the watcher.
// It returns nil on cancellation and an error if the watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.logger.Info("watching dataset", slog.Duration("debounce", w.debounce))
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != w.base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("dataset event", slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if err := w.limiter.Wait(ctx); err != nil {
				return nil
			}
			w.Reload(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// Reload reads the dataset and reindexes it. A dataset that fails to load
// leaves the current index in place.
func (w *Watcher) Reload(ctx context.Context) {
	countries, err := w.load(w.path)
	if err != nil {
		reloadsTotal.WithLabelValues("load_error").Inc()
		w.logger.Warn("dataset reload failed, keeping current index", slog.String("error", err.Error()))
		w.notify(nil, err)
		return
	}

	idx, err := w.reindexer.Reindex(ctx, countries)
	if err != nil {
		reloadsTotal.WithLabelValues("reindex_error").Inc()
		w.logger.Error("reindex failed", slog.String("error", err.Error()))
		w.notify(nil, err)
		return
	}

	w.current.Store(idx)
	w.countries.Store(&countries)
	reloadsTotal.WithLabelValues("ok").Inc()
	w.logger.Info("dataset reindexed", slog.Int("keys", idx.Len()))
	w.notify(idx, nil)
}

func (w *Watcher) notify(idx *index.SubstringIndex, err error) {
	if w.onReload != nil {
		w.onReload(idx, err)
	}
}
