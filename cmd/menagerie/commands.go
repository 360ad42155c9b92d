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
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AleutianAI/menagerie/services/census/api"
	"github.com/AleutianAI/menagerie/services/census/hierarchy"
	"github.com/AleutianAI/menagerie/services/census/index"
	"github.com/AleutianAI/menagerie/services/census/query"
	"github.com/AleutianAI/menagerie/services/census/store"
	"github.com/AleutianAI/menagerie/services/census/watch"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// errNoDataset is returned by watch when the built-in seed is in use.
var errNoDataset = errors.New("watch needs a dataset file: set dataset in menagerie.yaml or pass --dataset")

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "menagerie",
		Short: "Substring search over a country, person and animal census",
		Long: `menagerie answers "which animals have a name containing X?" from a
persistent substring index, grouped back into the country and person
hierarchy they belong to.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.flags.configPath, "config", "", "config file (default ~/.menagerie/menagerie.yaml)")
	f.StringVar(&a.flags.dataset, "dataset", "", "dataset file, JSON or YAML (default built-in seed)")
	f.StringVar(&a.flags.backend, "backend", "", "index backend: file or badger")
	f.StringVar(&a.flags.indexPath, "index-path", "", "index file or badger directory")
	f.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newFilterCmd(a),
		newCountCmd(a),
		newIndexCmd(a),
		newReindexCmd(a),
		newStatusCmd(a),
		newKeysCmd(a),
		newWatchCmd(a),
	)
	return root
}

func newFilterCmd(a *app) *cobra.Command {
	var fallback bool
	cmd := &cobra.Command{
		Use:   "filter <pattern>",
		Short: "List animals whose name contains pattern, case-insensitively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pattern string
			if len(args) == 1 {
				pattern = args[0]
			}
			return a.runFilter(cmd.Context(), pattern, fallback)
		},
	}
	cmd.Flags().BoolVar(&fallback, "fallback", true, "scan the dataset when the index cannot be loaded or built")
	return cmd
}

func (a *app) runFilter(ctx context.Context, pattern string, fallback bool) error {
	if err := query.ValidatePattern(pattern); err != nil {
		fmt.Fprintln(a.stdout, msgPatternMissing)
		return nil
	}
	countries, err := a.dataset()
	if err != nil {
		return err
	}

	var (
		res query.Result
		ok  bool
	)
	idx, err := a.ensureIndex(ctx, countries)
	switch {
	case err == nil:
		res, ok = query.Query(pattern, idx)
	case fallback && !errors.Is(err, context.Canceled):
		a.logger.Warn("index unavailable, scanning dataset", slog.String("error", err.Error()))
		res, ok = query.FilterData(pattern, countries)
	default:
		return err
	}

	if !ok {
		fmt.Fprintln(a.stdout, msgNoMatch)
		return nil
	}
	return printJSON(a.stdout, res)
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the dataset with child counts appended to names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			countries, err := a.dataset()
			if err != nil {
				return err
			}
			counted := hierarchy.CountChildren(countries)
			if counted == nil {
				return nil
			}
			return printJSON(a.stdout, counted)
		},
	}
}

// indexSummary is printed by index, reindex and status.
type indexSummary struct {
	Backend  string      `json:"backend"`
	Location string      `json:"location"`
	Present  bool        `json:"present"`
	Keys     int         `json:"keys"`
	Entries  int         `json:"entries"`
	Build    *store.Meta `json:"build,omitempty"`
}

func (a *app) summarize(ctx context.Context, s *store.Store, idx *index.SubstringIndex, present bool) (indexSummary, error) {
	sum := indexSummary{
		Backend:  s.Backend().Name(),
		Location: s.Backend().Location(),
		Present:  present,
	}
	if idx != nil {
		st := idx.Stats()
		sum.Keys, sum.Entries = st.Keys, st.Entries
	}
	meta, ok, err := s.Meta(ctx)
	if err != nil {
		return indexSummary{}, err
	}
	if ok {
		sum.Build = &meta
	}
	return sum, nil
}

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build and save the index if it is not already present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			countries, err := a.dataset()
			if err != nil {
				return err
			}
			s, err := a.openStore(progressOption(a.stderr)...)
			if err != nil {
				return err
			}
			idx, err := s.EnsureReady(cmd.Context(), countries)
			if err != nil {
				return err
			}
			sum, err := a.summarize(cmd.Context(), s, idx, true)
			if err != nil {
				return err
			}
			return printJSON(a.stdout, sum)
		},
	}
}

func newReindexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the index from the dataset and overwrite the saved copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			countries, err := a.dataset()
			if err != nil {
				return err
			}
			s, err := a.openStore(progressOption(a.stderr)...)
			if err != nil {
				return err
			}
			idx, err := s.Reindex(cmd.Context(), countries)
			if err != nil {
				return err
			}
			sum, err := a.summarize(cmd.Context(), s, idx, true)
			if err != nil {
				return err
			}
			return printJSON(a.stdout, sum)
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Describe the saved index without building it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			idx, present, err := s.Load(cmd.Context())
			if err != nil {
				return err
			}
			sum, err := a.summarize(cmd.Context(), s, idx, present)
			if err != nil {
				return err
			}
			return printJSON(a.stdout, sum)
		},
	}
}

func newKeysCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "keys [prefix]",
		Short: "List index keys in sorted order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prefix string
			if len(args) == 1 {
				prefix = strings.ToLower(args[0])
			}
			countries, err := a.dataset()
			if err != nil {
				return err
			}
			idx, err := a.ensureIndex(cmd.Context(), countries)
			if err != nil {
				return err
			}
			n := 0
			for _, k := range idx.Keys() {
				if !strings.HasPrefix(k, prefix) {
					continue
				}
				if limit > 0 && n == limit {
					break
				}
				fmt.Fprintf(a.stdout, "%s\t%d\n", k, len(idx.Lookup(k)))
				n++
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many keys (0 for all)")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reindex when the dataset file changes and serve queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runWatch(ctx)
		},
	}
}

func (a *app) runWatch(ctx context.Context) error {
	path := a.cfg.DatasetPath()
	if path == "" {
		return errNoDataset
	}
	countries, err := a.dataset()
	if err != nil {
		return err
	}
	s, err := a.openStore()
	if err != nil {
		return err
	}
	idx, err := s.EnsureReady(ctx, countries)
	if err != nil {
		return err
	}

	w, err := watch.New(path, s, watch.Options{
		Debounce:    a.cfg.Watch.Debounce,
		MinInterval: a.cfg.Watch.MinInterval,
		Logger:      a.logger.Slog(),
	})
	if err != nil {
		return err
	}
	w.Seed(idx, countries)

	var srv *http.Server
	if addr := a.cfg.Watch.MetricsAddr; addr != "" {
		router := gin.New()
		router.Use(gin.Recovery(), otelgin.Middleware("menagerie"))
		api.SetupRoutes(router, w)
		srv = &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.logger.Info("serving census api", slog.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("census api stopped", slog.String("error", err.Error()))
			}
		}()
	}

	runErr := w.Run(ctx)
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("census api shutdown", slog.String("error", err.Error()))
		}
	}
	return runErr
}

// ensureIndex opens the store and returns the saved index, building it
// first when absent.
func (a *app) ensureIndex(ctx context.Context, countries []hierarchy.Country) (*index.SubstringIndex, error) {
	s, err := a.openStore(progressOption(a.stderr)...)
	if err != nil {
		return nil, err
	}
	return s.EnsureReady(ctx, countries)
}
