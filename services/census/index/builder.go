// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package index

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/AleutianAI/menagerie/services/census/hierarchy"
	"go.opentelemetry.io/otel/codes"
)

// ProgressFunc is called after each country has been indexed.
type ProgressFunc func(done, total int)

// BuildOptions configures Build.
type BuildOptions struct {
	// Progress, if set, receives per-country progress.
	Progress ProgressFunc

	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger
}

// BuildOption is a functional option for Build.
type BuildOption func(*BuildOptions)

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) BuildOption {
	return func(o *BuildOptions) {
		o.Progress = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *BuildOptions) {
		o.Logger = logger
	}
}

// Build constructs the substring index for countries.
//
// Description:
//
//	Walks the hierarchy in country → person → animal order. For each animal
//	it enumerates every contiguous substring of the lower-cased name (rune
//	boundaries, so multi-byte names are never split) and appends one Entry
//	per distinct substring. A name with repeated substrings, such as
//	"Anaconda" containing "a" three times, is listed once under that key.
//
// Inputs:
//
//	ctx - Context for cancellation. Checked once per country.
//	countries - The dataset. Entries point into this slice.
//	opts - Optional progress and logging.
//
// Outputs:
//
//	*SubstringIndex - Never nil on success. Empty when there are no animals.
//	error - Non-nil only if ctx is cancelled.
//
// Thread Safety: Safe for concurrent use; countries must not be mutated
// while Build runs or while the result is in use.
func Build(ctx context.Context, countries []hierarchy.Country, opts ...BuildOption) (*SubstringIndex, error) {
	options := BuildOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, span := startBuildSpan(ctx, len(countries))
	defer span.End()
	start := time.Now()

	idx := newSubstringIndex(0)
	seen := make(map[string]struct{})

	for ci := range countries {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "build cancelled")
			setBuildSpanResult(span, Stats{}, false)
			recordBuildMetrics(ctx, time.Since(start), Stats{}, false)
			return nil, err
		}

		country := &countries[ci]
		for pi := range country.People {
			person := &country.People[pi]
			for ai := range person.Animals {
				name := person.Animals[ai].Name
				clear(seen)
				for _, sub := range Substrings(name) {
					if _, dup := seen[sub]; dup {
						continue
					}
					seen[sub] = struct{}{}
					idx.entries[sub] = append(idx.entries[sub], Entry{
						AnimalName: name,
						Country:    country,
						Person:     person,
					})
				}
			}
		}

		if options.Progress != nil {
			options.Progress(ci+1, len(countries))
		}
	}

	stats := idx.Stats()
	setBuildSpanResult(span, stats, true)
	recordBuildMetrics(ctx, time.Since(start), stats, true)

	logger.Debug("substring index built",
		slog.Int("countries", len(countries)),
		slog.Int("keys", stats.Keys),
		slog.Int("entries", stats.Entries),
		slog.Duration("duration", time.Since(start)),
	)
	return idx, nil
}

// Substrings returns every contiguous substring of the lower-cased name in
// start-then-length order. Duplicates are included; an empty name yields nil.
func Substrings(name string) []string {
	lower := strings.ToLower(name)
	if lower == "" {
		return nil
	}

	// Byte offsets of each rune start, plus the end of the string.
	bounds := make([]int, 0, len(lower)+1)
	for i := range lower {
		bounds = append(bounds, i)
	}
	bounds = append(bounds, len(lower))

	n := len(bounds) - 1
	out := make([]string, 0, n*(n+1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j <= n; j++ {
			out = append(out, lower[bounds[i]:bounds[j]])
		}
	}
	return out
}
