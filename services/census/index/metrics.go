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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("menagerie.index")
	meter  = otel.Meter("menagerie.index")
)

var (
	buildLatency metric.Float64Histogram
	buildTotal   metric.Int64Counter
	indexKeys    metric.Int64Gauge
	indexEntries metric.Int64Gauge

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"census_index_build_duration_seconds",
			metric.WithDescription("Duration of substring index builds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"census_index_build_total",
			metric.WithDescription("Total number of substring index builds"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		indexKeys, err = meter.Int64Gauge(
			"census_index_keys",
			metric.WithDescription("Distinct substring keys in the last built index"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		indexEntries, err = meter.Int64Gauge(
			"census_index_entries",
			metric.WithDescription("Total entries in the last built index"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startBuildSpan(ctx context.Context, countries int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "SubstringIndex.Build",
		trace.WithAttributes(
			attribute.Int("census.countries", countries),
		),
	)
}

func setBuildSpanResult(span trace.Span, stats Stats, success bool) {
	span.SetAttributes(
		attribute.Int("index.keys", stats.Keys),
		attribute.Int("index.entries", stats.Entries),
		attribute.Bool("index.success", success),
	)
}

func recordBuildMetrics(ctx context.Context, duration time.Duration, stats Stats, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))
	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)

	if success {
		indexKeys.Record(ctx, int64(stats.Keys))
		indexEntries.Record(ctx, int64(stats.Entries))
	}
}
