// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	pathIndex  = "index"
	pathScan   = "scan"
	pathCustom = "custom"

	resultMatched      = "matched"
	resultAbsent       = "absent"
	resultEmptyPattern = "empty_pattern"
)

var (
	queryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "census_query_total",
		Help: "Total substring queries by path and result",
	}, []string{"path", "result"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "census_query_duration_seconds",
		Help:    "Substring query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
	}, []string{"path"})

	queryMatches = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "census_query_matched_animals",
		Help:    "Animals returned per matched query",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 500},
	})
)

func recordQuery(path, result string, d time.Duration, animals int) {
	queryTotal.WithLabelValues(path, result).Inc()
	queryDuration.WithLabelValues(path).Observe(d.Seconds())
	if animals > 0 {
		queryMatches.Observe(float64(animals))
	}
}
