// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK     = "ok"
	resultAbsent = "absent"
	resultError  = "error"
)

var (
	// storeOpsTotal counts backend operations by outcome.
	storeOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "census_store_operations_total",
		Help: "Total index store operations by backend, operation and result",
	}, []string{"backend", "op", "result"})

	// storeOpDuration tracks backend load/save latency.
	storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "census_store_operation_duration_seconds",
		Help:    "Index store operation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"backend", "op"})

	// ensureReadyShared counts EnsureReady calls that joined an in-flight call.
	ensureReadyShared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "census_store_ensure_ready_shared_total",
		Help: "EnsureReady calls served by a concurrent in-flight call",
	})

	// rebuildsTotal counts index rebuilds by trigger.
	rebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "census_store_rebuilds_total",
		Help: "Total index rebuilds by trigger",
	}, []string{"trigger"}) // "missing" or "reindex"
)
