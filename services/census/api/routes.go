// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package api serves census queries over HTTP from the live index.
package api

import (
	"github.com/AleutianAI/menagerie/pkg/telemetry"
	"github.com/AleutianAI/menagerie/services/census/hierarchy"
	"github.com/AleutianAI/menagerie/services/census/index"
	"github.com/gin-gonic/gin"
)

// Snapshot exposes the index and dataset currently being served.
// *watch.Watcher satisfies it.
type Snapshot interface {
	Current() *index.SubstringIndex
	Countries() []hierarchy.Country
}

// SetupRoutes registers the census endpoints on router.
func SetupRoutes(router *gin.Engine, snap Snapshot) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/filter", HandleFilter(snap))
		v1.GET("/count", HandleCount(snap))
		v1.GET("/stats", HandleStats(snap))
	}
}
