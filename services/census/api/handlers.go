// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"log/slog"
	"net/http"

	"github.com/AleutianAI/menagerie/services/census/hierarchy"
	"github.com/AleutianAI/menagerie/services/census/query"
	"github.com/gin-gonic/gin"
)

// Messages returned in {"error": ...} bodies.
const (
	MsgPatternMissing = "Pattern is missing"
	MsgNoMatch        = "No matching animals found"
)

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	Countries   int  `json:"countries"`
	People      int  `json:"people"`
	Animals     int  `json:"animals"`
	Indexed     bool `json:"indexed"`
	Keys        int  `json:"keys"`
	Entries     int  `json:"entries"`
	BytesApprox int  `json:"bytesApprox"`
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleFilter answers GET /v1/filter?pattern=. It queries the current index,
// or scans the dataset when no index has been built yet.
func HandleFilter(snap Snapshot) gin.HandlerFunc {
	return func(c *gin.Context) {
		pattern := c.Query("pattern")
		if err := query.ValidatePattern(pattern); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": MsgPatternMissing})
			return
		}

		var (
			res query.Result
			ok  bool
		)
		if idx := snap.Current(); idx != nil {
			res, ok = query.Query(pattern, idx)
		} else {
			slog.Warn("no index loaded, scanning dataset")
			res, ok = query.FilterData(pattern, snap.Countries())
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": MsgNoMatch})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// HandleCount answers GET /v1/count with the dataset's names suffixed by
// their child counts.
func HandleCount(snap Snapshot) gin.HandlerFunc {
	return func(c *gin.Context) {
		counted := hierarchy.CountChildren(snap.Countries())
		if counted == nil {
			counted = []hierarchy.Country{}
		}
		c.JSON(http.StatusOK, counted)
	}
}

func HandleStats(snap Snapshot) gin.HandlerFunc {
	return func(c *gin.Context) {
		totals := hierarchy.Count(snap.Countries())
		resp := StatsResponse{
			Countries: totals.Countries,
			People:    totals.People,
			Animals:   totals.Animals,
		}
		if idx := snap.Current(); idx != nil {
			st := idx.Stats()
			resp.Indexed = true
			resp.Keys = st.Keys
			resp.Entries = st.Entries
			resp.BytesApprox = st.BytesApprox
		}
		c.JSON(http.StatusOK, resp)
	}
}
