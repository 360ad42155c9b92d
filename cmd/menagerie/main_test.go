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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catDataset = `[
  {"name": "Dillauti", "people": [
    {"name": "Winifred", "animals": [{"name": "Cat"}, {"name": "Dog"}]},
    {"name": "Blanche", "animals": []}
  ]}
]`

// harness runs the CLI against a private config, index and dataset.
type harness struct {
	t       *testing.T
	dir     string
	base    []string
	dataset string
}

func newHarness(t *testing.T, backend string) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		t:   t,
		dir: dir,
		base: []string{
			"--config", filepath.Join(dir, "menagerie.yaml"),
			"--backend", backend,
			"--index-path", filepath.Join(dir, "index"),
		},
	}
}

func (h *harness) withDataset(content string) *harness {
	h.t.Helper()
	h.dataset = filepath.Join(h.dir, "zoo.json")
	require.NoError(h.t, os.WriteFile(h.dataset, []byte(content), 0o600))
	return h
}

func (h *harness) run(args ...string) (stdout, stderr string, code int) {
	h.t.Helper()
	full := append([]string{}, h.base...)
	if h.dataset != "" {
		full = append(full, "--dataset", h.dataset)
	}
	full = append(full, args...)
	var out, errOut bytes.Buffer
	code = run(context.Background(), full, &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestFilter_CatScenario(t *testing.T) {
	h := newHarness(t, "file").withDataset(catDataset)

	out, _, code := h.run("filter", "AT")
	require.Equal(t, 0, code)
	assert.Equal(t, `[
  {
    "name": "Dillauti",
    "people": [
      {
        "name": "Winifred",
        "animals": [
          {
            "name": "Cat"
          }
        ]
      }
    ]
  }
]
`, out)

	_, err := os.Stat(filepath.Join(h.dir, "index"))
	assert.NoError(t, err, "first query persists the index")
}

func TestFilter_Messages(t *testing.T) {
	h := newHarness(t, "file")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing pattern", []string{"filter"}, "Pattern is missing\n"},
		{"legacy missing pattern", []string{"--filter"}, "Pattern is missing\n"},
		{"legacy empty pattern", []string{"--filter="}, "Pattern is missing\n"},
		{"no match", []string{"filter", "zzzz"}, "No matching animals found\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, code := h.run(tt.args...)
			assert.Equal(t, 0, code)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestFilter_LegacyFormMatchesSubcommand(t *testing.T) {
	h := newHarness(t, "badger")

	legacy, _, code := h.run("--filter=ry")
	require.Equal(t, 0, code)
	sub, _, code := h.run("filter", "ry")
	require.Equal(t, 0, code)

	assert.Equal(t, sub, legacy)
	assert.Contains(t, legacy, `"name": "Dromedary"`)
	assert.NotContains(t, legacy, "Lillian Calamandrei")
}

func TestFilter_FallbackOnCorruptIndex(t *testing.T) {
	h := newHarness(t, "file").withDataset(catDataset)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "index"), []byte("{not json"), 0o600))

	out, stderr, code := h.run("filter", "cat")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"name": "Cat"`)
	assert.Contains(t, stderr, "index unavailable")

	_, stderr, code = h.run("filter", "cat", "--fallback=false")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error:")
}

func TestCount(t *testing.T) {
	h := newHarness(t, "file").withDataset(catDataset)

	out, _, code := h.run("count")
	require.Equal(t, 0, code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Dillauti [2]", got[0]["name"])
	people := got[0]["people"].([]any)
	assert.Equal(t, "Winifred [2]", people[0].(map[string]any)["name"])
	assert.Equal(t, "Blanche [0]", people[1].(map[string]any)["name"])

	legacy, _, code := h.run("--count")
	require.Equal(t, 0, code)
	assert.Equal(t, out, legacy)

	empty := newHarness(t, "file").withDataset(`[]`)
	out, _, code = empty.run("count")
	assert.Equal(t, 0, code)
	assert.Empty(t, out)
}

func TestIndexAndStatus(t *testing.T) {
	for _, backend := range []string{"file", "badger"} {
		t.Run(backend, func(t *testing.T) {
			h := newHarness(t, backend).withDataset(catDataset)

			out, _, code := h.run("status")
			require.Equal(t, 0, code)
			var before indexSummary
			require.NoError(t, json.Unmarshal([]byte(out), &before))
			assert.False(t, before.Present)
			assert.Equal(t, backend, before.Backend)

			out, _, code = h.run("index")
			require.Equal(t, 0, code)
			var built indexSummary
			require.NoError(t, json.Unmarshal([]byte(out), &built))
			assert.True(t, built.Present)
			// cat: c a t ca at cat; dog: d o g do og dog
			assert.Equal(t, 12, built.Keys)

			out, _, code = h.run("status")
			require.Equal(t, 0, code)
			var after indexSummary
			require.NoError(t, json.Unmarshal([]byte(out), &after))
			assert.True(t, after.Present)
			assert.Equal(t, built.Keys, after.Keys)
			if backend == "badger" {
				require.NotNil(t, after.Build)
				assert.Equal(t, 12, after.Build.Keys)
			} else {
				assert.Nil(t, after.Build)
			}
		})
	}
}

func TestReindex_PicksUpDatasetChanges(t *testing.T) {
	h := newHarness(t, "file").withDataset(catDataset)
	_, _, code := h.run("index")
	require.Equal(t, 0, code)

	h.withDataset(`[{"name":"A","people":[{"name":"p","animals":[{"name":"Emu"}]}]}]`)
	out, _, _ := h.run("filter", "emu")
	assert.Equal(t, "No matching animals found\n", out, "saved index is reused until reindex")

	_, _, code = h.run("reindex")
	require.Equal(t, 0, code)
	out, _, _ = h.run("filter", "emu")
	assert.Contains(t, out, `"name": "Emu"`)
}

func TestKeys(t *testing.T) {
	h := newHarness(t, "file").withDataset(catDataset)

	out, _, code := h.run("keys", "C")
	require.Equal(t, 0, code)
	assert.Equal(t, "c\t1\nca\t1\ncat\t1\n", out)

	out, _, code = h.run("keys", "--limit", "2")
	require.Equal(t, 0, code)
	assert.Equal(t, []string{"a\t1", "at\t1"}, strings.Split(strings.TrimSpace(out), "\n"))
}

func TestWatch_RequiresDataset(t *testing.T) {
	h := newHarness(t, "file")
	_, stderr, code := h.run("watch")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "watch needs a dataset file")
}

func TestInvalidInvocations(t *testing.T) {
	h := newHarness(t, "file")

	_, stderr, code := h.run("feed")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown command")

	_, stderr, code = h.run("--backend", "sqlite", "count")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid config")

	h.dataset = filepath.Join(h.dir, "missing.json")
	_, stderr, code = h.run("count")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "missing.json")
}

func TestRewriteLegacyArgs(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"--filter=ry"}, []string{"filter", "--", "ry"}},
		{[]string{"--filter=a=b"}, []string{"filter", "--", "a=b"}},
		{[]string{"--filter=-x"}, []string{"filter", "--", "-x"}},
		{[]string{"--filter"}, []string{"filter"}},
		{[]string{"--count"}, []string{"count"}},
		{[]string{"--config", "c.yaml", "--count"}, []string{"--config", "c.yaml", "count"}},
		{[]string{"filter", "ry"}, []string{"filter", "ry"}},
		{[]string{"filter", "--", "--count"}, []string{"filter", "--", "--count"}},
		{nil, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rewriteLegacyArgs(tt.in), "%v", tt.in)
	}
}
