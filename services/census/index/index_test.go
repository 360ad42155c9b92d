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
	"encoding/json"
	"testing"

	"github.com/AleutianAI/menagerie/services/census/hierarchy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catDataset() []hierarchy.Country {
	return []hierarchy.Country{{
		Name: "A",
		People: []hierarchy.Person{{
			Name:    "P",
			Animals: []hierarchy.Animal{{Name: "Cat"}},
		}},
	}}
}

func TestSubstrings(t *testing.T) {
	assert.Equal(t, []string{"c", "ca", "cat", "a", "at", "t"}, Substrings("Cat"))
	assert.Nil(t, Substrings(""))
	assert.Len(t, Substrings("Anaconda"), 8*9/2)

	t.Run("multi-byte runes are not split", func(t *testing.T) {
		subs := Substrings("Émeu")
		assert.Len(t, subs, 10)
		assert.Contains(t, subs, "é")
		assert.Contains(t, subs, "émeu")
	})
}

func TestBuild_CatScenario(t *testing.T) {
	countries := catDataset()
	idx, err := Build(context.Background(), countries)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "at", "c", "ca", "cat", "t"}, idx.Keys())
	for _, k := range idx.Keys() {
		entries := idx.Lookup(k)
		require.Len(t, entries, 1, "key %q", k)
		assert.Equal(t, "Cat", entries[0].AnimalName)
		assert.Same(t, &countries[0], entries[0].Country)
		assert.Same(t, &countries[0].People[0], entries[0].Person)
	}
	assert.Empty(t, idx.Lookup("dog"))
	assert.Empty(t, idx.Lookup("Cat"), "keys are lower case")
}

func TestBuild_DeduplicatesPerAnimal(t *testing.T) {
	countries := []hierarchy.Country{{
		Name: "A",
		People: []hierarchy.Person{{
			Name:    "P",
			Animals: []hierarchy.Animal{{Name: "Anaconda"}, {Name: "Llama"}},
		}},
	}}
	idx, err := Build(context.Background(), countries)
	require.NoError(t, err)

	a := idx.Lookup("a")
	require.Len(t, a, 2)
	assert.Equal(t, "Anaconda", a[0].AnimalName)
	assert.Equal(t, "Llama", a[1].AnimalName)

	assert.Len(t, idx.Lookup("l"), 1)
	assert.Len(t, idx.Lookup("an"), 1)
}

func TestBuild_TraversalOrder(t *testing.T) {
	countries := []hierarchy.Country{
		{Name: "B", People: []hierarchy.Person{
			{Name: "q", Animals: []hierarchy.Animal{{Name: "Bobcat"}}},
			{Name: "r", Animals: []hierarchy.Animal{{Name: "Cat"}}},
		}},
		{Name: "A", People: []hierarchy.Person{
			{Name: "p", Animals: []hierarchy.Animal{{Name: "Caterpillar"}}},
		}},
	}
	idx, err := Build(context.Background(), countries)
	require.NoError(t, err)

	var got []string
	for _, e := range idx.Lookup("cat") {
		got = append(got, e.Country.Name+"/"+e.Person.Name+"/"+e.AnimalName)
	}
	assert.Equal(t, []string{"B/q/Bobcat", "B/r/Cat", "A/p/Caterpillar"}, got)
}

func TestBuild_Empty(t *testing.T) {
	for name, countries := range map[string][]hierarchy.Country{
		"nil":        nil,
		"no people":  {{Name: "A"}},
		"no animals": {{Name: "A", People: []hierarchy.Person{{Name: "p", Animals: []hierarchy.Animal{}}}}},
	} {
		t.Run(name, func(t *testing.T) {
			idx, err := Build(context.Background(), countries)
			require.NoError(t, err)
			require.NotNil(t, idx)
			assert.Zero(t, idx.Len())
			assert.Empty(t, idx.Keys())
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	countries := hierarchy.Seed()
	a, err := Build(context.Background(), countries)
	require.NoError(t, err)
	b, err := Build(context.Background(), countries)
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestBuild_Progress(t *testing.T) {
	var calls [][2]int
	_, err := Build(context.Background(), hierarchy.Seed(), WithProgress(func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}))
	require.NoError(t, err)
	require.Len(t, calls, 5)
	assert.Equal(t, [2]int{5, 5}, calls[4])
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	idx, err := Build(ctx, hierarchy.Seed())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, idx)
}

func TestStats(t *testing.T) {
	idx, err := Build(context.Background(), catDataset())
	require.NoError(t, err)
	st := idx.Stats()
	assert.Equal(t, 6, st.Keys)
	assert.Equal(t, 6, st.Entries)
	assert.Positive(t, st.BytesApprox)

	var nilIdx *SubstringIndex
	assert.Equal(t, Stats{}, nilIdx.Stats())
	assert.Zero(t, nilIdx.Len())
	assert.Nil(t, nilIdx.Lookup("a"))
}

func TestRange_StopsEarly(t *testing.T) {
	idx, err := Build(context.Background(), catDataset())
	require.NoError(t, err)

	var visited []string
	idx.Range(func(key string, _ []Entry) bool {
		visited = append(visited, key)
		return len(visited) < 2
	})
	assert.Equal(t, []string{"a", "at"}, visited)
}

func TestJSON_RoundTrip(t *testing.T) {
	idx, err := Build(context.Background(), catDataset())
	require.NoError(t, err)

	data, err := json.Marshal(idx)
	require.NoError(t, err)

	var raw map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "cat")
	assert.Equal(t, "Cat", raw["cat"][0]["animalName"])
	assert.Contains(t, raw["cat"][0], "countryRef")
	assert.Contains(t, raw["cat"][0], "personRef")

	var back SubstringIndex
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, idx.Keys(), back.Keys())
	e := back.Lookup("ca")[0]
	assert.Equal(t, "A", e.Country.Name)
	assert.Equal(t, "P", e.Person.Name)
}

func TestJSON_Empty(t *testing.T) {
	idx, err := Build(context.Background(), nil)
	require.NoError(t, err)
	data, err := json.Marshal(idx)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestFromMap_Validation(t *testing.T) {
	country := &hierarchy.Country{Name: "A"}
	person := &hierarchy.Person{Name: "p"}

	tests := []struct {
		name string
		m    map[string][]Entry
		want error
	}{
		{"empty key", map[string][]Entry{"": {{AnimalName: "x", Country: country, Person: person}}}, ErrEmptyKey},
		{"upper case key", map[string][]Entry{"Cat": {{AnimalName: "Cat", Country: country, Person: person}}}, ErrKeyNotLower},
		{"missing country", map[string][]Entry{"cat": {{AnimalName: "Cat", Person: person}}}, ErrMissingRef},
		{"missing person", map[string][]Entry{"cat": {{AnimalName: "Cat", Country: country}}}, ErrMissingRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(tt.m)
			assert.ErrorIs(t, err, tt.want)
			var keyErr *KeyError
			assert.ErrorAs(t, err, &keyErr)
		})
	}

	idx, err := FromMap(nil)
	require.NoError(t, err)
	assert.Zero(t, idx.Len())
}
