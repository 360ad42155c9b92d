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
	"encoding/json"
	"sort"
	"strings"

	"github.com/AleutianAI/menagerie/services/census/hierarchy"
)

const (
	// estimatedBytesPerKey approximates map overhead plus slice header per key.
	estimatedBytesPerKey = 56

	// estimatedBytesPerEntry approximates one Entry (string header + 2 pointers).
	estimatedBytesPerEntry = 32
)

// Entry is one occurrence of an animal under a substring key.
//
// Country and Person are lookup references, not ownership. They are
// serialized as full nested records.
type Entry struct {
	AnimalName string             `json:"animalName"`
	Country    *hierarchy.Country `json:"countryRef"`
	Person     *hierarchy.Person  `json:"personRef"`
}

// Stats reports index metrics.
type Stats struct {
	Keys        int // Number of distinct substring keys
	Entries     int // Total entries across all keys
	BytesApprox int // Approximate memory usage (best effort)
}

// SubstringIndex maps lower-case substrings to the entries containing them.
type SubstringIndex struct {
	entries map[string][]Entry
}

func newSubstringIndex(capacity int) *SubstringIndex {
	return &SubstringIndex{entries: make(map[string][]Entry, capacity)}
}

// FromMap wraps a decoded key → entries mapping after checking that every
// key is non-empty and lower case and every entry has both references.
//
// The map is owned by the returned index; callers must not modify it.
func FromMap(m map[string][]Entry) (*SubstringIndex, error) {
	if m == nil {
		m = make(map[string][]Entry)
	}
	for key, list := range m {
		if key == "" {
			return nil, &KeyError{Key: key, Err: ErrEmptyKey}
		}
		if strings.ToLower(key) != key {
			return nil, &KeyError{Key: key, Err: ErrKeyNotLower}
		}
		for _, e := range list {
			if e.Country == nil || e.Person == nil {
				return nil, &KeyError{Key: key, Err: ErrMissingRef}
			}
		}
	}
	return &SubstringIndex{entries: m}, nil
}

// Lookup returns the entries stored under key, in traversal order.
// The key must already be lower case. The returned slice must not be modified.
func (s *SubstringIndex) Lookup(key string) []Entry {
	if s == nil {
		return nil
	}
	return s.entries[key]
}

// Len returns the number of distinct keys.
func (s *SubstringIndex) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Keys returns all keys in sorted order.
func (s *SubstringIndex) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for each key in sorted order until fn returns false.
func (s *SubstringIndex) Range(fn func(key string, entries []Entry) bool) {
	for _, k := range s.Keys() {
		if !fn(k, s.entries[k]) {
			return
		}
	}
}

// Stats returns index statistics.
func (s *SubstringIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	var st Stats
	st.Keys = len(s.entries)
	for k, list := range s.entries {
		st.Entries += len(list)
		st.BytesApprox += estimatedBytesPerKey + len(k) + len(list)*estimatedBytesPerEntry
	}
	return st
}

// MarshalJSON writes the flat key → entries mapping.
func (s *SubstringIndex) MarshalJSON() ([]byte, error) {
	if s == nil || s.entries == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.entries)
}

// UnmarshalJSON reads the flat key → entries mapping and validates it.
func (s *SubstringIndex) UnmarshalJSON(data []byte) error {
	var m map[string][]Entry
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	decoded, err := FromMap(m)
	if err != nil {
		return err
	}
	s.entries = decoded.entries
	return nil
}
