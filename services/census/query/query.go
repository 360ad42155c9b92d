// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package query answers substring patterns with the matching slice of the
// census hierarchy.
//
// Two paths produce the result. Query looks the lower-cased pattern up as
// an exact key of a SubstringIndex. FilterData scans the dataset directly
// and is used when no index is available. Both feed the same grouping step,
// so for any pattern they return identical results.
//
// Matching is case-insensitive on both paths. A pattern that matches
// nothing, and the empty pattern, are reported as absent (ok == false)
// rather than as an empty result.
package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AleutianAI/menagerie/services/census/hierarchy"
	"github.com/AleutianAI/menagerie/services/census/index"
)

// ErrEmptyPattern is returned by ValidatePattern for "".
var ErrEmptyPattern = errors.New("pattern is missing")

// AnimalMatch is a matching animal.
type AnimalMatch struct {
	Name string `json:"name"`
}

// PersonMatch is a person with at least one matching animal.
type PersonMatch struct {
	Name    string        `json:"name"`
	Animals []AnimalMatch `json:"animals"`
}

// CountryMatch is a country with at least one matching person.
type CountryMatch struct {
	Name   string        `json:"name"`
	People []PersonMatch `json:"people"`
}

// Result is the filtered hierarchy. It is never empty when returned with
// ok == true.
type Result []CountryMatch

// Animals returns the number of animals in r.
func (r Result) Animals() int {
	n := 0
	for _, c := range r {
		for _, p := range c.People {
			n += len(p.Animals)
		}
	}
	return n
}

// ValidatePattern rejects the empty pattern.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return ErrEmptyPattern
	}
	return nil
}

// Source yields the entries whose animal name contains needle, in
// traversal order. needle is always non-empty and lower case.
type Source interface {
	Entries(needle string) []index.Entry
}

// IndexSource answers from a prebuilt index with one key lookup.
type IndexSource struct {
	Index *index.SubstringIndex
}

// Entries returns the entries stored under needle.
func (s IndexSource) Entries(needle string) []index.Entry {
	return s.Index.Lookup(needle)
}

// ScanSource answers by scanning every animal in the dataset.
type ScanSource struct {
	Countries []hierarchy.Country
}

// Entries returns one entry per animal whose lower-cased name contains needle.
func (s ScanSource) Entries(needle string) []index.Entry {
	var out []index.Entry
	// Background never cancels and the visitor never fails.
	_ = hierarchy.Walk(context.Background(), s.Countries, func(c *hierarchy.Country, p *hierarchy.Person, a *hierarchy.Animal) error {
		if strings.Contains(strings.ToLower(a.Name), needle) {
			out = append(out, index.Entry{AnimalName: a.Name, Country: c, Person: p})
		}
		return nil
	})
	return out
}

// Query answers pattern from idx.
func Query(pattern string, idx *index.SubstringIndex) (Result, bool) {
	return run(pattern, IndexSource{Index: idx}, pathIndex)
}

// FilterData answers pattern by scanning countries.
func FilterData(pattern string, countries []hierarchy.Country) (Result, bool) {
	return run(pattern, ScanSource{Countries: countries}, pathScan)
}

// Run answers pattern from an arbitrary source.
func Run(pattern string, src Source) (Result, bool) {
	return run(pattern, src, pathCustom)
}

func run(pattern string, src Source, path string) (Result, bool) {
	start := time.Now()
	if pattern == "" {
		recordQuery(path, resultEmptyPattern, time.Since(start), 0)
		return nil, false
	}

	res := Group(src.Entries(strings.ToLower(pattern)))
	if len(res) == 0 {
		recordQuery(path, resultAbsent, time.Since(start), 0)
		return nil, false
	}
	recordQuery(path, resultMatched, time.Since(start), res.Animals())
	return res, true
}

// Group rebuilds the hierarchy from entries.
//
// Countries appear in order of their first entry and are merged by name;
// within a country people are merged by name the same way. Animals keep
// entry order and duplicates are preserved.
func Group(entries []index.Entry) Result {
	if len(entries) == 0 {
		return nil
	}

	var res Result
	countryPos := make(map[string]int)
	personPos := make(map[string]map[string]int)

	for _, e := range entries {
		cName := e.Country.Name
		ci, ok := countryPos[cName]
		if !ok {
			ci = len(res)
			countryPos[cName] = ci
			personPos[cName] = make(map[string]int)
			res = append(res, CountryMatch{Name: cName})
		}

		pName := e.Person.Name
		pi, ok := personPos[cName][pName]
		if !ok {
			pi = len(res[ci].People)
			personPos[cName][pName] = pi
			res[ci].People = append(res[ci].People, PersonMatch{Name: pName})
		}

		res[ci].People[pi].Animals = append(res[ci].People[pi].Animals, AnimalMatch{Name: e.AnimalName})
	}
	return res
}
