// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package hierarchy models the census dataset: countries own people, people
// own animals.
//
// # Ownership Model
//
// The dataset is loaded once at process start and is never mutated
// afterwards. Indexes and query results hold read-only pointers into it;
// nothing in the dataset points back at them.
package hierarchy

import (
	"context"
)

// Animal is a named animal owned by exactly one Person.
type Animal struct {
	Name string `json:"name" yaml:"name" validate:"required"`
}

// Person owns an ordered list of animals.
type Person struct {
	Name    string   `json:"name" yaml:"name" validate:"required"`
	Animals []Animal `json:"animals" yaml:"animals" validate:"dive"`
}

// Country owns an ordered list of people. Names are opaque labels and are
// not required to be unique.
type Country struct {
	Name   string   `json:"name" yaml:"name" validate:"required"`
	People []Person `json:"people" yaml:"people" validate:"dive"`
}

// VisitFunc is called once per animal, in traversal order.
//
// The pointers refer to the caller's slice elements and must be treated as
// read-only.
type VisitFunc func(country *Country, person *Person, animal *Animal) error

// Walk visits every animal in country order, then person order, then animal
// order. Empty lists at any level are skipped.
//
// Walk stops at the first error returned by visit, or when ctx is cancelled
// (checked once per country).
func Walk(ctx context.Context, countries []Country, visit VisitFunc) error {
	for ci := range countries {
		if err := ctx.Err(); err != nil {
			return err
		}
		country := &countries[ci]
		for pi := range country.People {
			person := &country.People[pi]
			for ai := range person.Animals {
				if err := visit(country, person, &person.Animals[ai]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Totals reports the size of a dataset.
type Totals struct {
	Countries int
	People    int
	Animals   int
}

// Count returns the number of countries, people and animals in countries.
func Count(countries []Country) Totals {
	t := Totals{Countries: len(countries)}
	for _, c := range countries {
		t.People += len(c.People)
		for _, p := range c.People {
			t.Animals += len(p.Animals)
		}
	}
	return t
}
