// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package index builds the substring inverted index over animal names.
//
// Every contiguous substring of every lower-cased animal name becomes a key.
// A key maps to the ordered list of entries (animal, person, country) whose
// animal name contains it, so a pattern is answered with one map lookup
// instead of a scan over the dataset.
//
// # Ownership Model
//
// Entries hold read-only pointers into the dataset the index was built from.
// The index never outlives or mutates that dataset. After deserialization
// each entry carries its own copy of the referenced country and person.
//
// # Thread Safety
//
// A SubstringIndex is immutable once Build or FromMap returns. Any number of
// goroutines may read it concurrently without locking.
package index

import (
	"errors"
	"fmt"
)

// Sentinel errors for index construction.
var (
	// ErrEmptyKey is returned when a decoded index contains an empty key.
	ErrEmptyKey = errors.New("empty index key")

	// ErrKeyNotLower is returned when a decoded index contains a key that is
	// not in lower case.
	ErrKeyNotLower = errors.New("index key is not lower case")

	// ErrMissingRef is returned when a decoded entry lacks its country or
	// person reference.
	ErrMissingRef = errors.New("index entry missing reference")
)

// KeyError attaches the offending key to a validation error.
type KeyError struct {
	Key string
	Err error
}

// Error returns the key and underlying error.
func (e *KeyError) Error() string {
	return fmt.Sprintf("key %q: %v", e.Key, e.Err)
}

// Unwrap returns the underlying sentinel for errors.Is.
func (e *KeyError) Unwrap() error {
	return e.Err
}
