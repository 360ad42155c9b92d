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
	"errors"
	"fmt"
)

// Sentinel errors for index persistence.
var (
	// ErrIO indicates the storage medium could not be read or written.
	ErrIO = errors.New("index storage I/O failure")

	// ErrFormat indicates persisted content exists but is not a valid index.
	ErrFormat = errors.New("invalid persisted index")

	// ErrUnknownBackend is returned by Open for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown index backend")

	// ErrClosed is returned when a closed store is used.
	ErrClosed = errors.New("index store is closed")
)

// IOError describes a failed read or write of the persisted index.
type IOError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

// Error returns the operation, location and cause.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s index %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports ErrIO so callers can match with errors.Is(err, ErrIO).
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// FormatError describes persisted content that failed to decode.
type FormatError struct {
	Path string
	Err  error
}

// Error returns the location and decode failure.
func (e *FormatError) Error() string {
	return fmt.Sprintf("decode index %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is reports ErrFormat so callers can match with errors.Is(err, ErrFormat).
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}
