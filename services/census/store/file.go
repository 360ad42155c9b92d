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
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AleutianAI/menagerie/services/census/index"
)

// FileBackend persists the index as one JSON document.
//
// The document is the flat key → entries mapping with each entry's country
// and person written inline. Saves go to a temp file in the same directory
// which is then renamed over the target, so readers never see a partial
// document.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend that stores the index at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Name returns "file".
func (b *FileBackend) Name() string { return BackendFile }

// Location returns the index file path.
func (b *FileBackend) Location() string { return b.path }

// Save writes idx, replacing any previous file.
func (b *FileBackend) Save(ctx context.Context, idx *index.SubstringIndex) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(idx)
	if err != nil {
		return &IOError{Op: "save", Path: b.path, Err: err}
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &IOError{Op: "save", Path: b.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return &IOError{Op: "save", Path: b.path, Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &IOError{Op: "save", Path: b.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &IOError{Op: "save", Path: b.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "save", Path: b.path, Err: err}
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return &IOError{Op: "save", Path: b.path, Err: err}
	}
	committed = true
	return nil
}

// Load reads the index file. A missing file reports ok == false.
func (b *FileBackend) Load(ctx context.Context) (*index.SubstringIndex, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &IOError{Op: "load", Path: b.path, Err: err}
	}

	idx := new(index.SubstringIndex)
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, false, &FormatError{Path: b.path, Err: err}
	}
	return idx, true, nil
}

// Close is a no-op.
func (b *FileBackend) Close() error { return nil }
