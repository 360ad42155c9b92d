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
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/menagerie/services/census/index"
	kv "github.com/AleutianAI/menagerie/services/census/storage/badger"
	"github.com/google/uuid"
)

const (
	keyPrefixSubstring = "sub/"
	keyMeta            = "meta"
)

// Meta describes one persisted build.
type Meta struct {
	BuildID uuid.UUID `json:"buildId"`
	BuiltAt time.Time `json:"builtAt"`
	Keys    int       `json:"keys"`
	Entries int       `json:"entries"`
}

// BadgerBackend persists the index in BadgerDB with one key per substring.
//
// Layout:
//
//	meta            → Meta (JSON)
//	sub/<substring> → []index.Entry (JSON)
//
// The meta key is written in the same batch as the substrings and marks a
// completed save; a database without it is treated as holding no index.
type BadgerBackend struct {
	db *kv.DB
}

// NewBadgerBackend wraps an open database. The backend owns db and closes
// it on Close.
func NewBadgerBackend(db *kv.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

// Name returns "badger".
func (b *BadgerBackend) Name() string { return BackendBadger }

// Location returns the database directory, or ":memory:".
func (b *BadgerBackend) Location() string {
	if b.db.InMemory() {
		return ":memory:"
	}
	return b.db.Path()
}

// Save replaces the database contents with idx.
func (b *BadgerBackend) Save(ctx context.Context, idx *index.SubstringIndex) error {
	keys := idx.Keys()
	pairs := make([]kv.KV, 0, len(keys)+1)
	for _, k := range keys {
		val, err := json.Marshal(idx.Lookup(k))
		if err != nil {
			return &IOError{Op: "save", Path: b.Location(), Err: fmt.Errorf("encode %q: %w", k, err)}
		}
		pairs = append(pairs, kv.KV{Key: []byte(keyPrefixSubstring + k), Value: val})
	}

	stats := idx.Stats()
	meta, err := json.Marshal(Meta{
		BuildID: uuid.New(),
		BuiltAt: time.Now().UTC(),
		Keys:    stats.Keys,
		Entries: stats.Entries,
	})
	if err != nil {
		return &IOError{Op: "save", Path: b.Location(), Err: err}
	}
	pairs = append(pairs, kv.KV{Key: []byte(keyMeta), Value: meta})

	if err := b.db.Replace(ctx, pairs); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &IOError{Op: "save", Path: b.Location(), Err: err}
	}
	return nil
}

// Load reads every substring key back into an index.
func (b *BadgerBackend) Load(ctx context.Context) (*index.SubstringIndex, bool, error) {
	if _, ok, err := b.Meta(ctx); err != nil || !ok {
		return nil, false, err
	}

	m := make(map[string][]index.Entry)
	err := b.db.ScanPrefix(ctx, []byte(keyPrefixSubstring), func(key, value []byte) error {
		var entries []index.Entry
		if err := json.Unmarshal(value, &entries); err != nil {
			return &FormatError{Path: b.Location(), Err: fmt.Errorf("key %q: %w", key, err)}
		}
		m[strings.TrimPrefix(string(key), keyPrefixSubstring)] = entries
		return nil
	})
	if err != nil {
		return nil, false, b.loadError(ctx, err)
	}

	idx, err := index.FromMap(m)
	if err != nil {
		return nil, false, &FormatError{Path: b.Location(), Err: err}
	}
	return idx, true, nil
}

// Meta returns the metadata of the last completed save.
func (b *BadgerBackend) Meta(ctx context.Context) (Meta, bool, error) {
	raw, err := b.db.Get(ctx, []byte(keyMeta))
	if errors.Is(err, kv.ErrNotFound) {
		return Meta{}, false, nil
	}
	if err != nil {
		return Meta{}, false, b.loadError(ctx, err)
	}

	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Meta{}, false, &FormatError{Path: b.Location(), Err: fmt.Errorf("meta: %w", err)}
	}
	return meta, true, nil
}

// Close closes the underlying database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

func (b *BadgerBackend) loadError(ctx context.Context, err error) error {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &IOError{Op: "load", Path: b.Location(), Err: err}
}
