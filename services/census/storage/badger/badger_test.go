// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.ErrorIs(t, err, ErrPathRequired)
}

func TestOpen_Persistent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	cfg := DefaultConfig(dir)
	cfg.GCInterval = time.Hour

	db, err := Open(cfg)
	require.NoError(t, err)
	assert.Equal(t, dir, db.Path())
	assert.False(t, db.InMemory())

	ctx := context.Background()
	require.NoError(t, db.Replace(ctx, []KV{{Key: []byte("k"), Value: []byte("v")}}))
	require.NoError(t, db.Close())

	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestDB_GetMissing(t *testing.T) {
	db := openInMemory(t)
	_, err := db.Get(context.Background(), []byte("nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDB_ReplaceDropsOldKeys(t *testing.T) {
	db := openInMemory(t)
	ctx := context.Background()

	require.NoError(t, db.Replace(ctx, []KV{
		{Key: []byte("sub/a"), Value: []byte("1")},
		{Key: []byte("sub/b"), Value: []byte("2")},
	}))
	require.NoError(t, db.Replace(ctx, []KV{
		{Key: []byte("sub/c"), Value: []byte("3")},
	}))

	var keys []string
	err := db.ScanPrefix(ctx, []byte("sub/"), func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sub/c"}, keys)
}

func TestDB_ScanPrefix(t *testing.T) {
	db := openInMemory(t)
	ctx := context.Background()

	require.NoError(t, db.Replace(ctx, []KV{
		{Key: []byte("meta"), Value: []byte("m")},
		{Key: []byte("sub/b"), Value: []byte("2")},
		{Key: []byte("sub/a"), Value: []byte("1")},
	}))

	got := map[string]string{}
	var order []string
	err := db.ScanPrefix(ctx, []byte("sub/"), func(k, v []byte) error {
		got[string(k)] = string(v)
		order = append(order, string(k))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"sub/a": "1", "sub/b": "2"}, got)
	assert.Equal(t, []string{"sub/a", "sub/b"}, order)

	t.Run("callback error stops scan", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := db.ScanPrefix(ctx, []byte("sub/"), func(k, v []byte) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}

func TestDB_WithTxn(t *testing.T) {
	db := openInMemory(t)
	ctx := context.Background()

	require.NoError(t, db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte("x"), []byte("y"))
	}))

	got, err := db.Get(ctx, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), got)

	t.Run("error rolls back", func(t *testing.T) {
		err := db.WithTxn(ctx, func(txn *badger.Txn) error {
			if err := txn.Set([]byte("z"), []byte("1")); err != nil {
				return err
			}
			return errors.New("abort")
		})
		require.Error(t, err)
		_, err = db.Get(ctx, []byte("z"))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDB_CancelledContext(t *testing.T) {
	db := openInMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, db.WithTxn(ctx, func(*badger.Txn) error { return nil }), context.Canceled)
	assert.ErrorIs(t, db.WithReadTxn(ctx, func(*badger.Txn) error { return nil }), context.Canceled)
	assert.ErrorIs(t, db.Replace(ctx, nil), context.Canceled)
}

func TestDB_SyncInMemory(t *testing.T) {
	db := openInMemory(t)
	assert.NoError(t, db.Sync())
	assert.True(t, db.InMemory())
	assert.Empty(t, db.Path())
}
