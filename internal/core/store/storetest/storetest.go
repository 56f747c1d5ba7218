// Package storetest builds file-backed stores for package tests.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"marketplace-api/internal/core/store"
)

// New 在 t.TempDir() 下建一个文件存储
func New(t testing.TB) *store.Store {
	t.Helper()
	b, err := store.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return store.New(b, nil)
}

// Seed 整体写入一个集合
func Seed[T any](t testing.TB, s *store.Store, collection string, recs ...T) {
	t.Helper()
	require.NoError(t, store.SaveAll(context.Background(), s, collection, recs))
}

// Load 读回一个集合
func Load[T any](t testing.TB, s *store.Store, collection string) []T {
	t.Helper()
	return store.LoadAll[T](context.Background(), s, collection)
}
