// Package store persists named collections of records as whole JSON array
// documents. Every read loads the full collection and every write replaces it.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"marketplace-api/internal/core/metrics"
)

// Backend 读写单个集合的原始 JSON 文档。集合不存在时 Read 返回 (nil, nil)。
type Backend interface {
	Read(ctx context.Context, collection string) ([]byte, error)
	Write(ctx context.Context, collection string, data []byte) error
	Name() string
}

type Store struct {
	backend Backend
	log     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(b Backend, l *zap.Logger) *Store {
	if l == nil {
		l = zap.NewNop()
	}
	return &Store{backend: b, log: l, locks: map[string]*sync.Mutex{}}
}

func (s *Store) Backend() Backend { return s.backend }

// Lock acquires the write locks of the given collections in name order and
// returns the release func. Hold it across the whole load-mutate-save cycle.
func (s *Store) Lock(collections ...string) func() {
	names := append([]string(nil), collections...)
	sort.Strings(names)

	s.mu.Lock()
	held := make([]*sync.Mutex, 0, len(names))
	prev := ""
	for i, n := range names {
		if i > 0 && n == prev {
			continue
		}
		prev = n
		m, ok := s.locks[n]
		if !ok {
			m = &sync.Mutex{}
			s.locks[n] = m
		}
		held = append(held, m)
	}
	s.mu.Unlock()

	for _, m := range held {
		m.Lock()
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

var bom = []byte{0xEF, 0xBB, 0xBF}

// LoadAll decodes the collection into a slice. Absent, empty, non-array and
// malformed documents all yield an empty slice; failures are logged only.
func LoadAll[T any](ctx context.Context, s *Store, collection string) []T {
	out := []T{}
	raw, err := s.backend.Read(ctx, collection)
	if err != nil {
		metrics.StoreLoadFailures.WithLabelValues(collection).Inc()
		s.log.Error("store read failed",
			zap.String("collection", collection),
			zap.String("backend", s.backend.Name()),
			zap.Error(err))
		return out
	}
	raw = bytes.TrimSpace(bytes.TrimPrefix(raw, bom))
	if len(raw) == 0 {
		return out
	}
	if raw[0] != '[' {
		s.log.Warn("store document is not an array",
			zap.String("collection", collection))
		return out
	}
	var recs []T
	if err := json.Unmarshal(raw, &recs); err != nil {
		metrics.StoreLoadFailures.WithLabelValues(collection).Inc()
		s.log.Error("store parse failed",
			zap.String("collection", collection),
			zap.String("backend", s.backend.Name()),
			zap.Error(err))
		return out
	}
	if recs == nil {
		return out
	}
	return recs
}

// SaveAll replaces the whole collection with records.
func SaveAll[T any](ctx context.Context, s *Store, collection string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := Encode(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := s.backend.Write(ctx, collection, data); err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	return nil
}

// Encode 2 空格缩进，与数据文件格式一致
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
