package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// snapshot is the envelope shared by the item stores:
// the id counter is persisted alongside the items so ids
// are never reused after deletion.
type snapshot[T any] struct {
	NextID uint64 `json:"next_id"`
	Items  []T    `json:"items"`
}

// loadSnapshot reads path into a snapshot. A missing file yields an
// empty collection with NextID = 1. Malformed JSON is a fatal error,
// there is no partial recovery.
func loadSnapshot[T any](path string) (snapshot[T], error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snapshot[T]{NextID: 1}, nil
		}
		return snapshot[T]{}, err
	}
	var s snapshot[T]
	if err := json.Unmarshal(b, &s); err != nil {
		return snapshot[T]{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if s.NextID == 0 {
		s.NextID = 1
	}
	return s, nil
}

func saveSnapshot[T any](path string, s snapshot[T]) error {
	if s.Items == nil {
		s.Items = []T{}
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, append(b, '\n'))
}

// writeFileAtomic rewrites path via a temp file + rename so a crash
// mid-write never leaves a truncated snapshot behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
