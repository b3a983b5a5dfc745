package results

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// #region store
// Store is an in-memory item → record map backed by one JSON file. Every
// Save rewrites the whole file through a temp file and rename so a crash
// leaves either the old or the new aggregate, never a torn one.
type Store[R any] struct {
	mu      sync.Mutex
	path    string
	records map[string]R
}

// Open loads the aggregate at path, or starts empty when it does not exist.
func Open[R any](path string) (*Store[R], error) {
	s := &Store[R]{path: path, records: make(map[string]R)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("decode results %s: %w", path, err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store[R]) Path() string { return s.path }

// Get returns the record for item.
func (s *Store[R]) Get(item string) (R, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[item]
	return r, ok
}

// Put merges rec under item. It does not persist.
func (s *Store[R]) Put(item string, rec R) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[item] = rec
}

// Len returns the number of items held.
func (s *Store[R]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Save atomically rewrites the backing file with every record.
func (s *Store[R]) Save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.records, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return writeAtomic(s.path, data)
}

// #endregion store

// #region atomic-write
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, 0o644)

	bw := bufio.NewWriter(tmp)
	if _, err := bw.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("flush temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", dest, err)
	}
	// best effort: persist the rename
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// #endregion atomic-write

// RefineFileName names the aggregate for one responder/critic pair.
func RefineFileName(responder, critic string) string {
	return fmt.Sprintf("correction_%s_feedback_%s.json", responder, critic)
}
