package results

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/danielpatrickdp/coref-probe/internal/oracle"
)

// #region raw-log
// RawLog is the append-only JSONL sidecar holding every oracle call.
type RawLog struct {
	mu sync.Mutex
	f  *os.File
}

// OpenRawLog opens path for appending, creating it if needed.
func OpenRawLog(path string) (*RawLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open raw log: %w", err)
	}
	return &RawLog{f: f}, nil
}

// Append writes one line per call and syncs the file.
func (l *RawLog) Append(calls []oracle.Call) error {
	if len(calls) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	bw := bufio.NewWriter(l.f)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, c := range calls {
		entry := RawEntry{
			Model:    c.Model,
			Mode:     c.Mode,
			Sentence: c.Item,
			Prompt:   c.Prompt,
			Response: c.Response,
			Failed:   c.Failed,
		}
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("encode raw entry: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("append raw log: %w", err)
	}
	return l.f.Sync()
}

// Close closes the underlying file.
func (l *RawLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// ReadRawLog decodes every entry in a raw log file.
func ReadRawLog(path string) ([]RawEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raw log: %w", err)
	}
	defer f.Close()

	var out []RawEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e RawEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("decode raw entry %d: %w", len(out)+1, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// #endregion raw-log
