package matches

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Log is the append-only list of confirmed matches. Every Append rewrites the
// whole file through a temp file and rename.
type Log struct {
	mu      sync.Mutex
	path    string
	records []MatchRecord
}

// NewLog starts an empty log persisted at path. Empty path keeps it in memory.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append adds rec and saves the full log. The record is kept in memory even
// when the write fails.
func (l *Log) Append(rec MatchRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return l.saveLocked()
}

// Save rewrites the file with the current records.
func (l *Log) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked()
}

func (l *Log) saveLocked() error {
	if l.path == "" {
		return nil
	}
	records := l.records
	if records == nil {
		records = []MatchRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal matches: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("ensure matches dir: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write matches: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("rename matches: %w", err)
	}
	return nil
}

// Records returns a copy of the log.
func (l *Log) Records() []MatchRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]MatchRecord(nil), l.records...)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Path returns the file backing the log.
func (l *Log) Path() string {
	return l.path
}

// ReadLog loads a match log file written by Save.
func ReadLog(path string) ([]MatchRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []MatchRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode matches %s: %w", path, err)
	}
	return out, nil
}
