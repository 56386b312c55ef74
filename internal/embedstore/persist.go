package embedstore

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/logging"
	"github.com/hetulpatel/arbmatch/internal/metrics"
)

// File is the on-disk snapshot layout.
type File struct {
	Vectors        map[string][]float32
	Metadata       map[string]collectors.MarketRecord
	Order          []string
	TotalProcessed int
	Timestamp      time.Time
}

// Save writes the full snapshot to a temp file and renames it into place, so
// readers never observe a half-written file.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	snap := s.Snapshot()
	f := File{
		Vectors:        snap.Vectors,
		Metadata:       snap.Metadata,
		Order:          snap.Order,
		TotalProcessed: s.totalProcessed,
		Timestamp:      s.now().UTC(),
	}
	if err := writeFile(s.path, &f); err != nil {
		metrics.StoreSaves.WithLabelValues("failed").Inc()
		return err
	}
	metrics.StoreSaves.WithLabelValues("ok").Inc()
	logging.Infof("[embed-store] saved %d embeddings to %s", len(f.Vectors), s.path)
	return nil
}

// Path returns the snapshot location.
func (s *Store) Path() string {
	return s.path
}

func writeFile(path string, f *File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	if err := gob.NewEncoder(out).Encode(f); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by Save.
func ReadSnapshot(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	var f File
	if err := gob.NewDecoder(in).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &f, nil
}
