package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tabscout/tabscout/pkg/models"
)

// fileSnapshot is the on-disk format of the file store.
type fileSnapshot struct {
	Judges    map[string]models.Judge `json:"judges"`
	UpdatedAt string                  `json:"updated_at"`
}

// File stores judge records in a single JSON file. It is the default
// backend for single-machine use where running Elasticsearch would be
// overkill; every write rewrites the snapshot.
type File struct {
	path string

	mu     sync.Mutex
	judges map[string]models.Judge
}

// NewFile opens (or creates) a file-backed store at path.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &File{path: path, judges: make(map[string]models.Judge)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	var snap fileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing store file: %w", err)
	}
	if snap.Judges != nil {
		s.judges = snap.Judges
	}

	return s, nil
}

// Upsert inserts or replaces the record and flushes the snapshot to disk.
func (s *File) Upsert(_ context.Context, judge models.Judge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.judges[judge.ID] = judge
	return s.save()
}

// Get returns the record for id, or ErrNotFound.
func (s *File) Get(_ context.Context, id string) (*models.Judge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	judge, ok := s.judges[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &judge, nil
}

// List returns all records, ordered by ID for stable output.
func (s *File) List(_ context.Context) ([]models.Judge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	judges := make([]models.Judge, 0, len(s.judges))
	for _, j := range s.judges {
		judges = append(judges, j)
	}
	sort.Slice(judges, func(i, j int) bool { return judges[i].ID < judges[j].ID })
	return judges, nil
}

// Remove deletes one record and flushes the snapshot.
func (s *File) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.judges[id]; !ok {
		return ErrNotFound
	}
	delete(s.judges, id)
	return s.save()
}

// save writes the snapshot via a temp file so a crash mid-write cannot
// corrupt the previous state.
func (s *File) save() error {
	snap := fileSnapshot{
		Judges:    s.judges,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing store snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing store snapshot: %w", err)
	}
	return nil
}
