// Package store persists per-event artifacts and the durable mapping from
// event key to remote index id. Artifacts live at
// <dataDir>/<eventKey>/<kind>.json; the mapping is a single JSON object at
// <dataDir>/index_mappings.json.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Artifact kinds stored per event.
const (
	KindEvent    = "event"
	KindTeams    = "teams"
	KindMatches  = "matches"
	KindRankings = "rankings"
	KindMetrics  = "metrics"
)

const mappingFile = "index_mappings.json"

var ErrArtifactNotFound = errors.New("artifact not found")

type Store interface {
	WriteArtifact(eventKey, kind string, blob []byte) error
	// ReadArtifact returns the stored blob or ErrArtifactNotFound.
	ReadArtifact(eventKey, kind string) ([]byte, error)

	// ListKnownEvents is the union of events with local artifacts and
	// events present in the index mapping, sorted.
	ListKnownEvents() []string

	GetIndexID(eventKey string) (string, bool)
	// SetIndexID records the mapping and flushes it to disk. A flush
	// failure is logged, not returned; the in-memory table stays the
	// source of truth for the current process.
	SetIndexID(eventKey, indexID string)
	// Flush writes the mapping table to disk. Called on shutdown.
	Flush() error
}

type fileStore struct {
	dataDir string
	logger  *zap.Logger

	mu       sync.Mutex
	mappings map[string]string
}

func New(dataDir string, logger *zap.Logger) (Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating data dir %s: %w", dataDir, err)
	}

	s := &fileStore{
		dataDir:  dataDir,
		logger:   logger,
		mappings: make(map[string]string),
	}
	s.loadMappings()
	return s, nil
}

// loadMappings reads the durable mapping record. A missing or corrupt file
// degrades to an empty table with a warning; it never blocks startup.
func (s *fileStore) loadMappings() {
	b, err := os.ReadFile(filepath.Join(s.dataDir, mappingFile))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("unable to read index mapping file, starting with an empty mapping", zap.Error(err))
		}
		return
	}

	m := make(map[string]string)
	if err := json.Unmarshal(b, &m); err != nil {
		s.logger.Warn("unable to parse index mapping file, starting with an empty mapping", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.mappings = m
	s.mu.Unlock()
}

func (s *fileStore) WriteArtifact(eventKey, kind string, blob []byte) error {
	dir := filepath.Join(s.dataDir, eventKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating event dir for %s: %w", eventKey, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.json", kind))
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("error writing %s artifact for %s: %w", kind, eventKey, err)
	}
	return nil
}

func (s *fileStore) ReadArtifact(eventKey, kind string) ([]byte, error) {
	path := filepath.Join(s.dataDir, eventKey, fmt.Sprintf("%s.json", kind))
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrArtifactNotFound, eventKey, kind)
		}
		return nil, fmt.Errorf("error reading %s artifact for %s: %w", kind, eventKey, err)
	}
	return b, nil
}

func (s *fileStore) ListKnownEvents() []string {
	known := make(map[string]bool)

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		s.logger.Warn("unable to list data dir", zap.Error(err))
	}
	for _, e := range entries {
		if e.IsDir() {
			known[e.Name()] = true
		}
	}

	s.mu.Lock()
	for k := range s.mappings {
		known[k] = true
	}
	s.mu.Unlock()

	keys := make([]string, 0, len(known))
	for k := range known {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *fileStore) GetIndexID(eventKey string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.mappings[eventKey]
	return id, ok
}

func (s *fileStore) SetIndexID(eventKey, indexID string) {
	s.mu.Lock()
	s.mappings[eventKey] = indexID
	s.mu.Unlock()

	if err := s.Flush(); err != nil {
		s.logger.Warn("unable to save index mapping file", zap.Error(err))
	}
}

func (s *fileStore) Flush() error {
	s.mu.Lock()
	b, err := json.MarshalIndent(s.mappings, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("error marshaling index mappings: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dataDir, mappingFile), b, 0o644); err != nil {
		return fmt.Errorf("error writing index mapping file: %w", err)
	}
	return nil
}
