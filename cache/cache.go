// Package cache persists the raw fetched commit records as a local JSON
// snapshot so repeated runs within the freshness window skip the network
// entirely. The snapshot is two artifacts: the record array and a
// metadata stamp. Both are overwritten atomically on every fresh fetch.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gitlapse/gitlapse/dataset"
)

const (
	dataFile = "commits_cache.json"
	metaFile = "cache_metadata.json"
)

// Metadata is the snapshot stamp written alongside the record array.
type Metadata struct {
	Timestamp       time.Time `json:"timestamp"`
	CommitCount     int       `json:"commit_count"`
	RepositoryCount int       `json:"repository_count"`
	Username        string    `json:"username"`
}

// Store reads and writes the commit snapshot under a single directory.
// The snapshot is not keyed by username: changing the configured user
// without clearing the directory serves the previous user's commits.
// Valid logs a warning when it detects that case.
type Store struct {
	dir    string
	maxAge time.Duration
	log    *logrus.Logger
	now    func() time.Time
}

// New creates a store rooted at dir. maxAgeDays bounds snapshot freshness.
func New(dir string, maxAgeDays int, log *logrus.Logger) *Store {
	return &Store{
		dir:    dir,
		maxAge: time.Duration(maxAgeDays) * 24 * time.Hour,
		log:    log,
		now:    time.Now,
	}
}

func (s *Store) dataPath() string { return filepath.Join(s.dir, dataFile) }
func (s *Store) metaPath() string { return filepath.Join(s.dir, metaFile) }

// Valid reports whether a usable snapshot exists: the metadata file is
// present, parses, and is strictly younger than the configured maximum
// age. A snapshot whose age equals the maximum is stale.
func (s *Store) Valid(username string) bool {
	meta, err := s.ReadMetadata()
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("cache metadata unreadable, treating as stale")
		}
		return false
	}

	if meta.Username != "" && meta.Username != username {
		s.log.WithFields(logrus.Fields{
			"cached":     meta.Username,
			"configured": username,
		}).Warn("cache was written for a different user")
	}

	age := s.now().Sub(meta.Timestamp)
	return age >= 0 && age < s.maxAge
}

// ReadMetadata loads and parses the metadata stamp.
func (s *Store) ReadMetadata() (Metadata, error) {
	var meta Metadata
	raw, err := os.ReadFile(s.metaPath())
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, fmt.Errorf("parse cache metadata: %w", err)
	}
	return meta, nil
}

// Load returns the raw records from the snapshot.
func (s *Store) Load() ([]dataset.CommitRecord, error) {
	raw, err := os.ReadFile(s.dataPath())
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	var records []dataset.CommitRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse cache: %w", err)
	}
	return records, nil
}

// Save overwrites the snapshot with records and a fresh metadata stamp.
// The record array is written before the metadata so a crash in between
// leaves a stale stamp rather than a stamp pointing at missing data.
// Each file is written to a temporary name and renamed into place.
func (s *Store) Save(records []dataset.CommitRecord, repositoryCount int, username string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if err := writeJSONAtomic(s.dataPath(), records); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}

	meta := Metadata{
		Timestamp:       s.now(),
		CommitCount:     len(records),
		RepositoryCount: repositoryCount,
		Username:        username,
	}
	if err := writeJSONAtomic(s.metaPath(), meta); err != nil {
		return fmt.Errorf("write cache metadata: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"commits":      meta.CommitCount,
		"repositories": meta.RepositoryCount,
		"dir":          s.dir,
	}).Info("cache saved")
	return nil
}

// writeJSONAtomic marshals v and renames a temp file over path so readers
// never observe a torn file.
func writeJSONAtomic(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
