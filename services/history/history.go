// Package history persists the rolling record of composite ranks.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"sjsage522/rankworker/internal/ranking"
	"sjsage522/rankworker/logger"
	trackerrors "sjsage522/rankworker/pkg/errors"
)

// DefaultCap is the number of entries kept in the history.
const DefaultCap = 50

// ErrCorrupt marks a history file that exists but cannot be decoded.
var ErrCorrupt = errors.New("history file is corrupt")

// Entry is one run's composite ranks.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Averages  ranking.CompositeScore `json:"averages"`
	// RawResults holds the per-country ranks of the run, keyed by country.
	RawResults map[string]ranking.CountryRank `json:"raw_results,omitempty"`
}

// Store loads and saves the whole history sequence.
type Store interface {
	// Load returns the stored entries, oldest first. A missing store yields
	// an empty history and no error.
	Load() ([]Entry, error)
	// Save replaces the stored entries.
	Save(entries []Entry) error
}

// FileStore keeps the history as a JSON array in a single file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store writes to
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the history file
func (s *FileStore) Load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, trackerrors.NewStorage(s.path, "failed to read history", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Entry{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, trackerrors.NewStorage(s.path, "failed to decode history", fmt.Errorf("%w: %v", ErrCorrupt, err))
	}
	return entries, nil
}

// Save writes entries to a temporary file next to the history file and
// renames it into place, so a crash mid-write leaves the old file intact.
func (s *FileStore) Save(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return trackerrors.NewStorage(s.path, "failed to encode history", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return trackerrors.NewStorage(s.path, "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return trackerrors.NewStorage(s.path, "failed to write history", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return trackerrors.NewStorage(s.path, "failed to sync history", err)
	}
	if err := tmp.Close(); err != nil {
		return trackerrors.NewStorage(s.path, "failed to close history", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return trackerrors.NewStorage(s.path, "failed to replace history", err)
	}
	return nil
}

// quarantine moves an unreadable history file aside so it is not lost when
// a fresh history is written over it.
func (s *FileStore) quarantine() (string, error) {
	dest := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().UTC().Format("20060102T150405"))
	return dest, os.Rename(s.path, dest)
}

// Record appends entry to the stored history, keeps only the last limit
// entries and writes the result back. An unreadable history is replaced by
// a fresh one with a warning. The returned slice is what was saved.
func Record(store Store, entry Entry, limit int) ([]Entry, error) {
	if limit < 1 {
		limit = DefaultCap
	}
	log := logger.ForHistory()

	entries, err := store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("history unreadable, starting a fresh history")
		if fsStore, ok := store.(*FileStore); ok && errors.Is(err, ErrCorrupt) {
			if dest, qerr := fsStore.quarantine(); qerr != nil {
				log.Warn().Err(qerr).Msg("failed to move corrupt history aside")
			} else {
				log.Warn().Str("backup", dest).Msg("corrupt history moved aside")
			}
		}
		entries = []Entry{}
	}

	entries = append(entries, entry)
	entries = Truncate(entries, limit)

	if err := store.Save(entries); err != nil {
		return nil, err
	}

	log.Debug().Int("entries", len(entries)).Msg("history recorded")
	return entries, nil
}

// Truncate keeps the last limit entries, dropping the oldest first.
func Truncate(entries []Entry, limit int) []Entry {
	if limit < 1 || len(entries) <= limit {
		return entries
	}
	kept := make([]Entry, limit)
	copy(kept, entries[len(entries)-limit:])
	return kept
}

// Previous returns the entry before the newest one, if any.
func Previous(entries []Entry) *Entry {
	if len(entries) < 2 {
		return nil
	}
	prev := entries[len(entries)-2]
	return &prev
}
