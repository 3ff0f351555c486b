// Package state keeps a local copy of unsaved drafts so edits survive a
// failed save or a closed terminal.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gosimple/slug"

	"github.com/mark3labs/applywiz/internal/logger"
)

// Backup is one locally stored draft.
type Backup struct {
	ScholarshipID int       `json:"scholarship_id"`
	CurrentStep   int       `json:"current_step"`
	DraftData     string    `json:"draft_data"`
	SavedAt       time.Time `json:"saved_at"`
}

// Store reads and writes backups for one owner under
// <dataDir>/drafts/<owner-slug>/<scholarship>.json.
type Store struct {
	dir string
}

// NewStore returns a store for owner. Owners that slug to nothing share "anonymous".
func NewStore(dataDir, owner string) *Store {
	ownerSlug := slug.Make(owner)
	if ownerSlug == "" {
		ownerSlug = "anonymous"
	}
	return &Store{dir: filepath.Join(dataDir, "drafts", ownerSlug)}
}

// Dir returns the owner's backup directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the backup file for a scholarship.
func (s *Store) Path(scholarshipID int) string {
	return filepath.Join(s.dir, strconv.Itoa(scholarshipID)+".json")
}

// Load returns the backup for a scholarship, or nil if there is none.
// A corrupt file is logged and treated as absent.
func (s *Store) Load(scholarshipID int) (*Backup, error) {
	path := s.Path(scholarshipID)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading draft backup: %w", err)
	}

	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		logger.Warn("Ignoring corrupt draft backup %s: %v", path, err)
		return nil, nil
	}
	return &b, nil
}

// Save writes the backup atomically.
func (s *Store) Save(b Backup) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	if b.SavedAt.IsZero() {
		b.SavedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling draft backup: %w", err)
	}

	path := s.Path(b.ScholarshipID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing draft backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing draft backup: %w", err)
	}

	logger.Debug("Draft backup saved to %s", path)
	return nil
}

// Clear removes the backup for a scholarship. Missing files are not an error.
func (s *Store) Clear(scholarshipID int) error {
	err := os.Remove(s.Path(scholarshipID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing draft backup: %w", err)
	}
	return nil
}
