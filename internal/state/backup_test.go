package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissing(t *testing.T) {
	store := NewStore(t.TempDir(), "6401234")

	b, err := store.Load(42)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if b != nil {
		t.Errorf("Expected nil backup, got %+v", b)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewStore(tmpDir, "Somchai Jaidee")

	saved := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := store.Save(Backup{ScholarshipID: 42, CurrentStep: 2, DraftData: `{"a":1}`, SavedAt: saved}); err != nil {
		t.Fatalf("Failed to save backup: %v", err)
	}

	path := filepath.Join(tmpDir, "drafts", "somchai-jaidee", "42.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Backup file was not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %o", info.Mode().Perm())
	}

	loaded, err := store.Load(42)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil after save")
	}
	if loaded.CurrentStep != 2 || loaded.DraftData != `{"a":1}` || !loaded.SavedAt.Equal(saved) {
		t.Errorf("Unexpected backup: %+v", loaded)
	}
}

func TestSaveStampsTime(t *testing.T) {
	store := NewStore(t.TempDir(), "u1")
	if err := store.Save(Backup{ScholarshipID: 1}); err != nil {
		t.Fatalf("Failed to save backup: %v", err)
	}
	b, _ := store.Load(1)
	if b == nil || b.SavedAt.IsZero() {
		t.Errorf("Expected SavedAt to be set, got %+v", b)
	}
}

func TestLoadCorrupt(t *testing.T) {
	store := NewStore(t.TempDir(), "u1")
	if err := os.MkdirAll(store.Dir(), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path(7), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	b, err := store.Load(7)
	if err != nil {
		t.Fatalf("Expected corrupt file to be ignored, got %v", err)
	}
	if b != nil {
		t.Errorf("Expected nil backup for corrupt file, got %+v", b)
	}
}

func TestClear(t *testing.T) {
	store := NewStore(t.TempDir(), "u1")
	if err := store.Clear(9); err != nil {
		t.Errorf("Clear of missing backup should succeed: %v", err)
	}

	if err := store.Save(Backup{ScholarshipID: 9}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(9); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(store.Path(9)); !os.IsNotExist(err) {
		t.Error("Backup file still exists after Clear")
	}
}

func TestEmptyOwnerIsAnonymous(t *testing.T) {
	store := NewStore("data", "")
	if got := store.Dir(); got != filepath.Join("data", "drafts", "anonymous") {
		t.Errorf("Dir() = %s", got)
	}
}
