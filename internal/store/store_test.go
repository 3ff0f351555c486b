package store

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/applywiz/internal/nats"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	emb, err := nats.Start(t.TempDir())
	if err != nil {
		t.Fatalf("failed to start NATS: %v", err)
	}
	t.Cleanup(func() { _ = emb.Close() })

	stream, err := nats.SetupStream(ctx, emb.JS)
	if err != nil {
		t.Fatalf("failed to setup stream: %v", err)
	}
	return NewStore(emb.JS, stream)
}

func TestDraftLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("no draft yet", func(t *testing.T) {
		_, err := store.LoadDraft(ctx, "6401234", 42)
		if !errors.Is(err, ErrNoDraft) {
			t.Fatalf("expected ErrNoDraft, got %v", err)
		}
	})

	t.Run("latest save wins", func(t *testing.T) {
		if _, err := store.SaveDraft(ctx, "6401234", 42, 1, `{"v":1}`, false); err != nil {
			t.Fatalf("SaveDraft failed: %v", err)
		}
		if _, err := store.SaveDraft(ctx, "6401234", 42, 2, `{"v":2}`, true); err != nil {
			t.Fatalf("SaveDraft failed: %v", err)
		}

		d, err := store.LoadDraft(ctx, "6401234", 42)
		if err != nil {
			t.Fatalf("LoadDraft failed: %v", err)
		}
		if d.CurrentStep != 2 || d.DraftData != `{"v":2}` || !d.AutoSave {
			t.Errorf("unexpected draft: %+v", d)
		}
		if d.LastSavedAt.IsZero() {
			t.Error("expected LastSavedAt to be set")
		}
	})

	t.Run("drafts are per owner and scholarship", func(t *testing.T) {
		if _, err := store.LoadDraft(ctx, "someone-else", 42); !errors.Is(err, ErrNoDraft) {
			t.Errorf("expected no draft for another owner, got %v", err)
		}
		if _, err := store.LoadDraft(ctx, "6401234", 43); !errors.Is(err, ErrNoDraft) {
			t.Errorf("expected no draft for another scholarship, got %v", err)
		}
	})

	t.Run("submit closes the draft", func(t *testing.T) {
		app, err := store.Submit(ctx, "6401234", 42, 5, `{"v":3}`)
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if app.ID == "" {
			t.Error("expected application id")
		}

		if _, err := store.LoadDraft(ctx, "6401234", 42); !errors.Is(err, ErrNoDraft) {
			t.Errorf("expected draft to be closed, got %v", err)
		}

		st, err := store.LoadState(ctx, "6401234", 42)
		if err != nil {
			t.Fatalf("LoadState failed: %v", err)
		}
		if len(st.Applications) != 1 || st.Applications[0].ID != app.ID {
			t.Errorf("unexpected applications: %+v", st.Applications)
		}
		if st.DraftSaves != 2 {
			t.Errorf("expected 2 draft saves, got %d", st.DraftSaves)
		}
	})
}

func TestApplicationsAcrossOwners(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, owner := range []string{"a", "b"} {
		if _, err := store.Submit(ctx, owner, 7, 5, "{}"); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	if _, err := store.SaveDraft(ctx, "c", 7, 1, "{}", false); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	apps, err := store.Applications(ctx, 7)
	if err != nil {
		t.Fatalf("Applications failed: %v", err)
	}
	if len(apps) != 2 {
		t.Errorf("expected 2 applications, got %d", len(apps))
	}
}

func TestOwnerWithDotsIsSubjectSafe(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.SaveDraft(ctx, "somchai.j@example.ac.th", 1, 1, "{}", false); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if _, err := store.LoadDraft(ctx, "somchai.j@example.ac.th", 1); err != nil {
		t.Errorf("LoadDraft failed: %v", err)
	}
}

func TestApplyIgnoresUnknownEvents(t *testing.T) {
	st := &State{}
	st.Apply(Event{Type: "note", Action: "add"})
	st.Apply(Event{Type: nats.EventTypeDraft, Action: "archive"})
	if st.Draft != nil || len(st.Applications) != 0 {
		t.Errorf("expected empty state, got %+v", st)
	}
}
