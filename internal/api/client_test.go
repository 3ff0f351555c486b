package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/applywiz/internal/auth"
	"github.com/mark3labs/applywiz/internal/form"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	sess := auth.NewSession(auth.User{ID: "6401234", Name: "Somchai"}, "tok")
	return New(srv.URL+"/api/", sess, 5*time.Second)
}

func TestStepsConfig(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/steps-config", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("scholarship_id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "6401234", r.Header.Get("X-User-ID"))
		_ = json.NewEncoder(w).Encode(form.DefaultSteps())
	})

	cfg, err := c.StepsConfig(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TotalSteps)
	assert.Equal(t, "Personal information", cfg.Steps[0].Title)
}

func TestLoadDraft(t *testing.T) {
	saved := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("plain body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/draft", r.URL.Path)
			_ = json.NewEncoder(w).Encode(Draft{CurrentStep: 3, DraftData: `{"x":1}`, LastSavedAt: saved})
		})
		d, err := c.LoadDraft(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, 3, d.CurrentStep)
		assert.Equal(t, 42, d.ScholarshipID)
		assert.Equal(t, `{"x":1}`, d.DraftData)
		assert.True(t, saved.Equal(d.LastSavedAt))
	})

	t.Run("wrapped body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"data":{"current_step":2,"draft_data":"{}"}}`))
		})
		d, err := c.LoadDraft(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, 2, d.CurrentStep)
	})

	t.Run("not found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := c.LoadDraft(context.Background(), 42)
		assert.ErrorIs(t, err, ErrDraftNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
		})
		_, err := c.LoadDraft(context.Background(), 42)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Equal(t, "boom", apiErr.Message)
	})
}

func TestSaveDraft(t *testing.T) {
	var got SaveDraftRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	err := c.SaveDraft(context.Background(), SaveDraftRequest{ScholarshipID: 42, CurrentStep: 1, DraftData: "{}", AutoSave: true})
	require.NoError(t, err)
	assert.Equal(t, SaveDraftRequest{ScholarshipID: 42, CurrentStep: 1, DraftData: "{}", AutoSave: true}, got)
}

func TestSaveDraftUnsuccessful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"locked"}`))
	})
	err := c.SaveDraft(context.Background(), SaveDraftRequest{ScholarshipID: 1})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "locked", apiErr.Message)
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ApplicationID
	}{
		{"numeric id", `{"success":true,"data":{"application_id":1001}}`, "1001"},
		{"string id", `{"success":true,"data":{"application_id":"app-7"}}`, "app-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/applications/multi-step", r.URL.Path)
				var req SubmitRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.True(t, req.IsComplete)
				assert.False(t, req.SaveAsDraft)
				_, _ = w.Write([]byte(tt.body))
			})
			id, err := c.Submit(context.Background(), SubmitRequest{ScholarshipID: 42, Step: 5, IsComplete: true})
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestSubmitRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"deadline passed"}`))
	})
	_, err := c.Submit(context.Background(), SubmitRequest{ScholarshipID: 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline passed")
}

func TestSubmitWithoutApplicationID(t *testing.T) {
	for _, body := range []string{
		`{"success":true}`,
		`{"success":true,"data":{"application_id":null}}`,
		`{"success":true,"data":{"application_id":""}}`,
	} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		id, err := c.Submit(context.Background(), SubmitRequest{ScholarshipID: 42})
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr, body)
		assert.Empty(t, id)
	}
}

func TestAnonymousSessionSendsNoAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-User-ID"))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, auth.Anonymous(), time.Second)
	require.NoError(t, c.SaveDraft(context.Background(), SaveDraftRequest{}))
}
