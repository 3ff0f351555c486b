// Package api is the HTTP client for the scholarship backend's wizard endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/applywiz/internal/auth"
	"github.com/mark3labs/applywiz/internal/logger"
)

// ErrDraftNotFound is returned by LoadDraft when the user has no draft.
var ErrDraftNotFound = errors.New("draft not found")

// Error is a non-2xx response or a {success:false} body.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Client talks to the REST backend.
type Client struct {
	baseURL    string
	session    auth.Session
	httpClient *http.Client
}

// New creates a client for baseURL (e.g. "http://localhost:8080/api").
func New(baseURL string, session auth.Session, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// StepsConfig fetches the step definitions for a scholarship.
func (c *Client) StepsConfig(ctx context.Context, scholarshipID int) (StepsConfig, error) {
	var out StepsConfig
	if err := c.do(ctx, http.MethodGet, "/steps-config", scholarshipQuery(scholarshipID), nil, &out); err != nil {
		return StepsConfig{}, fmt.Errorf("loading steps config: %w", err)
	}
	return out, nil
}

// LoadDraft fetches the caller's draft, or ErrDraftNotFound.
func (c *Client) LoadDraft(ctx context.Context, scholarshipID int) (*Draft, error) {
	var body struct {
		Draft
		Data *Draft `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/draft", scholarshipQuery(scholarshipID), nil, &body)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	d := body.Draft
	if body.Data != nil {
		d = *body.Data
	}
	if d.ScholarshipID == 0 {
		d.ScholarshipID = scholarshipID
	}
	return &d, nil
}

// SaveDraft overwrites the caller's draft.
func (c *Client) SaveDraft(ctx context.Context, req SaveDraftRequest) error {
	var out SuccessResponse
	if err := c.do(ctx, http.MethodPost, "/draft", nil, req, &out); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	if !out.Success {
		return &Error{Status: http.StatusOK, Message: nonEmpty(out.Error, "draft was not saved")}
	}
	return nil
}

// Submit sends the final application and returns its id.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (ApplicationID, error) {
	var out SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/applications/multi-step", nil, req, &out); err != nil {
		return "", fmt.Errorf("submitting application: %w", err)
	}
	if !out.Success {
		return "", &Error{Status: http.StatusOK, Message: nonEmpty(out.Error, "application was not accepted")}
	}
	if out.Data.ApplicationID == "" {
		return "", &Error{Status: http.StatusOK, Message: "response has no application id"}
	}
	return out.Data.ApplicationID, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if user, ok := c.session.User(); ok && user.ID != "" {
		req.Header.Set("X-User-ID", user.ID)
	}

	logger.Debug("api: %s %s", method, u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func scholarshipQuery(id int) url.Values {
	return url.Values{"scholarship_id": []string{strconv.Itoa(id)}}
}

// errorMessage pulls "error" or "message" out of a JSON error body.
func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		return nonEmpty(body.Error, body.Message)
	}
	return strings.TrimSpace(string(data))
}

func nonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
