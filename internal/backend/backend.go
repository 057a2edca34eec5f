// Package backend is the HTTP gateway to the course backend. Every call is
// best-effort: callers log failures and move on, nothing is retried or queued.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edittrail/edittrail/internal/assignment"
)

// EditRecord is one dirty line pushed at flush time. Field names on the wire
// are part of the backend contract.
type EditRecord struct {
	AssignmentID string    `json:"AssignmentID"`
	GitHubName   string    `json:"GitHubName"`
	GitHubLink   string    `json:"GitHubLink"`
	FilePath     string    `json:"FilePath"` // base name only
	LineNumber   int       `json:"LineNumber"` // 1-based
	LineContent  string    `json:"LineContent"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CitationRecord is the outcome of one completed citation workflow.
type CitationRecord struct {
	AssignmentID         string    `json:"AssignmentID"`
	AssignmentName       string    `json:"AssignmentName"`
	GitHubName           string    `json:"GitHubName"`
	ChangedLinesInWindow int       `json:"changedLinesInWindow"`
	WindowSeconds        int       `json:"windowSeconds"`
	FilesTouched         []string  `json:"filesTouched"`
	AIPrompt             string    `json:"aiPrompt"`
	Source               string    `json:"source"`
	CreatedAt            time.Time `json:"createdAt"`
}

// Gateway is what the engine needs from the backend.
type Gateway interface {
	ListAssignments(ctx context.Context, identity string) ([]assignment.Assignment, error)
	PushEditRecord(ctx context.Context, rec EditRecord) error
	PushCitationRecord(ctx context.Context, rec CitationRecord) error
}

// HTTPError is a non-2xx backend response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Client is the concrete Gateway speaking JSON over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client for the given base URL. A nil httpClient gets a
// default with no timeout: pushes are already fire-and-forget on their own
// goroutine and must not be cut short under a slow backend.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// ListAssignments fetches the assignments available to the given identity.
func (c *Client) ListAssignments(ctx context.Context, identity string) ([]assignment.Assignment, error) {
	q := url.Values{}
	q.Set("identity", identity)
	var out struct {
		Assignments []assignment.Assignment `json:"assignments"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/assignments/by-identity?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Assignments, nil
}

// PushEditRecord submits one dirty-line record.
func (c *Client) PushEditRecord(ctx context.Context, rec EditRecord) error {
	return c.doJSON(ctx, http.MethodPost, "/assignments/push", rec, nil)
}

// PushCitationRecord submits one citation record.
func (c *Client) PushCitationRecord(ctx context.Context, rec CitationRecord) error {
	return c.doJSON(ctx, http.MethodPost, "/assignments/citations", rec, nil)
}

func (c *Client) doJSON(ctx context.Context, method, requestPath string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Correlation-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(payload)),
		}
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}
