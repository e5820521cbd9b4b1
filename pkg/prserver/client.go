// Package prserver is the HTTP client for the course publication server: it
// fetches the current readme.toml for a course, its structural summary, and
// ensures a PR exists for a submitted document.
package prserver

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
)

// IClient is the surface the session machine consumes; the concrete Client
// talks HTTP, tests substitute fakes.
type IClient interface {
	GetCourseTOML(ctx context.Context, repoName string) (*FetchResult, error)
	GetCourseStructure(ctx context.Context, repoName string) (*StructureSummary, error)
	EnsurePR(ctx context.Context, req *EnsureRequest) (*EnsureResult, error)
}

// FetchResult carries the current document text and where it came from.
type FetchResult struct {
	TOML   string `json:"toml"`
	Source string `json:"source,omitempty"`
}

// StructureSummary is the read-only navigation aid returned by the lookup
// endpoint. The patch logic never consumes it; it only feeds the outline the
// user sees.
type StructureSummary struct {
	Meta struct {
		CourseCode string `json:"course_code"`
		CourseName string `json:"course_name"`
		RepoType   string `json:"repo_type"`
	} `json:"meta"`
	Sections []SectionSummary `json:"sections"`
}

type SectionSummary struct {
	Label string        `json:"label"`
	Items []ItemSummary `json:"items"`
}

type ItemSummary struct {
	Index   int    `json:"index"`
	Preview string `json:"preview"`
}

// EnsureRequest asks the server to create or update the PR for a document.
type EnsureRequest struct {
	RepoName   string `json:"repo_name,omitempty"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	RepoType   string `json:"repo_type"`
	TOML       string `json:"toml"`
}

// EnsureResult is one of the two success shapes: a PR URL when the repository
// exists, or a pending request token when it does not. Both are surfaced to
// the user verbatim.
type EnsureResult struct {
	Status    string `json:"status,omitempty"`
	PRURL     string `json:"pr_url,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Client is the HTTP implementation.
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

var _ IClient = &Client{}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) GetCourseTOML(ctx context.Context, repoName string) (*FetchResult, error) {
	var body struct {
		TOML   string `json:"toml"`
		Source string `json:"source"`
	}
	q := url.Values{"repo_name": {repoName}}
	if err := c.get(ctx, "/v1/courses/toml", q, &body); err != nil {
		return nil, err
	}
	if body.TOML == "" {
		return nil, fmt.Errorf("prserver: toml endpoint returned no document for %q", repoName)
	}
	return &FetchResult{TOML: body.TOML, Source: body.Source}, nil
}

func (c *Client) GetCourseStructure(ctx context.Context, repoName string) (*StructureSummary, error) {
	var body struct {
		Summary *StructureSummary `json:"summary"`
	}
	q := url.Values{"repo_name": {repoName}}
	if err := c.get(ctx, "/v1/courses/structure", q, &body); err != nil {
		return nil, err
	}
	if body.Summary == nil {
		return nil, fmt.Errorf("prserver: structure endpoint returned no summary for %q", repoName)
	}
	return body.Summary, nil
}

func (c *Client) EnsurePR(ctx context.Context, req *EnsureRequest) (*EnsureResult, error) {
	var out EnsureResult
	if err := c.post(ctx, "/v1/pr/ensure", req, &out); err != nil {
		return nil, err
	}
	if out.PRURL == "" && out.RequestID == "" {
		return nil, fmt.Errorf("prserver: ensure returned neither pr_url nor request_id")
	}
	return &out, nil
}

// --- transport plumbing ---

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.BaseURL == "" {
		return fmt.Errorf("prserver: base URL not configured")
	}
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("prserver: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("prserver: reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("prserver: %s returned %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("prserver: decoding response: %w", err)
	}
	return nil
}
