package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/compactd/compactd/internal/coordinator"
	"github.com/compactd/compactd/internal/server"
	"github.com/compactd/compactd/internal/settings"
)

// ErrNoActiveJob is returned by ActiveJob when the daemon slot is empty.
var ErrNoActiveJob = errors.New("no active job")

// Client is an HTTP client for a running compactd daemon, used by the CLI
// subcommands that inspect or poke a live instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// StatusError carries a non-success HTTP answer from the daemon, with the
// plain-text reason the handlers attach to it.
type StatusError struct {
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("daemon returned status %d: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("daemon returned status %d", e.Code)
}

func (c *Client) Status(ctx context.Context) (*server.StatusReply, error) {
	var reply server.StatusReply
	if err := c.get(ctx, "/api/v1/status", &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ActiveJob returns the job occupying the daemon slot, or ErrNoActiveJob
// when the daemon is idle.
func (c *Client) ActiveJob(ctx context.Context) (*coordinator.Job, error) {
	var job coordinator.Job
	if err := c.get(ctx, "/api/v1/jobs/active", &job); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, ErrNoActiveJob
		}
		return nil, err
	}
	return &job, nil
}

func (c *Client) History(ctx context.Context) ([]coordinator.Job, error) {
	var reply server.HistoryReply
	if err := c.get(ctx, "/api/v1/jobs/history", &reply); err != nil {
		return nil, err
	}
	return reply.Jobs, nil
}

func (c *Client) Archive(ctx context.Context) ([]server.ArchivedJob, error) {
	var reply server.ArchiveReply
	if err := c.get(ctx, "/api/v1/jobs/archive", &reply); err != nil {
		return nil, err
	}
	return reply.Jobs, nil
}

func (c *Client) Queue(ctx context.Context) (*server.QueueReply, error) {
	var reply server.QueueReply
	if err := c.get(ctx, "/api/v1/queue", &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) Library(ctx context.Context) (*server.LibraryReply, error) {
	var reply server.LibraryReply
	if err := c.get(ctx, "/api/v1/library", &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) Settings(ctx context.Context) (*settings.Settings, error) {
	var doc settings.Settings
	if err := c.get(ctx, "/api/v1/settings", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

type startJobRequest struct {
	Path      string `json:"path"`
	Name      string `json:"name,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
}

func (c *Client) StartCompression(ctx context.Context, path, name, algorithm string) error {
	return c.post(ctx, "/api/v1/jobs/compression", startJobRequest{Path: path, Name: name, Algorithm: algorithm})
}

func (c *Client) StartDecompression(ctx context.Context, path, name string) error {
	return c.post(ctx, "/api/v1/jobs/decompression", startJobRequest{Path: path, Name: name})
}

// CancelActive asks the daemon to cancel whatever occupies the job slot.
// The request is accepted even when the daemon is idle.
func (c *Client) CancelActive(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v1/jobs/active", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call daemon: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusAccepted {
		return &StatusError{Code: resp.StatusCode, Reason: strings.TrimSpace(string(body))}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call daemon: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Reason: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call daemon: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusAccepted {
		return &StatusError{Code: resp.StatusCode, Reason: strings.TrimSpace(string(body))}
	}
	return nil
}
