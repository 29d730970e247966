// Package ollama is a small typed client for the Ollama HTTP API, covering
// what the installer needs: health, model listing and pulls.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// HostEnv overrides the server address.
	HostEnv = "OLLAMA_HOST"
	// DefaultHost is where `ollama serve` listens out of the box.
	DefaultHost = "http://localhost:11434"
)

// Client wraps the Ollama HTTP API.
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. An empty baseURL falls back to
// OLLAMA_HOST and then DefaultHost.
func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = HostFromEnv()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		// Pulls stream for minutes; per-call deadlines come from ctx.
		httpClient: &http.Client{},
	}
}

// HostFromEnv returns OLLAMA_HOST normalised to a URL, or DefaultHost.
func HostFromEnv() string {
	v := envOrDefault(HostEnv, DefaultHost)
	if !strings.Contains(v, "://") {
		v = "http://" + v
	}
	return strings.TrimRight(v, "/")
}

// Model is a single entry from GET /api/tags.
type Model struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
}

// PullRequest maps to POST /api/pull.
type PullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// PullStatus is one NDJSON line from POST /api/pull.
type PullStatus struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

type versionResponse struct {
	Version string `json:"version"`
}

// Version fetches the server version. It doubles as the health check.
func (c *Client) Version(ctx context.Context) (string, error) {
	var v versionResponse
	if err := c.getJSON(ctx, "/api/version", &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

// Healthy reports whether /api/version answers within five seconds.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := c.Version(ctx)
	return err == nil
}

// WaitHealthy polls the health endpoint up to attempts times, interval apart.
func (c *Client) WaitHealthy(ctx context.Context, attempts int, interval time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := c.Version(probeCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("ollama not healthy at %s after %d attempts: %w", c.BaseURL, attempts, lastErr)
}

// ListModels returns all locally available models.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var resp struct {
		Models []Model `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/tags", &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// HasModel reports whether any local model name contains name, so that
// "deepseek-coder-v2" matches "deepseek-coder-v2:latest".
func (c *Client) HasModel(ctx context.Context, name string) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if strings.Contains(m.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// PullStream pulls a model and streams progress events. Both channels are
// closed when the pull ends; errCh carries at most one error.
func (c *Client) PullStream(ctx context.Context, name string) (<-chan PullStatus, <-chan error) {
	ch := make(chan PullStatus)
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		defer close(errCh)

		body, _ := json.Marshal(PullRequest{Name: name, Stream: true})
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/pull", bytes.NewReader(body))
		if err != nil {
			errCh <- err
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			errCh <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			errCh <- fmt.Errorf("ollama %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var status PullStatus
			if err := json.Unmarshal(line, &status); err != nil {
				continue
			}
			if status.Error != "" {
				errCh <- fmt.Errorf("pull %s: %s", name, status.Error)
				return
			}
			select {
			case ch <- status:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("scan: %w", err)
		}
	}()

	return ch, errCh
}

// Pull drains PullStream, passing each status to fn when non-nil.
func (c *Client) Pull(ctx context.Context, name string, fn func(PullStatus)) error {
	ch, errCh := c.PullStream(ctx, name)
	for st := range ch {
		if fn != nil {
			fn(st)
		}
	}
	return <-errCh
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
