// Package download fetches runtime installers over HTTP.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Result describes a completed download.
type Result struct {
	Path   string
	Size   int64
	SHA256 string
}

// Progress receives running byte counts. total is -1 when unknown.
type Progress func(done, total int64)

// Client performs downloads. The zero value uses http.DefaultClient.
type Client struct {
	HTTP     *http.Client
	Progress Progress
}

// Open issues a GET and returns the body. The caller closes it.
func (c Client) Open(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("download failed: %s: %s", url, resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}

// Fetch streams url into dst, creating parent dirs. dst is only replaced once
// the body has been read completely.
func (c Client) Fetch(ctx context.Context, url, dst string) (Result, error) {
	body, total, err := c.Open(ctx, url)
	if err != nil {
		return Result{}, err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Result{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".part-*")
	if err != nil {
		return Result{}, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	h := sha256.New()
	w := io.MultiWriter(tmp, h, &counter{total: total, fn: c.Progress})
	n, err := io.Copy(w, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Result{}, fmt.Errorf("download %s: %w", url, err)
	}
	if total >= 0 && n != total {
		return Result{}, fmt.Errorf("download %s: short body (%d of %d bytes)", url, n, total)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return Result{}, err
	}
	return Result{Path: dst, Size: n, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

// Describe renders a byte count the way progress lines show it.
func Describe(done, total int64) string {
	if total <= 0 {
		return humanize.Bytes(uint64(done))
	}
	return fmt.Sprintf("%s / %s", humanize.Bytes(uint64(done)), humanize.Bytes(uint64(total)))
}

type counter struct {
	done  int64
	total int64
	fn    Progress
}

func (c *counter) Write(p []byte) (int, error) {
	c.done += int64(len(p))
	if c.fn != nil {
		c.fn(c.done, c.total)
	}
	return len(p), nil
}
