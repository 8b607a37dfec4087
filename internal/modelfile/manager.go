// Package modelfile fetches quantized model files for the on-device
// summarization runtime and caches them locally. Downloads are atomic: data
// lands in a temp file and is renamed into place only after the size check
// passes, so a cancelled download never leaves a partial model behind.
package modelfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Spec describes one downloadable model file.
type Spec struct {
	Name     string // local file name, e.g. "qwen2.5-0.5b-instruct-q5_k_m.gguf"
	URLPath  string // path under the manager's base URL
	SHA256   string // hex digest; empty skips verification
	MinBytes int64  // sanity floor; a smaller body means a truncated download
}

// Manager resolves model specs against a local cache directory.
type Manager struct {
	baseURL  string
	cacheDir string
	http     *http.Client
	logger   *slog.Logger
}

func NewManager(baseURL, cacheDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		baseURL:  strings.TrimRight(baseURL, "/"),
		cacheDir: cacheDir,
		http:     &http.Client{Timeout: 30 * time.Minute},
		logger:   logger,
	}
}

// Path returns where the model lives (or would live) in the cache.
func (m *Manager) Path(spec Spec) string {
	return filepath.Join(m.cacheDir, spec.Name)
}

// Ensure returns the local path of the model, downloading it first when it is
// not already cached.
func (m *Manager) Ensure(ctx context.Context, spec Spec) (string, error) {
	dst := m.Path(spec)
	if fi, err := os.Stat(dst); err == nil && fi.Size() > 0 {
		m.logger.Debug("modelfile.cached", "name", spec.Name, "bytes", fi.Size())
		return dst, nil
	}
	if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	url := m.baseURL + "/" + strings.TrimLeft(spec.URLPath, "/")
	start := time.Now()
	m.logger.Info("modelfile.download.start", "name", spec.Name, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download model: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			m.logger.Warn("modelfile response body close error", "error", cerr)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download model: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(m.cacheDir, spec.Name+".part-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() // no-op after successful rename

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	if cerr := tmp.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write model: %w", err)
	}
	if spec.MinBytes > 0 && n < spec.MinBytes {
		return "", fmt.Errorf("model download truncated: got %d bytes, want at least %d", n, spec.MinBytes)
	}
	if spec.SHA256 != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(got, spec.SHA256) {
			return "", fmt.Errorf("model checksum mismatch: got %s", got)
		}
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return "", fmt.Errorf("install model: %w", err)
	}

	m.logger.Info("modelfile.download.ok",
		"name", spec.Name,
		"bytes", n,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return dst, nil
}
