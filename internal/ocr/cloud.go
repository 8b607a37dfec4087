package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config for a recognition client.
type Config struct {
	Endpoint string // full base URL of the recognition service
	APIKey   string // empty for local runtimes
	Language string // default "eng"
	Timeout  time.Duration
}

// Client talks JSON to a recognition HTTP service. The same client backs both
// variants: NewCloudProvider for the hosted API and NewOnDeviceProvider for a
// recognition runtime listening on localhost.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func newClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// NewCloudProvider builds a client for the hosted recognition API.
func NewCloudProvider(cfg Config, logger *slog.Logger) *Client {
	return newClient(cfg, logger)
}

// NewOnDeviceProvider builds a client for a local recognition runtime.
// No authorization header is sent.
func NewOnDeviceProvider(cfg Config, logger *slog.Logger) *Client {
	cfg.APIKey = ""
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://127.0.0.1:8090"
	}
	return newClient(cfg, logger)
}

type recognizeRequest struct {
	Image    string `json:"image"` // base64 JPEG
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Language string `json:"language"`
}

type recognizeResponse struct {
	Words []Word `json:"words"`
}

// Recognize sends the compressed image and returns word detections in the
// compressed image's coordinate space. Mapping back to original-image space
// is the caller's job (geometry.Frame).
func (c *Client) Recognize(ctx context.Context, req RecognitionRequest) (RecognitionResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	lang := req.Language
	if lang == "" {
		lang = c.cfg.Language
	}
	body := recognizeRequest{
		Image:    base64.StdEncoding.EncodeToString(req.Image),
		Width:    int(req.Size.Width),
		Height:   int(req.Size.Height),
		Language: lang,
	}

	c.logger.Info("ocr.recognize.start",
		"req_id", rid,
		"image_bytes", len(req.Image),
		"width", body.Width,
		"height", body.Height,
		"language", lang,
	)

	endpoint := strings.TrimRight(c.cfg.Endpoint, "/") + "/v1/recognize"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("ocr.recognize.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return RecognitionResult{}, err
	}

	var resp recognizeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Error("ocr.recognize.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return RecognitionResult{}, fmt.Errorf("decode recognition response: %w", err)
	}

	c.logger.Info("ocr.recognize.ok",
		"req_id", rid,
		"words", len(resp.Words),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return RecognitionResult{Words: resp.Words, Duration: time.Since(start)}, nil
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognition http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("recognition response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("recognition status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
