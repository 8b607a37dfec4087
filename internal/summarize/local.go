package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config for the local inference runtime client.
type Config struct {
	Endpoint    string // base URL of the runtime, e.g. http://127.0.0.1:8089
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// LocalProvider implements Summarizer against a llama.cpp-style completion
// endpoint serving a quantized model on the device.
type LocalProvider struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewLocalProvider(cfg Config, logger *slog.Logger) *LocalProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://127.0.0.1:8089"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalProvider{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (p *LocalProvider) Summarize(ctx context.Context, req Request) (Fields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	schema := BuildSummarySchema()
	sys := BuildSystemPrompt()
	user := BuildUserPrompt(req)

	p.logger.Info("summarize.start",
		"req_id", rid,
		"model", p.cfg.Model,
		"temp", p.cfg.Temperature,
		"text_len", len(req.Text),
		"document_type", string(req.DocumentType),
	)

	body := map[string]any{
		"prompt":      sys + "\n\nJSON Schema:\n" + mustJSON(schema) + "\n\n" + user + "\n\nJSON:",
		"temperature": p.cfg.Temperature,
		"n_predict":   p.cfg.MaxTokens,
		"stop":        []string{"\n\n\n"},
	}

	endpoint := strings.TrimRight(p.cfg.Endpoint, "/") + "/completion"
	raw, err := p.post(ctx, endpoint, body)
	if err != nil {
		p.logger.Error("summarize.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Fields{}, nil, err
	}

	var cr struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &cr); err != nil {
		p.logger.Error("summarize.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Fields{}, raw, fmt.Errorf("decode runtime response: %w", err)
	}

	content := ExtractJSONObject(cr.Content)
	if content == "" {
		p.logger.Error("summarize.no_json",
			"req_id", rid, "content", cr.Content,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Fields{}, raw, fmt.Errorf("no JSON object in runtime output")
	}
	rawContent := []byte(content)

	// Validate strictly first; on failure try a lenient sanitize and re-validate.
	if err := ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		cleaned, dropped, sErr := SanitizeOptionalFields(rawContent)
		if sErr != nil {
			p.logger.Error("summarize.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return Fields{}, rawContent, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			p.logger.Error("summarize.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(rawContent),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return Fields{}, rawContent, fmt.Errorf("schema validation failed: %w", vErr)
		}
		p.logger.Warn("summarize.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out Fields
	if err := json.Unmarshal(rawContent, &out); err != nil {
		p.logger.Error("summarize.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Fields{}, rawContent, fmt.Errorf("unmarshal fields: %w", err)
	}

	p.logger.Info("summarize.ok",
		"req_id", rid,
		"summary_len", len(out.Summary),
		"title", out.Title,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

func (p *LocalProvider) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runtime http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			p.logger.Warn("runtime response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("runtime status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
