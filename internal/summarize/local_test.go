package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scansnap/scansnap/constants"
)

func runtimeStub(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completion" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if _, ok := body["prompt"]; !ok {
			t.Error("request missing prompt")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"content": content})
	}))
}

func TestLocalProviderSummarize(t *testing.T) {
	srv := runtimeStub(t, `{"summary":"A cafe receipt for $5.00.","title":"Corner Cafe"}`)
	defer srv.Close()

	p := NewLocalProvider(Config{Endpoint: srv.URL}, nil)
	fields, raw, err := p.Summarize(context.Background(), Request{
		Text:         "Corner Cafe\nTotal $5.00",
		DocumentType: constants.DocTypeReceipt,
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if fields.Summary != "A cafe receipt for $5.00." {
		t.Errorf("summary = %q", fields.Summary)
	}
	if fields.Title != "Corner Cafe" {
		t.Errorf("title = %q", fields.Title)
	}
	if len(raw) == 0 {
		t.Error("expected raw model output")
	}
}

func TestLocalProviderSummarizeLenientFallback(t *testing.T) {
	// Prose-wrapped output with a null optional: extract, sanitize, revalidate.
	srv := runtimeStub(t, "Sure! ```json\n{\"summary\":\"A letter.\",\"title\":null,\"confidence\":0.9}\n```")
	defer srv.Close()

	p := NewLocalProvider(Config{Endpoint: srv.URL}, nil)
	fields, _, err := p.Summarize(context.Background(), Request{Text: "Dear Sir"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if fields.Summary != "A letter." {
		t.Errorf("summary = %q", fields.Summary)
	}
	if fields.Title != "" {
		t.Errorf("title = %q, want dropped", fields.Title)
	}
}

func TestLocalProviderSummarizeNoJSON(t *testing.T) {
	srv := runtimeStub(t, "I cannot help with that.")
	defer srv.Close()

	p := NewLocalProvider(Config{Endpoint: srv.URL}, nil)
	if _, _, err := p.Summarize(context.Background(), Request{Text: "x"}); err == nil {
		t.Fatal("expected error when output has no JSON object")
	}
}

func TestLocalProviderSummarizeRuntimeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewLocalProvider(Config{Endpoint: srv.URL}, nil)
	if _, _, err := p.Summarize(context.Background(), Request{Text: "x"}); err == nil {
		t.Fatal("expected error on runtime 503")
	}
}

func TestLocalProviderSummarizeMissingRequired(t *testing.T) {
	srv := runtimeStub(t, `{"title":"No summary here"}`)
	defer srv.Close()

	p := NewLocalProvider(Config{Endpoint: srv.URL}, nil)
	if _, _, err := p.Summarize(context.Background(), Request{Text: "x"}); err == nil {
		t.Fatal("expected schema validation error without summary")
	}
}
