package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scansnap/scansnap/internal/geometry"
)

func TestClientRecognize(t *testing.T) {
	payload := []byte("fake-jpeg-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/recognize" {
			t.Errorf("path = %s, want /v1/recognize", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req recognizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil || string(decoded) != string(payload) {
			t.Errorf("image not base64 of payload")
		}
		if req.Width != 1000 || req.Height != 1500 {
			t.Errorf("size = %dx%d", req.Width, req.Height)
		}
		if req.Language != "eng" {
			t.Errorf("language = %q", req.Language)
		}
		_ = json.NewEncoder(w).Encode(recognizeResponse{Words: []Word{
			{Text: "Total", Confidence: 0.95, Box: geometry.BoundingBox{X: 10, Y: 20, Width: 80, Height: 16}},
			{Text: "$5.00", Confidence: 0.91, Box: geometry.BoundingBox{X: 100, Y: 20, Width: 60, Height: 16}},
		}})
	}))
	defer srv.Close()

	c := NewCloudProvider(Config{Endpoint: srv.URL, APIKey: "test-key"}, nil)
	res, err := c.Recognize(context.Background(), RecognitionRequest{
		Image: payload,
		Size:  geometry.Size{Width: 1000, Height: 1500},
	})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(res.Words) != 2 || res.Words[0].Text != "Total" {
		t.Fatalf("words = %+v", res.Words)
	}
}

func TestClientRecognizeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCloudProvider(Config{Endpoint: srv.URL}, nil)
	if _, err := c.Recognize(context.Background(), RecognitionRequest{Image: []byte("x")}); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestOnDeviceProviderSendsNoAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("on-device request carried Authorization %q", got)
		}
		_ = json.NewEncoder(w).Encode(recognizeResponse{})
	}))
	defer srv.Close()

	c := NewOnDeviceProvider(Config{Endpoint: srv.URL, APIKey: "should-be-stripped"}, nil)
	if _, err := c.Recognize(context.Background(), RecognitionRequest{Image: []byte("x")}); err != nil {
		t.Fatalf("Recognize: %v", err)
	}
}
