package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomaz/labelscan/internal/domain"
)

func testImage() *domain.PreparedImage {
	return &domain.PreparedImage{Data: []byte("fake-png-bytes"), Edge: 64}
}

func TestVLMService_ExtractLabel(t *testing.T) {
	var captured openAIRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"product_name\":\"Milk\"}"}}]}`))
	}))
	defer srv.Close()

	svc := NewVLMService(&VLMConfig{
		Model:   "gpt-4o-mini",
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})

	reply, err := svc.ExtractLabel(context.Background(), testImage(), "read the label")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != `{"product_name":"Milk"}` {
		t.Errorf("unexpected reply %q", reply)
	}

	if captured.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", captured.Model)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" {
		t.Errorf("expected first message to be system, got %q", captured.Messages[0].Role)
	}

	// The user message must carry the prompt text and a PNG data URL.
	body, err := json.Marshal(captured.Messages[1].Content)
	if err != nil {
		t.Fatalf("failed to re-marshal user content: %v", err)
	}
	if !strings.Contains(string(body), "read the label") {
		t.Error("user message is missing the prompt text")
	}
	if !strings.Contains(string(body), "data:image/png;base64,") {
		t.Error("user message is missing the image data URL")
	}
}

func TestVLMService_ExtractLabel_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	svc := NewVLMService(&VLMConfig{Model: "gpt-4o-mini", APIKey: "k", BaseURL: srv.URL})

	_, err := svc.ExtractLabel(context.Background(), testImage(), "prompt")
	if err == nil {
		t.Fatal("expected an error for non-2xx status")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected provider message in error, got %v", err)
	}
}

func TestVLMService_ExtractLabel_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	svc := NewVLMService(&VLMConfig{Model: "gpt-4o-mini", APIKey: "k", BaseURL: srv.URL})

	_, err := svc.ExtractLabel(context.Background(), testImage(), "prompt")
	if err == nil {
		t.Fatal("expected an error when the response has no choices")
	}
}
