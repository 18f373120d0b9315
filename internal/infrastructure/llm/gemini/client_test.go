package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

func TestGenerateSendsPromptAndKey(t *testing.T) {
	var capturedPrompt, capturedKey, capturedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedKey = r.Header.Get("x-goog-api-key")
		var payload generateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(payload.Contents) == 1 && len(payload.Contents[0].Parts) == 1 {
			capturedPrompt = payload.Contents[0].Parts[0].Text
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":" insight "},{"text":"text"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "secret", "gemini-pro")
	text, err := client.Generate(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "insight text" {
		t.Fatalf("unexpected text %q", text)
	}
	if capturedPath != "/v1beta/models/gemini-pro:generateContent" {
		t.Fatalf("unexpected path %s", capturedPath)
	}
	if capturedKey != "secret" || capturedPrompt != "analyze this" {
		t.Fatalf("unexpected request key=%q prompt=%q", capturedKey, capturedPrompt)
	}
	if client.Model() != "gemini-pro" {
		t.Fatalf("unexpected model %q", client.Model())
	}
}

func TestGenerateClassifiesHTTPFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`, domain.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, `{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`, domain.ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"code":429,"message":"Quota exceeded for quota metric requests per minute","status":"RESOURCE_EXHAUSTED"}}`, domain.ErrTemporary},
		{"quota exhausted", http.StatusTooManyRequests, `{"error":{"code":429,"message":"You exceeded your current quota, please check your plan","status":"RESOURCE_EXHAUSTED"}}`, domain.ErrQuotaExhausted},
		{"server error", http.StatusServiceUnavailable, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`, domain.ErrTemporary},
		{"malformed", http.StatusBadRequest, `{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`, domain.ErrInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := New(server.URL, "key", "gemini-pro").Generate(context.Background(), "prompt")
			if !domain.IsKind(err, tc.kind) {
				t.Fatalf("expected kind %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestGenerateBlockedPromptIsInvalidInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "key", "gemini-pro").Generate(context.Background(), "prompt")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerateHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(server.URL, "key", "gemini-pro").Generate(ctx, "prompt")
	if err == nil {
		t.Fatalf("expected error")
	}
	if ctx.Err() == nil {
		t.Fatalf("expected context to be done")
	}
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrAnalysisPermanent) {
		t.Fatalf("context errors must pass through unclassified, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("request was not cancelled promptly")
	}
}

func TestHTTPStatusErrorPrefersAPIMessage(t *testing.T) {
	err := &HTTPStatusError{Operation: "generate", Status: "400 Bad Request", Message: "bad field", Body: "{...}"}
	if !strings.Contains(err.Error(), "bad field") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}
