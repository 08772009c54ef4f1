package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sketch-relay/internal/game"
)

func TestValidateArtifactRef(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		ok   bool
	}{
		{name: "delivery host", ref: "https://v3b.fal.media/files/cat.png", ok: true},
		{name: "foreign host", ref: "https://evil.example/files/cat.png", ok: false},
		{name: "plain http", ref: "http://v3b.fal.media/files/cat.png", ok: false},
		{name: "empty", ref: "", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateArtifactRef(tc.ref)
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected rejection for %q", tc.ref)
			}
		})
	}
}

func TestFalClientQueueFlow(t *testing.T) {
	const endpoint = "fal-ai/test-model"
	queue := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Key secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/"+endpoint:
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["prompt"] != "a tiny boat" {
				t.Errorf("unexpected submit body %v (%v)", body, err)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"request_id": "req-1", "status": "IN_QUEUE"})
		case r.Method == http.MethodGet && r.URL.Path == "/"+endpoint+"/requests/req-1/status":
			_ = json.NewEncoder(w).Encode(map[string]any{"request_id": "req-1", "status": "COMPLETED"})
		case r.Method == http.MethodGet && r.URL.Path == "/"+endpoint+"/requests/req-1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"images": []map[string]any{{"url": "https://v3b.fal.media/files/boat.png"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer queue.Close()

	client := NewFalClient("secret", endpoint, queue.URL)
	ctx := context.Background()

	requestID, err := client.Submit(ctx, "a tiny boat")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if requestID != "req-1" {
		t.Fatalf("expected req-1, got %q", requestID)
	}

	url, err := client.Result(ctx, requestID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if url != "https://v3b.fal.media/files/boat.png" {
		t.Fatalf("unexpected image url %q", url)
	}
}

func TestFalClientPendingResultIsEmpty(t *testing.T) {
	queue := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"request_id": "req-2", "status": "IN_PROGRESS"})
	}))
	defer queue.Close()

	client := NewFalClient("secret", "fal-ai/test-model", queue.URL)
	url, err := client.Result(context.Background(), "req-2")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if url != "" {
		t.Fatalf("expected empty url while pending, got %q", url)
	}
}

func TestFalClientMapsFailuresToExternal(t *testing.T) {
	queue := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer queue.Close()

	client := NewFalClient("secret", "fal-ai/test-model", queue.URL)
	if _, err := client.Submit(context.Background(), "anything"); !errors.Is(err, game.ErrExternal) {
		t.Fatalf("expected ExternalServiceError, got %v", err)
	}
}
