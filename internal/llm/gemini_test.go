package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newGeminiTestServer(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("gemini", "test-key", "gemini-2.0-flash", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func writeGeminiChunk(w http.ResponseWriter, text string) {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{
				"role":  "model",
				"parts": []map[string]string{{"text": text}},
			}},
		},
	})
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func TestGeminiComplete(t *testing.T) {
	var gotPath, gotSystem, gotUser string
	client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		var req struct {
			SystemInstruction *struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SystemInstruction != nil && len(req.SystemInstruction.Parts) > 0 {
			gotSystem = req.SystemInstruction.Parts[0].Text
		}
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotUser = req.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"  What is a goroutine?  "}]},"finishReason":"STOP"}]}`)
	})

	got, err := client.Complete(context.Background(), []Message{
		{Role: "system", Content: "You are an interviewer."},
		{Role: "user", Content: "Ask a question."},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "What is a goroutine?" {
		t.Fatalf("unexpected completion %q", got)
	}
	if !strings.Contains(gotPath, "gemini-2.0-flash:generateContent") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotSystem != "You are an interviewer." {
		t.Fatalf("system prompt not sent as systemInstruction: %q", gotSystem)
	}
	if gotUser != "Ask a question." {
		t.Fatalf("unexpected user content %q", gotUser)
	}
}

func TestGeminiComplete_APIError(t *testing.T) {
	client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	})

	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error from API failure")
	}
}

func TestGeminiComplete_EmptyResponse(t *testing.T) {
	client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[]},"finishReason":"STOP"}]}`)
	})

	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error for empty response text")
	}
}

func TestGeminiComplete_NoUserMessage(t *testing.T) {
	client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent without a user message")
	})

	_, err := client.Complete(context.Background(), []Message{{Role: "system", Content: "only system"}})
	if err == nil {
		t.Fatal("expected error for missing user message")
	}
}

func TestGeminiStream(t *testing.T) {
	var gotPath string
	client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/event-stream")
		for _, text := range []string{"Good ", "start, ", "add detail."} {
			writeGeminiChunk(w, text)
		}
	})

	var chunks []string
	err := client.Stream(context.Background(), []Message{{Role: "user", Content: "evaluate"}}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	if !strings.Contains(gotPath, "streamGenerateContent") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	joined := chunks[0] + chunks[1] + chunks[2]
	if joined != "Good start, add detail." {
		t.Fatalf("unexpected stream content %q", joined)
	}
}

func TestGeminiStream_ConsumerErrorAborts(t *testing.T) {
	client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeGeminiChunk(w, "one")
		writeGeminiChunk(w, "two")
	})

	var seen int
	err := client.Stream(context.Background(), []Message{{Role: "user", Content: "evaluate"}}, func(chunk string) error {
		seen++
		return fmt.Errorf("consumer gone")
	})
	if err == nil {
		t.Fatal("expected consumer error to propagate")
	}
	if seen != 1 {
		t.Fatalf("expected stream aborted after first chunk, saw %d", seen)
	}
}
