package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/iterator"

	"github.com/mrsingh-rishi/cambai-go/model"
)

func TestStreamReturnsAudioInOrder(t *testing.T) {
	parts := [][]byte{[]byte("RIFF"), bytes.Repeat([]byte{7}, 10000), []byte("tail")}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tts-stream" {
			t.Errorf("request=%s %s, want POST /tts-stream", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("x-api-key=%q, want secret", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID")
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Text != "Hello" || req.VoiceID != 123 || req.Language != "en-us" {
			t.Errorf("request=%+v", req)
		}
		for _, p := range parts {
			w.Write(p)
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	c, err := NewClient("secret", WithBaseURL(srv.URL+"/"), WithChunkSize(1024))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	s, err := c.Stream(context.Background(), Request{Text: "Hello", VoiceID: 123})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer s.Close()

	var got []byte
	for {
		chunk, err := s.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if len(chunk) == 0 || len(chunk) > 1024 {
			t.Fatalf("chunk of %d bytes", len(chunk))
		}
		got = append(got, chunk...)
	}
	if want := bytes.Join(parts, nil); !bytes.Equal(got, want) {
		t.Fatalf("got %d bytes, want %d", len(got), len(want))
	}
	if _, err := s.Next(); !errors.Is(err, iterator.Done) {
		t.Fatalf("next after end err=%v, want iterator.Done", err)
	}
}

func TestStreamAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := NewClient("secret", WithBaseURL(srv.URL))
	_, err := c.Stream(context.Background(), Request{Text: "Hello", VoiceID: 1})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err=%v, want *model.APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "voice not found" {
		t.Fatalf("api error=%+v", apiErr)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Fatalf("want error for empty API key")
	}
}

func TestStreamRequiresText(t *testing.T) {
	c, _ := NewClient("secret")
	if _, err := c.Stream(context.Background(), Request{VoiceID: 1}); err == nil {
		t.Fatalf("want error for empty text")
	}
}
