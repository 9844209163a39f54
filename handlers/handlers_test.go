package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nijaru/yt-summary/chunker"
	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/db"
	"github.com/nijaru/yt-summary/models"
	"github.com/nijaru/yt-summary/pipeline"
	"github.com/nijaru/yt-summary/summary"
	"github.com/nijaru/yt-summary/transcript"
)

func newTestHandler(t *testing.T, source transcript.Source) *Handler {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit = 100
	cfg.RateLimitInterval = time.Millisecond

	p := pipeline.New(
		source,
		chunker.New(chunker.Config{MaxLength: 500, MinLength: 0}),
		summary.NewService(summary.EchoModel{}, summary.DefaultOptions()),
	)
	return New(p, cfg)
}

func captions() transcript.Source {
	return transcript.SourceFunc(func(ctx context.Context, videoID string) ([]transcript.Entry, error) {
		return []transcript.Entry{
			{Text: "Hello world.", Start: 0.0},
			{Text: "This is a test.", Start: 2.0},
		}, nil
	})
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) models.SummaryResponse {
	t.Helper()
	var resp models.SummaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return resp
}

func TestIndexGet(t *testing.T) {
	h := newTestHandler(t, captions())

	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Enter a YouTube Video URL or paste a transcript") {
		t.Errorf("page does not contain the input prompt")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("expected request ID header")
	}
}

func TestIndexUnknownPath(t *testing.T) {
	h := newTestHandler(t, captions())

	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, httptest.NewRequest("GET", "/missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestIndexPostRendersTimestamps(t *testing.T) {
	h := newTestHandler(t, captions())

	form := url.Values{"input": {"https://youtu.be/dQw4w9WgXcQ"}, "timestamps": {"on"}}
	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"Hello world. (Timestamp: 0.00 s)", "This is a test. (Timestamp: 2.00 s)"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestIndexPostRendersError(t *testing.T) {
	disabled := transcript.SourceFunc(func(ctx context.Context, videoID string) ([]transcript.Entry, error) {
		return nil, transcript.ErrTranscriptsDisabled
	})
	h := newTestHandler(t, disabled)

	form := url.Values{"input": {"https://youtu.be/dQw4w9WgXcQ"}}
	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Error: Transcripts are disabled for this video.") {
		t.Errorf("page missing error message: %s", rr.Body.String())
	}
}

func TestSummarizeForm(t *testing.T) {
	h := newTestHandler(t, captions())

	form := url.Values{"input": {"Pasted text. Second sentence."}}
	req := httptest.NewRequest("POST", "/api/summarize", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp.Source != "text" || resp.Summary != "Pasted text. Second sentence." {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(resp.Sentences) != 0 {
		t.Errorf("pasted text should not carry timestamps: %+v", resp.Sentences)
	}
}

func TestSummarizeJSON(t *testing.T) {
	h := newTestHandler(t, captions())

	body := `{"input": "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "timestamps": true}`
	req := httptest.NewRequest("POST", "/api/summarize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("expected video ID, got %q", resp.VideoID)
	}
	if len(resp.Sentences) != 2 || resp.Sentences[1].Start == nil || *resp.Sentences[1].Start != 2.0 {
		t.Errorf("unexpected sentences %+v", resp.Sentences)
	}
}

func TestSummarizeUpload(t *testing.T) {
	h := newTestHandler(t, captions())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("input", "https://youtu.be/dQw4w9WgXcQ")
	fw, err := mw.CreateFormFile("file", "transcript.txt")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("Uploaded [00:01] transcript body."))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/summarize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp.Source != "upload" || resp.Transcript != "Uploaded transcript body." {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestSummarizeErrors(t *testing.T) {
	disabled := transcript.SourceFunc(func(ctx context.Context, videoID string) ([]transcript.Entry, error) {
		return nil, transcript.ErrTranscriptsDisabled
	})

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantError   string
	}{
		{"empty input", "application/x-www-form-urlencoded", "input=", http.StatusBadRequest, "Error: Enter a YouTube URL or paste a transcript"},
		{"bad url", "application/x-www-form-urlencoded", "input=" + url.QueryEscape("https://youtube.com/feed"), http.StatusBadRequest, "Error: Invalid YouTube URL"},
		{"disabled", "application/x-www-form-urlencoded", "url=" + url.QueryEscape("https://youtu.be/dQw4w9WgXcQ"), http.StatusUnprocessableEntity, "Error: Transcripts are disabled for this video."},
		{"bad json", "application/json", "{", http.StatusBadRequest, "Error: Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, disabled)

			req := httptest.NewRequest("POST", "/api/summarize", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			rr := httptest.NewRecorder()
			h.Routes().ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON %q: %v", rr.Body.String(), err)
			}
			if body["error"] != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, body["error"])
			}
		})
	}
}

func TestSummarizeJSONRefresh(t *testing.T) {
	store, err := db.InitializeDB(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cfg := config.Default()
	cfg.RateLimit = 100
	p := pipeline.New(captions(), chunker.New(chunker.Config{MaxLength: 500}),
		summary.NewService(summary.EchoModel{}, summary.DefaultOptions()), pipeline.WithCache(store))
	routes := New(p, cfg).Routes()

	post := func(body string) models.SummaryResponse {
		req := httptest.NewRequest("POST", "/api/summarize", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		routes.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		return decodeResponse(t, rr)
	}

	if post(`{"input": "Cache me please."}`).Cached {
		t.Error("first request should not be cached")
	}
	if !post(`{"input": "Cache me please."}`).Cached {
		t.Error("second request should be cached")
	}
	if post(`{"input": "Cache me please.", "refresh": true}`).Cached {
		t.Error("refresh should bypass the cache")
	}
}

func TestSummarizeMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, captions())

	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, httptest.NewRequest("GET", "/api/summarize", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rr.Code)
	}
}

func TestSummarizeRateLimited(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit = 1
	cfg.RateLimitInterval = time.Hour
	p := pipeline.New(captions(), chunker.New(chunker.Config{MaxLength: 500}),
		summary.NewService(summary.EchoModel{}, summary.DefaultOptions()))
	routes := New(p, cfg).Routes()

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/summarize", strings.NewReader("input=Some+text."))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		routes.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("expected [200 429], got %v", codes)
	}

	// The page itself is not rate limited.
	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected GET / to succeed, got %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, captions())

	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestFormBool(t *testing.T) {
	tests := map[string]bool{"on": true, "true": true, "1": true, "": false, "false": false, "nope": false}
	for in, want := range tests {
		if got := formBool(in); got != want {
			t.Errorf("formBool(%q) = %v, want %v", in, got, want)
		}
	}
}
