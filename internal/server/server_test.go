package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/xcaption/internal/caption"
	"github.com/mgpai22/xcaption/internal/service"
	"github.com/mgpai22/xcaption/internal/ytdlp"
)

type serviceStub struct {
	result  *service.Result
	err     error
	info    *ytdlp.VideoInfo
	lastReq service.Request
}

func (s *serviceStub) Captions(_ context.Context, req service.Request) (*service.Result, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *serviceStub) VideoInfo(_ context.Context, videoID string) (*ytdlp.VideoInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

func (s *serviceStub) ParseUpload(text string, opts caption.ParseOptions) (*service.Result, error) {
	return service.New(service.Options{}).ParseUpload(text, opts)
}

func sampleResult() *service.Result {
	return &service.Result{
		VideoID:  "dQw4w9WgXcQ",
		Language: "en",
		Source:   service.SourceYtDlp,
		Captions: []caption.Caption{
			{Start: 1.2, End: 4.5, Text: "Hello", StartTimeString: "00:00:01,240", EndTimeString: "00:00:04,500"},
		},
	}
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", w.Body.String(), err)
	}
	return resp["detail"]
}

func TestRoot(t *testing.T) {
	srv := New(&serviceStub{}, Options{Version: "1.2.3"})
	w := do(t, srv, http.MethodGet, "/", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Service != "XCaption API" || resp.Version != "1.2.3" {
		t.Errorf("unexpected status response: %+v", resp)
	}

	if w := do(t, srv, http.MethodGet, "/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", w.Code)
	}
}

func TestCaptionsEnvelope(t *testing.T) {
	stub := &serviceStub{result: sampleResult()}
	srv := New(stub, Options{})

	w := do(t, srv, http.MethodGet, "/api/captions/dQw4w9WgXcQ?lang=en-us&translate=es&stripTags=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if stub.lastReq.VideoID != "dQw4w9WgXcQ" || stub.lastReq.Language != "en-us" ||
		stub.lastReq.Translate != "es" || !stub.lastReq.StripTags {
		t.Errorf("unexpected service request: %+v", stub.lastReq)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"success", "videoId", "language", "captions", "count", "source"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("response missing %q: %s", key, w.Body.String())
		}
	}
	if resp["count"].(float64) != 1 || resp["source"] != "yt-dlp" {
		t.Errorf("unexpected envelope: %v", resp)
	}
	first := resp["captions"].([]any)[0].(map[string]any)
	if first["startTimeString"] != "00:00:01,240" || first["start"].(float64) != 1.2 {
		t.Errorf("unexpected caption JSON: %v", first)
	}
}

func TestCaptionsStripTagsDefault(t *testing.T) {
	stub := &serviceStub{result: sampleResult()}
	srv := New(stub, Options{StripTagsDefault: true})

	do(t, srv, http.MethodGet, "/api/captions/dQw4w9WgXcQ", "")
	if !stub.lastReq.StripTags {
		t.Error("expected configured default to apply")
	}
	do(t, srv, http.MethodGet, "/api/captions/dQw4w9WgXcQ?stripTags=false", "")
	if stub.lastReq.StripTags {
		t.Error("query parameter should override the default")
	}
	if w := do(t, srv, http.MethodGet, "/api/captions/dQw4w9WgXcQ?stripTags=maybe", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad stripTags, got %d", w.Code)
	}
}

func TestCaptionsSubtitleFormats(t *testing.T) {
	srv := New(&serviceStub{result: sampleResult()}, Options{})

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"srt", "application/x-subrip; charset=utf-8", "00:00:01,240 --> 00:00:04,500"},
		{"vtt", "text/vtt; charset=utf-8", "00:00:01.240 --> 00:00:04.500"},
		{"ass", "text/x-ssa; charset=utf-8", "Dialogue:"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := do(t, srv, http.MethodGet, "/api/captions/dQw4w9WgXcQ?format="+tt.format, "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200 OK, got %d", w.Code)
			}
			if got := w.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("content type = %q, want %q", got, tt.contentType)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("body missing %q:\n%s", tt.contains, w.Body.String())
			}
		})
	}

	if w := do(t, srv, http.MethodGet, "/api/captions/dQw4w9WgXcQ?format=xml", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", w.Code)
	}
}

func TestCaptionsErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"invalid id", fmt.Errorf("%w: %q", ytdlp.ErrInvalidVideoID, "x y"), http.StatusBadRequest, "Failed to fetch captions: invalid video id"},
		{"invalid language", service.ErrInvalidLanguage, http.StatusBadRequest, "Failed to fetch captions: invalid language tag"},
		{"no captions", service.ErrNoCaptions, http.StatusNotFound, "Failed to fetch captions: no captions found in subtitle file"},
		{"no subtitles", ytdlp.ErrNoSubtitles, http.StatusNotFound, "Failed to fetch captions: no subtitle files found"},
		{"timeout", ytdlp.ErrTimeout, http.StatusGatewayTimeout, "Failed to fetch captions: caption download timed out"},
		{"not installed", ytdlp.ErrNotInstalled, http.StatusInternalServerError, "Failed to fetch captions: yt-dlp not found"},
		{"exit error", &ytdlp.ExitError{Code: 1, Stderr: "ERROR: Private video"}, http.StatusInternalServerError, "Failed to fetch captions: yt-dlp failed: ERROR: Private video"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(&serviceStub{err: tt.err}, Options{})
			w := do(t, srv, http.MethodGet, "/api/captions/dQw4w9WgXcQ", "")
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if detail := decodeDetail(t, w); !strings.HasPrefix(detail, tt.detail) {
				t.Errorf("detail = %q, want prefix %q", detail, tt.detail)
			}
		})
	}
}

func TestVideoInfo(t *testing.T) {
	info := &ytdlp.VideoInfo{VideoID: "dQw4w9WgXcQ", Title: "Song", Uploader: "Rick", Duration: 212, ViewCount: 10, Description: "abc..."}
	srv := New(&serviceStub{info: info}, Options{})

	w := do(t, srv, http.MethodGet, "/api/video-info/dQw4w9WgXcQ", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["title"] != "Song" || resp["view_count"].(float64) != 10 || resp["videoId"] != "dQw4w9WgXcQ" {
		t.Errorf("unexpected info: %v", resp)
	}

	timeout := New(&serviceStub{err: ytdlp.ErrTimeout}, Options{})
	w = do(t, timeout, http.MethodGet, "/api/video-info/dQw4w9WgXcQ", "")
	if w.Code != http.StatusRequestTimeout || decodeDetail(t, w) != "Request timed out" {
		t.Errorf("expected 408 Request timed out, got %d %s", w.Code, w.Body.String())
	}
}

func TestParseUpload(t *testing.T) {
	srv := New(&serviceStub{}, Options{})
	body := "1\n00:00:01,000 --> 00:00:02,000\n<b>Hi</b>\n\n2\nbad\n"

	w := do(t, srv, http.MethodPost, "/api/captions/parse?stripTags=1", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var resp captionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Captions[0].Text != "Hi" || resp.Source != service.SourceUpload {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Dropped == nil || *resp.Dropped != 1 {
		t.Errorf("dropped = %v, want 1", resp.Dropped)
	}

	w = do(t, srv, http.MethodPost, "/api/captions/parse", "nothing here")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for empty parse, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	srv := New(&serviceStub{result: sampleResult()}, Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/captions/dQw4w9WgXcQ", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "content-type" {
		t.Errorf("allow headers = %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("credentials must not be allowed")
	}

	restricted := New(&serviceStub{result: sampleResult()}, Options{CORSOrigins: []string{"https://app.example"}})
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	restricted.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin should not be allowed, got %q", got)
	}

	req.Header.Set("Origin", "https://app.example")
	w = httptest.NewRecorder()
	restricted.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("listed origin should be echoed, got %q", got)
	}
}

func TestRequestID(t *testing.T) {
	srv := New(&serviceStub{}, Options{})

	w := do(t, srv, http.MethodGet, "/", "")
	if id := w.Header().Get(requestIDHeader); len(id) != 36 {
		t.Errorf("expected generated uuid, got %q", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "trace-123")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "trace-123" {
		t.Errorf("expected client id to be echoed, got %q", got)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := New(&serviceStub{}, Options{ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if _, err := http.Get("http://" + listener.Addr().String() + "/"); err == nil {
		t.Error("expected connection failure after shutdown")
	}
}
