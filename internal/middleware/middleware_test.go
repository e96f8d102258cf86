package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestRequestIDAndAccessLog(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	var seen string
	h := RequestID(base)(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodPost, "/nanobanana/ingest", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "rid-1" || rec.Header().Get("X-Request-ID") != "rid-1" {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rec.Header().Get("X-Request-ID"))
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("access log is not json: %v (%s)", err, buf.String())
	}
	if line["request_id"] != "rid-1" || line["path"] != "/nanobanana/ingest" || line["status"] != float64(201) {
		t.Fatalf("access log = %v", line)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	h := RequestID(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if len(rec.Header().Get("X-Request-ID")) != 36 {
		t.Fatalf("generated id = %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://ui.test")
	CORS([]string{"http://ui.test"})(next).ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://ui.test" {
		t.Fatalf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/shots/process", nil)
	req.Header.Set("Origin", "http://other.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	CORS([]string{"*"})(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight code=%d origin=%q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	CORS([]string{"http://ui.test"})(next).ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unlisted origin allowed")
	}
}
