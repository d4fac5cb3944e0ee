package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"

	"dirindex/internal/control"
	"dirindex/internal/volatile"
)

var page = strings.Repeat("<p>directory listing</p>\n", 200)

func html(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, page)
}

func TestCompressZstd(t *testing.T) {
	h := Compress(5)(http.HandlerFunc(html))
	r := httptest.NewRequest(http.MethodGet, "/en", nil)
	r.Header.Set("Accept-Encoding", "gzip, zstd")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Header().Get("Content-Encoding"); got != "zstd" {
		t.Fatalf("expected zstd, got %q", got)
	}
	decoder, err := zstd.NewReader(w.Body)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer decoder.Close()
	data, err := io.ReadAll(decoder)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(data) != page {
		t.Error("decoded body differs")
	}
}

func TestCompressGzip(t *testing.T) {
	h := Compress(5)(http.HandlerFunc(html))
	r := httptest.NewRequest(http.MethodGet, "/en", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("expected gzip, got %q", got)
	}
	reader, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(data) != page {
		t.Error("decoded body differs")
	}
}

func TestStandardRecovers(t *testing.T) {
	logger := volatile.NewLoggerTo(io.Discard, control.LogLevelNone)
	router := chi.NewRouter()
	router.Use(Standard(volatile.NewLogFormatter("http", logger), time.Second, -1)...)
	router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	router.Get("/docs/notes.txt", html)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs//./notes.txt", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected the cleaned path to match, got %d", w.Code)
	}
}

func TestMethodFilter(t *testing.T) {
	fail := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	h := MethodFilter(fail, http.MethodGet, http.MethodHead)(http.HandlerFunc(html))
	for method, code := range map[string]int{
		http.MethodGet:    http.StatusOK,
		http.MethodHead:   http.StatusOK,
		http.MethodPost:   http.StatusMethodNotAllowed,
		http.MethodDelete: http.StatusMethodNotAllowed,
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(method, "/", nil))
		if w.Code != code {
			t.Errorf("%s: expected %d, got %d", method, code, w.Code)
		}
		if code != http.StatusOK && w.Header().Get("Allow") != "GET, HEAD" {
			t.Errorf("%s: unexpected Allow %q", method, w.Header().Get("Allow"))
		}
	}
}

func TestHsts(t *testing.T) {
	h := Hsts(365 * 24 * time.Hour)(http.HandlerFunc(html))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("unexpected header %q", got)
	}
}

func TestDumpKeepsBody(t *testing.T) {
	out := &bytes.Buffer{}
	logger := volatile.NewLoggerTo(out, control.LogLevelTrace)
	body := strings.Repeat("a", 2000)
	var seen string
	h := Dump("http", logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		seen = string(data)
	}))
	r := httptest.NewRequest(http.MethodPost, "/en", strings.NewReader(body))
	r.Header.Set("X-Test", "yes")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if seen != body {
		t.Errorf("expected the full body downstream, got %d bytes", len(seen))
	}
	if !strings.Contains(out.String(), "X-Test") || !strings.Contains(out.String(), "=== body 1024") {
		t.Errorf("unexpected dump %s", out.String())
	}

	out.Reset()
	logger.SetLevel(control.LogLevelInfo)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/en", nil))
	if out.Len() != 0 {
		t.Errorf("expected no dump above trace, got %s", out.String())
	}
}

func TestAssets(t *testing.T) {
	logger := volatile.NewLoggerTo(io.Discard, control.LogLevelNone)
	vfs := volatile.NewFs()
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := vfs.Put("/robots.txt", "text/plain", []byte("User-agent: *\n"), when); err != nil {
		t.Fatalf("Put: %v", err)
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Assets(vfs, logger)(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))
	if w.Code != http.StatusOK || w.Body.String() != "User-agent: *\n" {
		t.Errorf("unexpected response %d %q", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "text/plain" {
		t.Errorf("unexpected content type %s", got)
	}
	if got := w.Header().Get("Last-Modified"); got != when.Format(http.TimeFormat) {
		t.Errorf("unexpected last modified %s", got)
	}

	for _, r := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/favicon.ico", nil),
		httptest.NewRequest(http.MethodPost, "/robots.txt", nil),
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusTeapot {
			t.Errorf("%s %s: expected pass through, got %d", r.Method, r.URL.Path, w.Code)
		}
	}

	empty := Assets(volatile.NewFs(), logger)(next)
	w = httptest.NewRecorder()
	empty.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("expected empty store to pass through, got %d", w.Code)
	}
}

func TestPrometheus(t *testing.T) {
	registry := prometheus.NewRegistry()
	instrument, err := Prometheus("http", registry)
	if err != nil {
		t.Fatalf("Prometheus: %v", err)
	}
	h := instrument(http.HandlerFunc(html))
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	total := 0.0
	for _, family := range families {
		if family.GetName() != "dirindex_http_requests" {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	if total != 3 {
		t.Errorf("expected 3 requests, got %v", total)
	}

	if _, err := Prometheus("http", registry); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}
