package volatile

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dirindex/internal/control"
)

func TestLoggerLevels(t *testing.T) {
	out := &bytes.Buffer{}
	logger := NewLoggerTo(out, control.LogLevelWarn)
	logger.Debug("hidden %d", 1)
	logger.Info("hidden %d", 2)
	logger.Warn("shown %d", 3)
	logger.Audit("always %d", 4)
	text := out.String()
	if strings.Contains(text, "hidden") {
		t.Errorf("unexpected lines below warn: %s", text)
	}
	if !strings.Contains(text, "[warn ] shown 3") || !strings.Contains(text, "[audit] always 4") {
		t.Errorf("missing lines: %s", text)
	}

	if err := logger.SetLevelFromString("nonsense"); err == nil {
		t.Error("expected an invalid level to fail")
	}
	if logger.Level() != control.LogLevelWarn {
		t.Errorf("expected the level to stay warn, got %s", logger.Level())
	}
}

func TestLoggerFatalExits(t *testing.T) {
	out := &bytes.Buffer{}
	logger := NewLoggerTo(out, control.LogLevelInfo)
	code := 0
	logger.exit = func(c int) { code = c }
	logger.Fatal("bind %s", "failed")
	if code != 1 || !strings.Contains(out.String(), "[fatal] bind failed") {
		t.Errorf("unexpected fatal handling %d %s", code, out.String())
	}
}

func TestLogEntryTrim(t *testing.T) {
	out := &bytes.Buffer{}
	logger := NewLoggerTo(out, control.LogLevelInfo)
	logger.Trim("/metrics")
	formatter := NewLogFormatter("http", logger)

	r := httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil)
	formatter.NewLogEntry(r).Write(http.StatusOK, 10, nil, time.Millisecond, nil)
	if out.Len() != 0 {
		t.Errorf("expected a trimmed request, got %s", out.String())
	}

	r = httptest.NewRequest(http.MethodGet, "/en?dir=docs", nil)
	formatter.NewLogEntry(r).Write(http.StatusOK, 10, nil, time.Millisecond, nil)
	if !strings.Contains(out.String(), "/en?dir=docs") || !strings.Contains(out.String(), "[serve] http") {
		t.Errorf("unexpected access line %s", out.String())
	}
}

func TestHttpLogWriter(t *testing.T) {
	out := &bytes.Buffer{}
	logger := NewLoggerTo(out, control.LogLevelInfo)
	writer := control.NewHttpLogWriter(logger)
	writer.Write([]byte("http: TLS handshake error from 10.0.0.1: EOF\n"))
	if out.Len() != 0 {
		t.Errorf("expected handshake noise at trace, got %s", out.String())
	}
	writer.Write([]byte("http: Accept error: too many open files\n"))
	if !strings.Contains(out.String(), "[warn ] http: Accept error") {
		t.Errorf("expected a warning, got %s", out.String())
	}
}
