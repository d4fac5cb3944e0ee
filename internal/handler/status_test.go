package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusPlain(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w.Body.String() != "Not Found\n" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestStatusRedirect(t *testing.T) {
	tests := []struct {
		code   int
		expect string
	}{
		{http.StatusForbidden, "https://error.example.com/403"},
		{http.StatusNotFound, "https://error.example.com/404"},
		{http.StatusServiceUnavailable, "https://error.example.com/503"},
		{http.StatusMethodNotAllowed, "https://error.example.com/500"},
		{http.StatusUnsupportedMediaType, "https://error.example.com/500"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		Status(tt.code, "https://error.example.com").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != http.StatusFound {
			t.Errorf("%d: expected 302, got %d", tt.code, w.Code)
		}
		if got := w.Header().Get("Location"); got != tt.expect {
			t.Errorf("%d: expected %s, got %s", tt.code, tt.expect, got)
		}
	}
}
