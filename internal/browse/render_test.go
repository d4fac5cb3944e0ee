package browse

import (
	"strings"
	"testing"
	"time"

	"dirindex/internal/model"
	"dirindex/internal/theme"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size   int64
		expect string
	}{
		{0, "0.00B"},
		{1, "1.00B"},
		{1023, "1023.00B"},
		{1024, "1.00KB"},
		{1536, "1.50KB"},
		{1 << 20, "1.00MB"},
		{5 << 30, "5.00GB"},
		{1 << 50, "1024.00TB"},
		{-3, "0.00B"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.size); got != tt.expect {
			t.Errorf("formatSize(%d) = %s, want %s", tt.size, got, tt.expect)
		}
	}
}

func TestFormatTime(t *testing.T) {
	when := time.Date(2024, 3, 1, 14, 5, 9, 0, time.FixedZone("CET", 3600))
	if got := formatTime(when); got != "2024-03-01T13:05:09+00:00" {
		t.Errorf("unexpected time %s", got)
	}
}

func TestSiteName(t *testing.T) {
	tests := map[string]string{
		"files.example.com":      "files example",
		"files.example.com:8080": "files example",
		"example.com":            "example",
		"localhost:8080":         "localhost",
	}
	for host, expect := range tests {
		if got := siteName(host); got != expect {
			t.Errorf("siteName(%s) = %q, want %q", host, got, expect)
		}
	}
}

func TestIcon(t *testing.T) {
	tests := []struct {
		entry  model.FsEntry
		expect string
	}{
		{model.FsEntry{IsDir: true}, "fas fa-folder-open"},
		{model.FsEntry{Type: model.FileTypePdf, MimeType: "application/pdf"}, "fas fa-file-pdf"},
		{model.FsEntry{Type: model.FileTypeText, MimeType: "text/x-python"}, "fab fa-python"},
		{model.FsEntry{Type: model.FileTypeVideo, MimeType: "video/mp4"}, "fas fa-video"},
		{model.FsEntry{Type: model.FileTypeOther, MimeType: "application/octet-stream"}, "fas fa-file"},
	}
	for _, tt := range tests {
		if got := icon(tt.entry); got != tt.expect {
			t.Errorf("icon(%+v) = %s, want %s", tt.entry, got, tt.expect)
		}
	}
}

func TestStyle(t *testing.T) {
	css := string(style(theme.Default()))
	for _, slot := range theme.Slots {
		if !strings.Contains(css, "--"+slot+":") {
			t.Errorf("expected slot %s in %s", slot, css)
		}
	}
	if !strings.Contains(css, "--font:"+theme.DefaultFont+";") {
		t.Errorf("expected font in %s", css)
	}
}

func TestPolicy(t *testing.T) {
	policy := NewPolicy(false, []string{" node_modules ", "", "Thumbs.db"})
	for name, hidden := range map[string]bool{
		".git":         true,
		"node_modules": true,
		"Thumbs.db":    true,
		"thumbs.db":    false,
		"readme.md":    false,
		".":            false,
		"..":           false,
	} {
		if got := policy.Hides(name); got != hidden {
			t.Errorf("Hides(%q) = %v, want %v", name, got, hidden)
		}
	}
	for rel, forbidden := range map[string]bool{
		"docs/readme.md":        false,
		"docs/../readme.md":     false,
		"docs/.git/config":      true,
		`docs\.git\config`:      true,
		"a/node_modules/b.js":   true,
		"/leading/slash/ok.txt": false,
	} {
		if got := policy.Forbids(rel); got != forbidden {
			t.Errorf("Forbids(%q) = %v, want %v", rel, got, forbidden)
		}
	}
}
