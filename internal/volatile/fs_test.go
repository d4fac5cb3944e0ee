package volatile

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFs(t *testing.T) {
	vfs := NewFs()
	when := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("CET", 3600))
	if err := vfs.Put("/robots.txt", "text/plain", []byte("User-agent: *\n"), when); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := vfs.Put("/robots.txt", "text/plain", nil, when); err == nil {
		t.Error("expected a duplicate path to fail")
	}
	entry, err := vfs.At("/robots.txt")
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if entry.Name != "robots.txt" || entry.When.Location() != time.UTC {
		t.Errorf("unexpected entry %+v", entry)
	}
	data, _ := io.ReadAll(entry.ReadSeeker())
	if string(data) != "User-agent: *\n" {
		t.Errorf("unexpected data %q", data)
	}
	if _, err := vfs.At("/favicon.ico"); err == nil {
		t.Error("expected a missing path to fail")
	}
	if vfs.Len() != 1 {
		t.Errorf("expected one entry, got %d", vfs.Len())
	}
}

func TestFsFromFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "robots.txt")
	if err := os.WriteFile(name, []byte("Disallow: /\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	vfs := NewFs()
	var seen int
	if err := vfs.FromFile("/robots.txt", name, func(data []byte) (string, error) {
		seen = len(data)
		return "text/plain", nil
	}); err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	entry, _ := vfs.At("/robots.txt")
	if seen != 12 || entry.Mime != "text/plain" {
		t.Errorf("unexpected load %d %+v", seen, entry)
	}
	if err := vfs.FromFile("/missing", filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected a missing file to fail")
	}
}
