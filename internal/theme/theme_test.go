package theme

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"dirindex/internal/model"
)

func TestResolveDefaults(t *testing.T) {
	settings, err := Resolve(Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, slot := range Slots {
		if settings.Color(slot) == "" {
			t.Errorf("expected default for slot %s", slot)
		}
	}
	if settings.Font != DefaultFont {
		t.Errorf("expected default font, got %q", settings.Font)
	}
	if settings.Favicon != "" || settings.FaviconIsRemote() {
		t.Errorf("expected no favicon, got %q", settings.Favicon)
	}
}

func TestResolveLayers(t *testing.T) {
	file := filepath.Join(t.TempDir(), "theme.yaml")
	content := "colors:\n  background: \"#000\"\n  text: white\nfont: Georgia, serif\nfavicon: /srv/icon.png\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	settings, err := Resolve(Options{
		File:    file,
		Color:   "#ff0000",
		Palette: "text=rgb(10, 20, 30), link=hsl(200deg 50% 40%)",
		Favicon: "https://example.com/favicon.ico",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	expect := map[string]string{
		"theme":      "#ff0000",
		"background": "#000",
		"text":       "rgb(10, 20, 30)",
		"link":       "hsl(200deg 50% 40%)",
		"surface":    "#fff",
	}
	for slot, value := range expect {
		if got := settings.Color(slot); got != value {
			t.Errorf("slot %s = %q, want %q", slot, got, value)
		}
	}
	if settings.Font != "Georgia, serif" {
		t.Errorf("expected file font, got %q", settings.Font)
	}
	if !settings.FaviconIsRemote() {
		t.Errorf("expected remote favicon, got %q", settings.Favicon)
	}
}

func TestResolveDoesNotShareDefaults(t *testing.T) {
	if _, err := Resolve(Options{Color: "#123456"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := Default().Color("theme"); got != "#007bff" {
		t.Errorf("defaults were modified: %s", got)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing file", Options{File: filepath.Join(t.TempDir(), "missing.yaml")}},
		{"bad color", Options{Color: "red; background: url(x)"}},
		{"unknown slot", Options{Palette: "shadow=#000"}},
		{"not a pair", Options{Palette: "#000"}},
		{"bad font", Options{Font: "x}</style><script>"}},
	}
	for _, tt := range tests {
		_, err := Resolve(tt.opts)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !model.IsConfigError(err) {
			t.Errorf("%s: expected config error, got %v", tt.name, err)
		}
	}
}

func TestSplit(t *testing.T) {
	got := split(" a=rgb(1,2,3) ,, b=#fff,")
	if !reflect.DeepEqual(got, []string{"a=rgb(1,2,3)", "b=#fff"}) {
		t.Errorf("unexpected split %v", got)
	}
}
