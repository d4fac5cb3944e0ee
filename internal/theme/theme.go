package theme

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"dirindex/internal/model"
)

// Slots are the named colors a theme may set, in stylesheet order.
var Slots = []string{`theme`, `background`, `surface`, `text`, `heading`, `link`, `header`, `border`}

var defaultColors = map[string]string{
	`theme`:      `#007bff`,
	`background`: `#f9f9f9`,
	`surface`:    `#fff`,
	`text`:       `#333`,
	`heading`:    `#555`,
	`link`:       `#007bff`,
	`header`:     `#f2f2f2`,
	`border`:     `#ddd`,
}

const DefaultFont = `system-ui, -apple-system, "Segoe UI", Roboto, sans-serif`

var (
	colorPattern = regexp.MustCompile(`^(?:#[0-9a-fA-F]{3,4}|#[0-9a-fA-F]{6}|#[0-9a-fA-F]{8}|[a-zA-Z]+|(?:rgb|rgba|hsl|hsla)\([0-9a-z.,%/ ]*\))$`)
	fontPattern  = regexp.MustCompile(`^[\pL\pN ,'"._-]+$`)
)

// Settings is the resolved presentation of every page. It is built once at
// startup and shared read-only.
type Settings struct {
	Colors  map[string]string
	Font    string
	Favicon string
}

type Options struct {
	File    string
	Color   string
	Palette string
	Font    string
	Favicon string
}

type document struct {
	Colors  map[string]string `yaml:"colors"`
	Font    string            `yaml:"font"`
	Favicon string            `yaml:"favicon"`
}

func Default() Settings {
	colors := make(map[string]string, len(defaultColors))
	for slot, value := range defaultColors {
		colors[slot] = value
	}
	return Settings{Colors: colors, Font: DefaultFont}
}

// Resolve layers the defaults, the optional theme file and the explicit options,
// in that order, and validates the result.
func Resolve(opts Options) (Settings, error) {
	settings := Default()
	if opts.File != `` {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return Settings{}, &model.ConfigError{Source: opts.File, Err: err}
		}
		doc := document{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Settings{}, &model.ConfigError{Source: opts.File, Err: err}
		}
		for slot, value := range doc.Colors {
			if err := settings.set(slot, value); err != nil {
				return Settings{}, &model.ConfigError{Source: opts.File, Err: err}
			}
		}
		if doc.Font != `` {
			settings.Font = doc.Font
		}
		if doc.Favicon != `` {
			settings.Favicon = doc.Favicon
		}
	}
	if opts.Palette != `` {
		for _, pair := range split(opts.Palette) {
			slot, value, ok := strings.Cut(pair, `=`)
			if !ok {
				return Settings{}, model.NewConfigError(`palette`, `entry "%s" is not slot=value`, pair)
			}
			if err := settings.set(slot, value); err != nil {
				return Settings{}, &model.ConfigError{Source: `palette`, Err: err}
			}
		}
	}
	if opts.Color != `` {
		if err := settings.set(`theme`, opts.Color); err != nil {
			return Settings{}, &model.ConfigError{Source: `theme color`, Err: err}
		}
	}
	if opts.Font != `` {
		settings.Font = opts.Font
	}
	if opts.Favicon != `` {
		settings.Favicon = opts.Favicon
	}
	settings.Font = strings.TrimSpace(settings.Font)
	if !fontPattern.MatchString(settings.Font) {
		return Settings{}, model.NewConfigError(`font`, `font family "%s" is invalid`, settings.Font)
	}
	settings.Favicon = strings.TrimSpace(settings.Favicon)
	return settings, nil
}

func (settings Settings) set(slot string, value string) error {
	slot = strings.ToLower(strings.TrimSpace(slot))
	value = strings.TrimSpace(value)
	if _, ok := defaultColors[slot]; !ok {
		return fmt.Errorf(`unknown color slot "%s"`, slot)
	}
	if !colorPattern.MatchString(value) {
		return fmt.Errorf(`color "%s" for slot "%s" is invalid`, value, slot)
	}
	settings.Colors[slot] = value
	return nil
}

func (settings Settings) Color(slot string) string {
	return settings.Colors[slot]
}

func (settings Settings) FaviconIsRemote() bool {
	favicon := strings.ToLower(settings.Favicon)
	return strings.HasPrefix(favicon, `http://`) || strings.HasPrefix(favicon, `https://`) || strings.HasPrefix(favicon, `//`)
}

// split cuts a palette on commas outside parentheses, so rgb(1,2,3) survives.
func split(text string) []string {
	parts := []string{}
	depth, start := 0, 0
	for i, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, text[start:])
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != `` {
			out = append(out, part)
		}
	}
	return out
}
