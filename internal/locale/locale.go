package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"dirindex/internal/model"
)

//go:embed languages/*.yaml
var builtin embed.FS

// Builtin returns the language files shipped with the binary.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtin, `languages`)
	if err != nil {
		panic(err)
	}
	return sub
}

var filePattern = regexp.MustCompile(`(?i)^([a-z]{2}(?:-[a-z]{2})?)\.ya?ml$`)

// Required lists the keys the listing page renders.
var Required = []string{
	`directory_listing`,
	`parent_directory`,
	`head.dir`,
	`head.description`,
	`body.search_placeholder`,
	`body.file`,
	`body.name`,
	`body.size`,
	`body.last_modified`,
	`body.empty`,
}

// Table maps message keys to text in one language.
type Table interface {
	Code() string
	Dir() string
	Lookup(string) (string, bool)
	Text(string) string
}

type table struct {
	code     string
	messages map[string]string
	fallback *table
}

var _ Table = (*table)(nil)

func (t *table) Code() string {
	return t.code
}

func (t *table) Dir() string {
	if dir, ok := t.Lookup(`head.dir`); ok {
		return dir
	}
	return `ltr`
}

func (t *table) Lookup(key string) (string, bool) {
	if text, ok := t.messages[key]; ok {
		return text, true
	}
	if t.fallback != nil {
		return t.fallback.Lookup(key)
	}
	return ``, false
}

// Text returns the message for key, or the key itself when no table has it.
func (t *table) Text(key string) string {
	if text, ok := t.Lookup(key); ok {
		return text
	}
	return key
}

// Catalog holds every loaded table. It is built once and never modified.
type Catalog struct {
	tables   map[string]*table
	codes    []string
	fallback *table
	matcher  language.Matcher
	matched  []string
}

func Load(fsys fs.FS, fallback string) (*Catalog, error) {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	entries, err := fs.ReadDir(fsys, `.`)
	if err != nil {
		return nil, &model.ConfigError{Source: `languages`, Err: err}
	}
	catalog := &Catalog{
		tables: map[string]*table{},
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := filePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		code := strings.ToLower(match[1])
		if _, ok := catalog.tables[code]; ok {
			return nil, model.NewConfigError(entry.Name(), `language "%s" is defined more than once`, code)
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, &model.ConfigError{Source: entry.Name(), Err: err}
		}
		messages, err := parse(data)
		if err != nil {
			return nil, &model.ConfigError{Source: entry.Name(), Err: err}
		}
		if dir, ok := messages[`head.dir`]; ok && dir != `ltr` && dir != `rtl` {
			return nil, model.NewConfigError(entry.Name(), `head.dir must be ltr or rtl, got "%s"`, dir)
		}
		catalog.tables[code] = &table{code: code, messages: messages}
		catalog.codes = append(catalog.codes, code)
	}
	sort.Strings(catalog.codes)

	def, ok := catalog.tables[fallback]
	if !ok {
		return nil, model.NewConfigError(`languages`, `default language "%s" not found among %v`, fallback, catalog.codes)
	}
	for _, key := range Required {
		if _, ok := def.messages[key]; !ok {
			return nil, model.NewConfigError(fallback, `default language is missing key "%s"`, key)
		}
	}
	catalog.fallback = def

	tags := []language.Tag{language.Make(fallback)}
	catalog.matched = []string{fallback}
	for _, code := range catalog.codes {
		if code == fallback {
			continue
		}
		catalog.tables[code].fallback = def
		tags = append(tags, language.Make(code))
		catalog.matched = append(catalog.matched, code)
	}
	catalog.matcher = language.NewMatcher(tags)
	return catalog, nil
}

func parse(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf(`no messages`)
	}
	messages := map[string]string{}
	for key, value := range raw {
		if err := flatten(key, value, messages); err != nil {
			return nil, err
		}
	}
	return messages, nil
}

func flatten(prefix string, value any, messages map[string]string) error {
	switch value := value.(type) {
	case map[string]any:
		for key, item := range value {
			if err := flatten(prefix+`.`+key, item, messages); err != nil {
				return err
			}
		}
	case map[any]any:
		for key, item := range value {
			if err := flatten(prefix+`.`+fmt.Sprint(key), item, messages); err != nil {
				return err
			}
		}
	case []any:
		return fmt.Errorf(`key "%s": lists are not supported`, prefix)
	case nil:
		return fmt.Errorf(`key "%s": missing value`, prefix)
	case string:
		messages[prefix] = value
	default:
		messages[prefix] = fmt.Sprint(value)
	}
	return nil
}

func (catalog *Catalog) Table(code string) (Table, bool) {
	t, ok := catalog.tables[strings.ToLower(code)]
	if !ok {
		return nil, false
	}
	return t, true
}

// Select returns the table for code, or the default table when code is unknown.
func (catalog *Catalog) Select(code string) Table {
	if t, ok := catalog.Table(code); ok {
		return t
	}
	return catalog.fallback
}

func (catalog *Catalog) Default() Table {
	return catalog.fallback
}

func (catalog *Catalog) Languages() []string {
	codes := make([]string, len(catalog.codes))
	copy(codes, catalog.codes)
	return codes
}

// Missing lists the required keys a table does not define itself.
func (catalog *Catalog) Missing(code string) []string {
	t, ok := catalog.tables[strings.ToLower(code)]
	if !ok {
		return nil
	}
	missing := []string{}
	for _, key := range Required {
		if _, ok := t.messages[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Negotiate picks the best table for an Accept-Language header value.
func (catalog *Catalog) Negotiate(accept string) Table {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return catalog.fallback
	}
	_, index, confidence := catalog.matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(catalog.matched) {
		return catalog.fallback
	}
	return catalog.tables[catalog.matched[index]]
}
