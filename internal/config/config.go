package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"dirindex/internal/control"
	"dirindex/internal/model"
	"dirindex/internal/theme"
)

const Prefix = `DIRINDEX_`

// Config holds everything the server reads from its environment.
type Config struct {
	Host            string
	Port            int
	Root            string
	DefaultLanguage string
	LanguagesDir    string // empty means the embedded languages
	Theme           theme.Options
	IgnoreFiles     []string
	ShowHidden      bool
	Thumbnails      bool
	SiteName        string // empty means derived from the request host
	BasePath        string
	ErrorPageURL    string
	RobotsTxt       string
	LogLevel        control.LogLevel
	LogTrim         []string // request paths left out of the access log
	Compression     int // -1 disables

	TimeoutRequest  time.Duration
	TimeoutRead     time.Duration
	TimeoutWrite    time.Duration
	TimeoutIdle     time.Duration
	TimeoutShutdown time.Duration

	// Control listener for metrics and the log level
	Ctrl       string
	Prometheus bool

	Https     string
	TLSCert   string
	TLSKey    string
	HttpsOnly bool
}

// Dotenv loads name into the environment when it exists. Variables that are
// already set are left alone.
func Dotenv(name string) (bool, error) {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &model.ConfigError{Source: name, Err: err}
	}
	if err := godotenv.Load(name); err != nil {
		return false, &model.ConfigError{Source: name, Err: err}
	}
	return true, nil
}

// Load reads the configuration from environment variables. HOST, PORT,
// FONT_FAMILY, FAVICON and THEME_COLOR are also accepted without the prefix.
func Load() (*Config, error) {
	env := reader{}
	cfg := &Config{
		Host:            env.str(`HOST`, envOrDefault(`HOST`, `localhost`)),
		Port:            env.port(`PORT`, envOrDefault(Prefix+`PORT`, os.Getenv(`PORT`)), 8080),
		Root:            env.str(`ROOT`, `.`),
		DefaultLanguage: strings.ToLower(env.str(`DEFAULT_LANGUAGE`, `en`)),
		LanguagesDir:    env.str(`LANGUAGES_DIR`, ``),
		Theme: theme.Options{
			File:    env.str(`THEME_FILE`, ``),
			Color:   env.str(`THEME_COLOR`, os.Getenv(`THEME_COLOR`)),
			Palette: env.str(`THEME_PALETTE`, ``),
			Font:    env.str(`FONT_FAMILY`, os.Getenv(`FONT_FAMILY`)),
			Favicon: env.str(`FAVICON`, os.Getenv(`FAVICON`)),
		},
		IgnoreFiles:  env.list(`IGNORE_FILES`),
		ShowHidden:   env.boolean(`SHOW_HIDDEN`, false),
		Thumbnails:   env.boolean(`THUMBNAILS`, false),
		SiteName:     env.str(`SITE_NAME`, ``),
		BasePath:     env.str(`BASE_PATH`, ``),
		ErrorPageURL: env.str(`ERROR_PAGE_URL`, ``),
		RobotsTxt:    env.str(`ROBOTS_TXT`, ``),
		LogLevel:     env.level(`LOG_LEVEL`, control.LogLevelInfo),
		LogTrim:      env.list(`LOG_TRIM`),
		Compression:  env.integer(`COMPRESSION`, 5),

		TimeoutRequest:  env.duration(`TIMEOUT_REQUEST`, 60*time.Second),
		TimeoutRead:     env.duration(`TIMEOUT_READ`, 10*time.Second),
		TimeoutWrite:    env.duration(`TIMEOUT_WRITE`, 60*time.Second),
		TimeoutIdle:     env.duration(`TIMEOUT_IDLE`, 5*time.Second),
		TimeoutShutdown: env.duration(`TIMEOUT_SHUTDOWN`, 5*time.Second),

		Ctrl:       env.str(`CTRL`, ``),
		Prometheus: env.boolean(`PROMETHEUS`, false),

		Https:     env.str(`HTTPS`, ``),
		TLSCert:   env.str(`TLS_CERT`, ``),
		TLSKey:    env.str(`TLS_KEY`, ``),
		HttpsOnly: env.boolean(`HTTPS_ONLY`, false),
	}
	if env.err != nil {
		return nil, env.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Root == `` {
		return model.NewConfigError(Prefix+`ROOT`, `must not be empty`)
	}
	if cfg.Compression < -1 || cfg.Compression > 9 {
		return model.NewConfigError(Prefix+`COMPRESSION`, `level %d is outside -1..9`, cfg.Compression)
	}
	if cfg.BasePath != `` {
		cfg.BasePath = `/` + strings.Trim(cfg.BasePath, `/`)
		if cfg.BasePath == `/` {
			cfg.BasePath = ``
		}
	}
	if cfg.ErrorPageURL != `` {
		u, err := url.Parse(cfg.ErrorPageURL)
		if err != nil {
			return &model.ConfigError{Source: Prefix + `ERROR_PAGE_URL`, Err: err}
		}
		if (u.Scheme != `http` && u.Scheme != `https`) || u.Host == `` {
			return model.NewConfigError(Prefix+`ERROR_PAGE_URL`, `"%s" is not an absolute http(s) url`, cfg.ErrorPageURL)
		}
		cfg.ErrorPageURL = strings.TrimRight(cfg.ErrorPageURL, `/`)
	}
	if cfg.Https != `` && (cfg.TLSCert == `` || cfg.TLSKey == ``) {
		return model.NewConfigError(Prefix+`HTTPS`, `requires %sTLS_CERT and %sTLS_KEY`, Prefix, Prefix)
	}
	if cfg.HttpsOnly && !cfg.HttpsEnabled() {
		return model.NewConfigError(Prefix+`HTTPS_ONLY`, `requires https to be enabled`)
	}
	return nil
}

func (cfg *Config) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

func (cfg *Config) HttpsEnabled() bool {
	return cfg.Https != `` && cfg.TLSCert != `` && cfg.TLSKey != ``
}

func (cfg *Config) CtrlEnabled() bool {
	return cfg.Ctrl != ``
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != `` {
		return v
	}
	return fallback
}

// reader keeps the first malformed variable so Load can report it once.
type reader struct {
	err error
}

func (env *reader) fail(key string, format string, args ...any) {
	if env.err == nil {
		env.err = model.NewConfigError(Prefix+key, format, args...)
	}
}

func (env *reader) str(key, fallback string) string {
	return strings.TrimSpace(envOrDefault(Prefix+key, fallback))
}

func (env *reader) list(key string) []string {
	items := []string{}
	for _, item := range strings.Split(os.Getenv(Prefix+key), `,`) {
		if item = strings.TrimSpace(item); item != `` {
			items = append(items, item)
		}
	}
	return items
}

func (env *reader) integer(key string, fallback int) int {
	v := env.str(key, ``)
	if v == `` {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		env.fail(key, `invalid integer "%s"`, v)
		return fallback
	}
	return n
}

func (env *reader) port(key string, v string, fallback int) int {
	if v = strings.TrimSpace(v); v == `` {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 65535 {
		env.fail(key, `invalid port "%s"`, v)
		return fallback
	}
	return n
}

func (env *reader) boolean(key string, fallback bool) bool {
	v := env.str(key, ``)
	if v == `` {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		env.fail(key, `invalid boolean "%s"`, v)
		return fallback
	}
	return b
}

func (env *reader) duration(key string, fallback time.Duration) time.Duration {
	v := env.str(key, ``)
	if v == `` {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		env.fail(key, `invalid duration "%s"`, v)
		return fallback
	}
	return d
}

func (env *reader) level(key string, fallback control.LogLevel) control.LogLevel {
	v := env.str(key, ``)
	if v == `` {
		return fallback
	}
	level, err := control.ParseLogLevel(v)
	if err != nil {
		env.fail(key, `%s`, err)
		return fallback
	}
	return level
}
