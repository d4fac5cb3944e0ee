package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"dirindex/internal/config"
	"dirindex/internal/control"
	"dirindex/internal/locale"
	"dirindex/internal/theme"
	"dirindex/internal/volatile"
)

const dotenv = `.env`

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   `dirindex`,
		Short: `Browse and download a directory tree over http`,
		Long: `dirindex serves a directory as localized, themed listing pages and
streams its files. All settings are read from DIRINDEX_* environment
variables, optionally seeded from a .env file in the working directory.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := volatile.NewLogger(control.LogLevelInfo)
			return serve(logger)
		},
	}
	root.AddCommand(newCheckCommand(), newLanguagesCommand())
	return root
}

// setup is everything the server needs before it can build handlers.
type setup struct {
	cfg     *config.Config
	catalog *locale.Catalog
	theme   theme.Settings
}

func prepare(logger *volatile.Logger) (setup, error) {
	loaded, err := config.Dotenv(dotenv)
	if err != nil {
		return setup{}, err
	}
	if loaded {
		logger.Info(`config.dotenv %s`, dotenv)
	}
	cfg, err := config.Load()
	if err != nil {
		return setup{}, err
	}
	logger.SetLevel(cfg.LogLevel)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return setup{}, err
	}
	for _, code := range catalog.Languages() {
		if missing := catalog.Missing(code); len(missing) > 0 {
			logger.Warn(`locale.missing lang=%s keys=%v`, code, missing)
		}
	}

	settings, err := theme.Resolve(cfg.Theme)
	if err != nil {
		return setup{}, err
	}
	return setup{cfg: cfg, catalog: catalog, theme: settings}, nil
}

func loadCatalog(cfg *config.Config) (*locale.Catalog, error) {
	var fsys fs.FS
	if cfg.LanguagesDir == `` {
		fsys = locale.Builtin()
	} else {
		fsys = os.DirFS(cfg.LanguagesDir)
	}
	return locale.Load(fsys, cfg.DefaultLanguage)
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:          `check`,
		Short:        `Validate the configuration, languages and theme without serving`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := volatile.NewLoggerTo(cmd.ErrOrStderr(), control.LogLevelInfo)
			s, err := prepare(logger)
			if err != nil {
				logger.Error(`check: %s`, err)
				return err
			}
			if _, err := newDriver(s.cfg); err != nil {
				logger.Error(`check: %s`, err)
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "root      %s\n", s.cfg.Root)
			fmt.Fprintf(out, "listen    http://%s%s/\n", s.cfg.Addr(), s.cfg.BasePath)
			if s.cfg.HttpsEnabled() {
				fmt.Fprintf(out, "listen    https://%s%s/\n", s.cfg.Https, s.cfg.BasePath)
			}
			fmt.Fprintf(out, "languages %v (default %s)\n", s.catalog.Languages(), s.catalog.Default().Code())
			fmt.Fprintf(out, "theme     %s\n", s.theme.Color(`theme`))
			fmt.Fprintln(out, `ok`)
			return nil
		},
	}
}

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:          `languages`,
		Short:        `List the languages the listing pages can be shown in`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Dotenv(dotenv); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			for _, code := range catalog.Languages() {
				marker := ``
				if code == catalog.Default().Code() {
					marker = ` *`
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", code, marker)
			}
			return nil
		},
	}
}
