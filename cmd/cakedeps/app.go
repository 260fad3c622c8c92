// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cakedeps/cakedeps/internal/config"
	"github.com/cakedeps/cakedeps/pkg/cakemod"
	"github.com/cakedeps/cakedeps/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer; every command handler receives an App.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer

		// Set once configuration is loaded; used to render errors.
		verbose     bool
		colorScheme config.ColorScheme
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// rootFlagValues holds the persistent flags shared by every command.
	rootFlagValues struct {
		configPath string
		verbose    bool
		root       string
		scheme     string
		strict     bool
	}

	// session is the effective state of one invocation: configuration with
	// flag overrides applied, plus the logger and reader built from it.
	session struct {
		cfg    *config.Config
		logger *log.Logger
		root   types.FilesystemPath
		scheme cakemod.MarkerScheme
		strict bool
		cache  *cakemod.DeclCache
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config:      deps.Config,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
		colorScheme: config.ColorSchemeAuto,
	}
}

// loadConfig loads configuration honoring --config.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: types.FilesystemPath(flags.configPath)})
}

// newSession loads configuration and applies the flags the user set
// explicitly on top of it.
func (a *App) newSession(cmd *cobra.Command, flags *rootFlagValues) (*session, error) {
	a.verbose = flags.verbose

	cfg, err := a.loadConfig(cmd.Context(), flags)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("root") {
		cfg.Resolver.Root = flags.root
	}
	if changed("scheme") {
		cfg.Resolver.Scheme = flags.scheme
	}
	if changed("strict") {
		cfg.Resolver.Strict = flags.strict
	}
	if changed("verbose") {
		cfg.UI.Verbose = flags.verbose
	}
	a.verbose = cfg.UI.Verbose
	a.colorScheme = cfg.UI.ColorScheme

	scheme, err := cakemod.LookupScheme(cfg.Resolver.Scheme)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "--scheme", Reason: err.Error(), Err: err}
	}
	root := types.FilesystemPath(cfg.Resolver.Root)
	if root == "" {
		root = "."
	}
	if err := root.Validate(); err != nil {
		return nil, &config.ConfigurationError{Field: "--root", Reason: err.Error(), Err: err}
	}

	level := log.WarnLevel
	if cfg.UI.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "cakedeps", Level: level})
	logger.Debug("configuration loaded", "source", sourceLabel(cfg), "root", root, "scheme", scheme.Name, "strict", cfg.Resolver.Strict)

	return &session{
		cfg:    cfg,
		logger: logger,
		root:   root,
		scheme: scheme,
		strict: cfg.Resolver.Strict,
	}, nil
}

// reader returns a declaration reader for the session's settings. Readers
// are cheap; the cache, when enabled, is shared between them.
func (s *session) reader() *cakemod.Reader {
	opts := []cakemod.ReaderOption{
		cakemod.WithScheme(s.scheme),
		cakemod.WithStrict(s.strict),
		cakemod.WithReaderLogger(s.logger),
	}
	if s.cache != nil {
		opts = append(opts, cakemod.WithCache(s.cache))
	}
	return cakemod.NewReader(s.root, opts...)
}

// enableCache makes later readers reuse declarations of unchanged files.
func (s *session) enableCache() error {
	if s.cache != nil {
		return nil
	}
	cache, err := cakemod.NewDeclCache(cakemod.DefaultCacheSize)
	if err != nil {
		return fmt.Errorf("create declaration cache: %w", err)
	}
	s.cache = cache
	return nil
}

// glamourStyle maps the configured color scheme to a glamour style name.
func (a *App) glamourStyle() string {
	switch a.colorScheme {
	case config.ColorSchemeDark, config.ColorSchemeLight:
		return string(a.colorScheme)
	default:
		if isTerminal(a.stderr) {
			return "dark"
		}
		return "notty"
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func sourceLabel(cfg *config.Config) string {
	if cfg.Source == "" {
		return "defaults"
	}
	return cfg.Source
}
