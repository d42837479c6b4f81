// Package cli implements the codeatlas command-line interface.
//
// This package provides commands for ingesting parser output into the
// registry, computing structure and trace layouts, rendering them to
// SVG/DOT/PNG, serving the HTTP API, and browsing projects interactively.
// The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/codeatlas/codeatlas/pkg/buildinfo"
	"github.com/codeatlas/codeatlas/pkg/cache"
	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/pipeline"
	"github.com/codeatlas/codeatlas/pkg/registry"
	"github.com/codeatlas/codeatlas/pkg/selection"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "codeatlas"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a new CLI instance with a default logger and config.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// LoadConfig merges the config file at path (or the default location when
// path is empty) into the CLI config.
func (c *CLI) LoadConfig(path string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "CodeAtlas visualizes code structure and call flows",
		Long:         `CodeAtlas turns parsed source facts into visual maps: per-file structure layouts with line annotations, and per-workflow call-flow diagrams spanning frontend and backend.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.ingestCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.projectsCommand())
	root.AddCommand(c.filesCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.flowCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Collaborator Factories
// =============================================================================

// newStore opens the registry store named by the config.
func (c *CLI) newStore(cmd *cobra.Command) (registry.Store, error) {
	switch c.Config.Store.Backend {
	case "", StoreSQLite:
		path := c.Config.Store.Path
		if path == "" {
			dir, err := dataDir()
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "registry.db")
		}
		return registry.NewSQLiteStore(cmd.Context(), path)
	case StoreMongo:
		return registry.NewMongoStore(cmd.Context(), c.Config.Store.URI, c.Config.Store.Database)
	case StoreMemory:
		return registry.NewMemoryStore(), nil
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "unknown store backend: %s", c.Config.Store.Backend)
	}
}

// newCache opens the cache backend named by the config.
func (c *CLI) newCache(cmd *cobra.Command, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case "", CacheFile:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case CacheRedis:
		return cache.NewRedisCache(cmd.Context(), c.Config.Cache.Addr)
	case CacheNone:
		return cache.NewNullCache(), nil
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "unknown cache backend: %s", c.Config.Cache.Backend)
	}
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(cmd *cobra.Command, store registry.Store, noCache bool) (*pipeline.Runner, error) {
	cch, err := c.newCache(cmd, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, cch, nil, c.Logger), nil
}

// newSelectionStore opens the persisted selection state.
func (c *CLI) newSelectionStore() (selection.Store, error) {
	return selection.NewFileStore("")
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/codeatlas/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the data directory (~/.local/share/codeatlas/) holding
// the default SQLite registry.
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineOptions builds pipeline options from config defaults.
func (c *CLI) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Mode:   c.Config.Layout.Mode,
		Width:  c.Config.Layout.Width,
		Height: c.Config.Layout.Height,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s, fallback string) []string {
	if s == "" {
		return []string{fallback}
	}
	return strings.Split(s, ",")
}
