package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/pipeline"
	"github.com/codeatlas/codeatlas/pkg/server"
	"github.com/codeatlas/codeatlas/pkg/structure"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the on-disk CLI configuration (~/.config/codeatlas/config.toml).
// Zero values fall back to defaults, so a partial file is fine.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Layout LayoutConfig `toml:"layout"`
}

// StoreConfig selects the registry backend.
type StoreConfig struct {
	Backend  string `toml:"backend"`  // sqlite (default), mongo, memory
	Path     string `toml:"path"`     // sqlite database path
	URI      string `toml:"uri"`      // mongo connection string
	Database string `toml:"database"` // mongo database name
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend string `toml:"backend"` // file (default), redis, none
	Addr    string `toml:"addr"`    // redis address
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LayoutConfig sets default layout options for layout/flow commands.
type LayoutConfig struct {
	Mode   string  `toml:"mode"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Store:  StoreConfig{Backend: StoreSQLite, Database: appName},
		Cache:  CacheConfig{Backend: CacheFile, Addr: "127.0.0.1:6379"},
		Server: ServerConfig{Addr: server.DefaultAddr},
		Layout: LayoutConfig{
			Mode:   string(structure.ModeByKind),
			Width:  pipeline.DefaultWidth,
			Height: pipeline.DefaultHeight,
		},
	}
}

// configPath returns the default config file location.
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// LoadConfig reads a config file over the defaults. A missing file is not
// an error; an unreadable or malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if path == "" {
		var err error
		path, err = configPath()
		if err != nil {
			return cfg, nil
		}
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "cannot load config: %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, apperrors.New(apperrors.ErrCodeInvalidInput, "unknown config key: %s", undecoded[0])
	}
	return cfg, nil
}
