package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Cache backend names accepted in the config file.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the on-disk configuration, read from
// $XDG_CONFIG_HOME/graphshift/config.toml. Every field has a working
// default; the file is optional.
type Config struct {
	// GraphName is the default name written into DOT headers.
	GraphName string `toml:"graph_name"`

	// Orientation is the default flowchart direction (TD or LR).
	Orientation string `toml:"orientation"`

	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Render RenderConfig `toml:"render"`
}

// CacheConfig selects and configures the conversion cache backend.
type CacheConfig struct {
	// Backend is one of file, redis, none.
	Backend string `toml:"backend"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// StoreConfig configures the optional MongoDB graph store used by serve.
type StoreConfig struct {
	// MongoURI enables the /graphs API when non-empty.
	MongoURI string `toml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db"`
}

// RenderConfig configures image rendering defaults.
type RenderConfig struct {
	// Format is the default image format (svg or png).
	Format string `toml:"format"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Orientation: "TD",
		Cache: CacheConfig{
			Backend:   CacheBackendFile,
			RedisAddr: "localhost:6379",
		},
		Store: StoreConfig{
			MongoDB: appName,
		},
		Render: RenderConfig{
			Format: "svg",
		},
	}
}

// LoadConfig reads a TOML config file, layered over the defaults. A missing
// file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MustLoadConfig loads the config from the standard location, falling back
// to defaults on any failure. Command startup must not die on a bad config
// file; the serve command revalidates what it actually uses.
func MustLoadConfig() Config {
	dir, err := configDir()
	if err != nil {
		return DefaultConfig()
	}
	cfg, err := LoadConfig(filepath.Join(dir, "config.toml"))
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}
