// Package config loads and saves wikigraph settings.
//
// Files are TOML unless the extension is .yaml or .yml. Missing keys keep
// their [Default] values, so a config file only needs the settings it
// changes.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dogeow/wikigraph/pkg/cache"
	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/layout"
	"github.com/dogeow/wikigraph/pkg/optimize"
	"github.com/dogeow/wikigraph/pkg/render/style"
	"github.com/dogeow/wikigraph/pkg/source"
)

// AppName names the config and cache directories.
const AppName = "wikigraph"

// Source kinds.
const (
	SourceHTTP  = "http"
	SourceFile  = "file"
	SourceMongo = "mongo"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Theme modes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Config holds every wikigraph setting.
type Config struct {
	Source    SourceConfig     `toml:"source" yaml:"source"`
	Cache     CacheConfig      `toml:"cache" yaml:"cache"`
	Layout    LayoutConfig     `toml:"layout" yaml:"layout"`
	Optimizer optimize.Options `toml:"optimizer" yaml:"optimizer"`
	Camera    CameraConfig     `toml:"camera" yaml:"camera"`
	Engine    EngineConfig     `toml:"engine" yaml:"engine"`
	Server    ServerConfig     `toml:"server" yaml:"server"`
	Theme     ThemeConfig      `toml:"theme" yaml:"theme"`
	User      UserConfig       `toml:"user" yaml:"user"`
}

// SourceConfig selects where the graph document comes from.
type SourceConfig struct {
	Kind    string             `toml:"kind" yaml:"kind"` // "http", "file", "mongo"
	URL     string             `toml:"url" yaml:"url"`
	Path    string             `toml:"path" yaml:"path"`
	Mongo   source.MongoConfig `toml:"mongo" yaml:"mongo"`
	Retries int                `toml:"retries" yaml:"retries"`
	Timeout Duration           `toml:"timeout" yaml:"timeout"`

	// Watch reloads a file source when it changes.
	Watch    bool     `toml:"watch" yaml:"watch"`
	Debounce Duration `toml:"debounce" yaml:"debounce"`
}

// CacheConfig selects the cache for fetched graph documents.
type CacheConfig struct {
	Backend string            `toml:"backend" yaml:"backend"` // "none", "memory", "file", "redis"
	Dir     string            `toml:"dir" yaml:"dir"`
	TTL     Duration          `toml:"ttl" yaml:"ttl"`
	Redis   cache.RedisConfig `toml:"redis" yaml:"redis"`
}

// LayoutConfig holds the initial layout.
type LayoutConfig struct {
	Kind string `toml:"kind" yaml:"kind"`
}

// CameraConfig tunes gesture guard installation.
type CameraConfig struct {
	InstallInterval Duration `toml:"install_interval" yaml:"install_interval"`
	InstallAttempts int      `toml:"install_attempts" yaml:"install_attempts"`
}

// EngineConfig tunes the engine.
type EngineConfig struct {
	SettleDelay Duration `toml:"settle_delay" yaml:"settle_delay"`
}

// ServerConfig configures `wikigraph serve`.
type ServerConfig struct {
	Addr            string   `toml:"addr" yaml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins" yaml:"allowed_origins"`
}

// ThemeConfig selects the palette. Tokens override the built-in colors of
// the chosen mode.
type ThemeConfig struct {
	Mode   string       `toml:"mode" yaml:"mode"` // "light", "dark"
	Tokens style.Tokens `toml:"tokens" yaml:"tokens"`
}

// UserConfig describes the viewer.
type UserConfig struct {
	// Editor opens the node editor on right click instead of the article.
	Editor bool   `toml:"editor" yaml:"editor"`
	Token  string `toml:"token" yaml:"token"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:     SourceHTTP,
			URL:      "http://localhost:8000",
			Mongo:    source.MongoConfig{URI: "mongodb://localhost:27017", Database: AppName},
			Retries:  3,
			Timeout:  Duration{10 * time.Second},
			Debounce: Duration{source.DefaultDebounce},
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Dir:     DefaultCacheDir(),
			TTL:     Duration{source.DefaultTTL},
			Redis:   cache.RedisConfig{Addr: "localhost:6379", Prefix: cache.DefaultRedisPrefix},
		},
		Layout:    LayoutConfig{Kind: string(layout.Force)},
		Optimizer: optimize.DefaultOptions(),
		Camera: CameraConfig{
			InstallInterval: Duration{300 * time.Millisecond},
			InstallAttempts: 20,
		},
		Engine: EngineConfig{SettleDelay: Duration{100 * time.Millisecond}},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ShutdownTimeout: Duration{5 * time.Second},
		},
		Theme: ThemeConfig{Mode: ThemeLight},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceHTTP:
		u, err := url.Parse(c.Source.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("source.url must be an absolute URL, got %q", c.Source.URL)
		}
	case SourceFile:
		if c.Source.Path == "" {
			return invalid("source.path is required for file sources")
		}
	case SourceMongo:
		if c.Source.Mongo.URI == "" || c.Source.Mongo.Database == "" {
			return invalid("source.mongo needs uri and database")
		}
	default:
		return invalid("unknown source.kind %q (want http, file or mongo)", c.Source.Kind)
	}
	if c.Source.Retries < 0 {
		return invalid("source.retries must not be negative")
	}
	if c.Source.Watch && c.Source.Kind != SourceFile {
		return invalid("source.watch only applies to file sources")
	}

	if !slices.Contains([]string{CacheNone, CacheMemory, CacheFile, CacheRedis}, c.Cache.Backend) {
		return invalid("unknown cache.backend %q (want none, memory, file or redis)", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheFile && c.Cache.Dir == "" {
		return invalid("cache.dir is required for the file backend")
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Addr == "" {
		return invalid("cache.redis.addr is required for the redis backend")
	}
	if c.Cache.TTL.Duration < 0 {
		return invalid("cache.ttl must not be negative")
	}

	if _, err := layout.ParseKind(c.Layout.Kind); err != nil {
		return err
	}
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	if c.Camera.InstallAttempts < 0 || c.Camera.InstallInterval.Duration < 0 {
		return invalid("camera settings must not be negative")
	}
	if c.Theme.Mode != ThemeLight && c.Theme.Mode != ThemeDark {
		return invalid("unknown theme.mode %q (want light or dark)", c.Theme.Mode)
	}
	return nil
}

// Palette resolves the theme into render colors.
func (c *Config) Palette() style.Palette {
	return style.PaletteFor(c.Theme.Tokens, c.Theme.Mode == ThemeDark)
}

// Headers returns the request headers for the graph endpoint.
func (c *Config) Headers() map[string]string {
	if c.User.Token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.User.Token}
}

func invalid(format string, args ...any) error {
	return errs.New(errs.ErrCodeInvalidConfig, format, args...)
}

// =============================================================================
// Paths
// =============================================================================

// Dir returns the wikigraph config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName)
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultCacheDir returns the default directory of the file cache.
func DefaultCacheDir() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		if d, err := os.UserCacheDir(); err == nil {
			dir = d
		} else {
			dir = os.TempDir()
		}
	}
	return filepath.Join(dir, AppName)
}

// =============================================================================
// Load and save
// =============================================================================

// Load reads path over the defaults and validates the result. A missing
// file at the default path yields the defaults; any other missing file is
// an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) && !explicit:
		return cfg, nil
	case err != nil:
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read config")
	}

	if err := Decode(data, isYAML(path), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML, or YAML when yamlFormat is set, into cfg.
func Decode(data []byte, yamlFormat bool, cfg *Config) error {
	var err error
	if yamlFormat {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse config")
	}
	return nil
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	if isYAML(path) {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	} else if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
