package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/recera/tmapview/internal/cache"
	"github.com/recera/tmapview/internal/storage"
)

// FileName is the configuration file looked up in the working directory
const FileName = "tmapview.yaml"

// EnvPrefix prefixes environment overrides, e.g. TMAPVIEW_SERVE_PORT
const EnvPrefix = "TMAPVIEW"

// Config represents the tmapview.yaml configuration
type Config struct {
	// Dataset file served and inspected when no argument is given
	Dataset string `mapstructure:"dataset" yaml:"dataset,omitempty"`

	// LogLevel is a zerolog level name
	LogLevel string `mapstructure:"logLevel" yaml:"logLevel"`

	Serve   ServeConfig   `mapstructure:"serve" yaml:"serve"`
	Viewer  ViewerConfig  `mapstructure:"viewer" yaml:"viewer"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
}

// ServeConfig contains live server configuration
type ServeConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`

	// Initial viewport until the client reports its own
	Width  float64 `mapstructure:"width" yaml:"width"`
	Height float64 `mapstructure:"height" yaml:"height"`

	ExportTimeout time.Duration `mapstructure:"exportTimeout" yaml:"exportTimeout"`

	// Whether to reload the dataset when its file changes
	Watch    bool          `mapstructure:"watch" yaml:"watch"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// ViewerConfig mirrors viewer.Options
type ViewerConfig struct {
	DevicePixelRatio float64 `mapstructure:"devicePixelRatio" yaml:"devicePixelRatio"`
	ZoomPadding      float64 `mapstructure:"zoomPadding" yaml:"zoomPadding"`
	Strict           bool    `mapstructure:"strict" yaml:"strict"`
}

// CacheConfig contains dataset cache configuration
type CacheConfig struct {
	MaxEntries int           `mapstructure:"maxEntries" yaml:"maxEntries"`
	MaxAge     time.Duration `mapstructure:"maxAge" yaml:"maxAge"`

	// Strategy is "lru", "lfu" or "fifo"
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
}

// StorageConfig contains bookmark database configuration. Postgres is used
// when Host is set; SQLitePath otherwise.
type StorageConfig struct {
	Host       string `mapstructure:"host" yaml:"host,omitempty"`
	Port       int    `mapstructure:"port" yaml:"port,omitempty"`
	User       string `mapstructure:"user" yaml:"user,omitempty"`
	Password   string `mapstructure:"password" yaml:"password,omitempty"`
	Database   string `mapstructure:"database" yaml:"database,omitempty"`
	SQLitePath string `mapstructure:"sqlitePath" yaml:"sqlitePath"`
}

// ErrInvalidStrategy is returned for an unknown cache strategy name
var ErrInvalidStrategy = errors.New("config: unknown cache strategy")

// EvictionStrategy converts Strategy to the cache's enum
func (c CacheConfig) EvictionStrategy() (cache.EvictionStrategy, error) {
	switch strings.ToLower(c.Strategy) {
	case "", "lru":
		return cache.LRU, nil
	case "lfu":
		return cache.LFU, nil
	case "fifo":
		return cache.FIFO, nil
	}
	return cache.LRU, fmt.Errorf("%w: %q", ErrInvalidStrategy, c.Strategy)
}

// StorageManagerConfig converts to the storage package's config
func (c StorageConfig) StorageManagerConfig() storage.Config {
	return storage.Config{
		Host:       c.Host,
		Port:       c.Port,
		User:       c.User,
		Password:   c.Password,
		Database:   c.Database,
		SQLitePath: c.SQLitePath,
	}
}

// Addr returns host:port
func (c ServeConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration. With an empty path, tmapview.yaml is looked up in
// dir and a missing file yields the defaults; an explicit path must exist.
// Environment variables prefixed with TMAPVIEW_ override both.
func Load(dir, path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	applyDefaults(&config)

	if _, err := config.Cache.EvictionStrategy(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("dataset", d.Dataset)
	v.SetDefault("logLevel", d.LogLevel)

	v.SetDefault("serve.host", d.Serve.Host)
	v.SetDefault("serve.port", d.Serve.Port)
	v.SetDefault("serve.width", d.Serve.Width)
	v.SetDefault("serve.height", d.Serve.Height)
	v.SetDefault("serve.exportTimeout", d.Serve.ExportTimeout)
	v.SetDefault("serve.watch", d.Serve.Watch)
	v.SetDefault("serve.debounce", d.Serve.Debounce)

	v.SetDefault("viewer.devicePixelRatio", d.Viewer.DevicePixelRatio)
	v.SetDefault("viewer.zoomPadding", d.Viewer.ZoomPadding)
	v.SetDefault("viewer.strict", d.Viewer.Strict)

	v.SetDefault("cache.maxEntries", d.Cache.MaxEntries)
	v.SetDefault("cache.maxAge", d.Cache.MaxAge)
	v.SetDefault("cache.strategy", d.Cache.Strategy)

	v.SetDefault("storage.host", "")
	v.SetDefault("storage.port", d.Storage.Port)
	v.SetDefault("storage.user", d.Storage.User)
	v.SetDefault("storage.password", "")
	v.SetDefault("storage.database", d.Storage.Database)
	v.SetDefault("storage.sqlitePath", d.Storage.SQLitePath)
}

// Save writes configuration to path as YAML
func Save(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Serve: ServeConfig{
			Host:          "localhost",
			Port:          8080,
			Width:         800,
			Height:        600,
			ExportTimeout: 10 * time.Second,
			Watch:         true,
			Debounce:      100 * time.Millisecond,
		},
		Viewer: ViewerConfig{
			DevicePixelRatio: 1,
			ZoomPadding:      0.1,
		},
		Cache: CacheConfig{
			MaxEntries: 8,
			Strategy:   "lru",
		},
		Storage: StorageConfig{
			Port:       5432,
			User:       "postgres",
			Database:   "tmapview",
			SQLitePath: "tmapview.db",
		},
	}
}

// applyDefaults applies default values to missing configuration
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	if config.Serve.Host == "" {
		config.Serve.Host = defaults.Serve.Host
	}
	if config.Serve.Port == 0 {
		config.Serve.Port = defaults.Serve.Port
	}
	if config.Serve.Width <= 0 {
		config.Serve.Width = defaults.Serve.Width
	}
	if config.Serve.Height <= 0 {
		config.Serve.Height = defaults.Serve.Height
	}
	if config.Serve.ExportTimeout <= 0 {
		config.Serve.ExportTimeout = defaults.Serve.ExportTimeout
	}
	if config.Serve.Debounce <= 0 {
		config.Serve.Debounce = defaults.Serve.Debounce
	}

	if config.Viewer.DevicePixelRatio <= 0 {
		config.Viewer.DevicePixelRatio = defaults.Viewer.DevicePixelRatio
	}
	if config.Viewer.ZoomPadding <= 0 {
		config.Viewer.ZoomPadding = defaults.Viewer.ZoomPadding
	}

	if config.Cache.MaxEntries <= 0 {
		config.Cache.MaxEntries = defaults.Cache.MaxEntries
	}
	if config.Cache.Strategy == "" {
		config.Cache.Strategy = defaults.Cache.Strategy
	}

	if config.Storage.SQLitePath == "" {
		config.Storage.SQLitePath = defaults.Storage.SQLitePath
	}
	if config.Storage.Port == 0 {
		config.Storage.Port = defaults.Storage.Port
	}
}
