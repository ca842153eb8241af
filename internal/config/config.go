package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/mmcdole/chordpick/internal/chord"
	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/legacy"
	"github.com/mmcdole/chordpick/internal/search"
	"github.com/mmcdole/chordpick/internal/store"
)

const (
	appName    = "chordpick"
	envPrefix  = "CHORDPICK"
	configName = "config"
	configType = "yaml"
)

// Config holds all application configuration
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Legacy  LegacyConfig  `mapstructure:"legacy"`
	Search  SearchConfig  `mapstructure:"search"`
	Browser BrowserConfig `mapstructure:"browser"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StorageConfig selects the record store backend
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // "bolt", "sqlite" or "memory"
	Dir    string `mapstructure:"dir"`
}

// LegacyConfig locates the old flat list
type LegacyConfig struct {
	Path string `mapstructure:"path"` // empty = <storage.dir>/cp_entries_v1.json
	Cap  int    `mapstructure:"cap"`
}

// SearchConfig holds fuzzy match and chord lookup settings
type SearchConfig struct {
	Threshold  float64 `mapstructure:"threshold"`
	BaseURL    string  `mapstructure:"base_url"`
	BatchLimit int     `mapstructure:"batch_limit"`
}

// BrowserConfig holds the browser used for chord searches
type BrowserConfig struct {
	Command string   `mapstructure:"command"` // empty = platform default
	Args    []string `mapstructure:"args"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultSort string `mapstructure:"default_sort"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"` // empty = stderr
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: store.DriverBolt,
			Dir:    defaultDataPath(),
		},
		Legacy: LegacyConfig{
			Cap: legacy.DefaultCap,
		},
		Search: SearchConfig{
			Threshold:  search.DefaultThreshold,
			BaseURL:    chord.DefaultSearchURL,
			BatchLimit: chord.DefaultBatchLimit,
		},
		Browser: BrowserConfig{
			Args: []string{},
		},
		UI: UIConfig{
			DefaultSort: string(domain.SortLatest),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), appName+".log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName)
	}
}

// DefaultConfigDir returns the default config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)

	// Environment variable overrides, e.g. CHORDPICK_SEARCH_THRESHOLD
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper knows about
	setDefaults(v, DefaultConfig())
	return v
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("storage.driver", cfg.Storage.Driver)
	v.SetDefault("storage.dir", cfg.Storage.Dir)
	v.SetDefault("legacy.path", cfg.Legacy.Path)
	v.SetDefault("legacy.cap", cfg.Legacy.Cap)
	v.SetDefault("search.threshold", cfg.Search.Threshold)
	v.SetDefault("search.base_url", cfg.Search.BaseURL)
	v.SetDefault("search.batch_limit", cfg.Search.BatchLimit)
	v.SetDefault("browser.command", cfg.Browser.Command)
	v.SetDefault("browser.args", cfg.Browser.Args)
	v.SetDefault("ui.default_sort", cfg.UI.DefaultSort)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from file and environment. An empty path
// searches the default config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Storage.Dir = expandHome(cfg.Storage.Dir)
	cfg.Legacy.Path = expandHome(cfg.Legacy.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Search.Threshold < 0 || c.Search.Threshold > 1 {
		return fmt.Errorf("%w: search.threshold must be between 0 and 1, got %v", domain.ErrValidation, c.Search.Threshold)
	}
	if !validDriver(c.Storage.Driver) {
		return fmt.Errorf("%w: storage.driver must be one of %s, got %q",
			domain.ErrValidation, strings.Join(store.Drivers(), ", "), c.Storage.Driver)
	}
	if _, err := domain.ParseSortKey(c.UI.DefaultSort); err != nil {
		return fmt.Errorf("ui.default_sort: %w", err)
	}
	if c.Legacy.Cap < 0 {
		return fmt.Errorf("%w: legacy.cap must not be negative", domain.ErrValidation)
	}
	if c.Search.BatchLimit < 0 {
		return fmt.Errorf("%w: search.batch_limit must not be negative", domain.ErrValidation)
	}
	return nil
}

func validDriver(driver string) bool {
	for _, d := range store.Drivers() {
		if d == driver {
			return true
		}
	}
	return false
}

// LegacyPath returns the legacy list file, defaulting to the data directory
func (c *Config) LegacyPath() string {
	if c.Legacy.Path != "" {
		return c.Legacy.Path
	}
	if c.Storage.Dir == "" {
		return ""
	}
	return legacy.DefaultPath(c.Storage.Dir)
}

// SortKey returns the parsed default sort
func (c *Config) SortKey() domain.SortKey {
	key, err := domain.ParseSortKey(c.UI.DefaultSort)
	if err != nil {
		return domain.SortLatest
	}
	return key
}

// SaveConfig writes cfg to path, or to config.yaml in the default config
// directory when path is empty. It returns the file written.
func SaveConfig(cfg *Config, path string) (string, error) {
	if path == "" {
		path = filepath.Join(DefaultConfigDir(), configName+"."+configType)
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v := viper.New()
	v.Set("storage.driver", cfg.Storage.Driver)
	v.Set("storage.dir", cfg.Storage.Dir)
	v.Set("legacy.path", cfg.Legacy.Path)
	v.Set("legacy.cap", cfg.Legacy.Cap)
	v.Set("search.threshold", cfg.Search.Threshold)
	v.Set("search.base_url", cfg.Search.BaseURL)
	v.Set("search.batch_limit", cfg.Search.BatchLimit)
	v.Set("browser.command", cfg.Browser.Command)
	v.Set("browser.args", cfg.Browser.Args)
	v.Set("ui.default_sort", cfg.UI.DefaultSort)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
