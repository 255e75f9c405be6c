// Package appconfig loads S3Explorer's top-level configuration: data
// directories, cache/pool sizing, S3 timeouts, and the metrics store path.
//
// Sources: the YAML config file, laid over built-in defaults. When a config
// file is found, S3X_-prefixed environment variables override the keys that
// file sets; when none is found, the built-in defaults are returned as they
// are and the environment is not consulted. CLI flags are not bound here.
package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
)

// CacheConfig sizes the per-profile BoundedCache instances (pkg/cache).
type CacheConfig struct {
	MaxEntries int           `mapstructure:"max_entries" yaml:"max_entries"`
	IdleTTL    time.Duration `mapstructure:"idle_ttl" yaml:"idle_ttl"`
	AbsoluteTTL time.Duration `mapstructure:"absolute_ttl" yaml:"absolute_ttl"`
}

// PoolConfig sizes the per-profile ConnectionPool (pkg/pool).
type PoolConfig struct {
	MaxSize            int           `mapstructure:"max_size" yaml:"max_size"`
	MinIdle            int           `mapstructure:"min_idle" yaml:"min_idle"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	AcquisitionTimeout time.Duration `mapstructure:"acquisition_timeout" yaml:"acquisition_timeout"`
}

// S3Config holds S3 timeout settings. pkg/gateway does not read them; it
// uses its own timeout constants.
type S3Config struct {
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	TestConnectTimeout time.Duration `mapstructure:"test_connect_timeout" yaml:"test_connect_timeout"`
}

// TransferConfig mirrors pkg/transfer.Config's tunables.
type TransferConfig struct {
	MultipartThresholdBytes int64 `mapstructure:"multipart_threshold_bytes" yaml:"multipart_threshold_bytes"`
	PartSizeBytes           int64 `mapstructure:"part_size_bytes" yaml:"part_size_bytes"`
	ChunkSizeBytes          int64 `mapstructure:"chunk_size_bytes" yaml:"chunk_size_bytes"`
}

// MetricsConfig locates the MetricsSink's sqlite file. PrometheusAddr is
// loaded and saved with the rest of the file; no code in this module reads
// it to start a scrape endpoint.
type MetricsConfig struct {
	DatabasePath  string `mapstructure:"database_path" yaml:"database_path"`
	PrometheusAddr string `mapstructure:"prometheus_addr" yaml:"prometheus_addr"`
}

// HTTPConfig controls the local HTTP bridge (pkg/httpapi).
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LoggingConfig controls log/slog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config is S3Explorer's top-level configuration. Load fills it from the
// sources listed in the package doc.
type Config struct {
	DataDir  string         `mapstructure:"data_dir" yaml:"data_dir"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Pool     PoolConfig     `mapstructure:"pool" yaml:"pool"`
	S3       S3Config       `mapstructure:"s3" yaml:"s3"`
	Transfer TransferConfig `mapstructure:"transfer" yaml:"transfer"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
}

// Default returns the built-in defaults, used when no config file is
// present.
func Default() *Config {
	dataDir := filepath.Join(getConfigDir(), "data")
	return &Config{
		DataDir: dataDir,
		Logging: LoggingConfig{Level: "INFO", Format: "text"},
		Cache: CacheConfig{
			MaxEntries:  10000,
			IdleTTL:     10 * time.Minute,
			AbsoluteTTL: time.Hour,
		},
		Pool: PoolConfig{
			MaxSize:            4,
			MinIdle:            1,
			IdleTimeout:        120 * time.Second,
			AcquisitionTimeout: 5 * time.Second,
		},
		S3: S3Config{
			ConnectTimeout:     10 * time.Second,
			RequestTimeout:     60 * time.Second,
			TestConnectTimeout: 30 * time.Second,
		},
		Transfer: TransferConfig{
			MultipartThresholdBytes: 50 * 1024 * 1024,
			PartSizeBytes:           10 * 1024 * 1024,
			ChunkSizeBytes:          1024 * 1024,
		},
		Metrics: MetricsConfig{
			DatabasePath:   filepath.Join(dataDir, "metrics.db"),
			PrometheusAddr: "",
		},
		HTTP: HTTPConfig{Addr: "127.0.0.1:8117"},
	}
}

// Load reads configuration from file, environment, and defaults.
// configPath="" searches the default location ($XDG_CONFIG_HOME/s3explorer
// /config.yaml). A missing config file is not an error: the returned
// Config is the built-in default.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return Default(), nil
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.Wrap(errs.ConfigError, "unmarshal configuration", err)
	}
	return cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("S3X")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errs.Wrap(errs.ConfigError, "read config file", err)
	}
	return true, nil
}

// Save writes cfg as YAML to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.ConfigError, "create config directory", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errs.Wrap(errs.ConfigError, "marshal configuration", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errs.Wrap(errs.ConfigError, "write config file", err)
	}
	return nil
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "s3explorer")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".s3explorer"
	}
	return filepath.Join(home, ".config", "s3explorer")
}

// DefaultConfigPath returns the path Load() searches when configPath is
// empty.
func DefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

