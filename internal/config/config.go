// Package config loads settings shared by all mtimeutils tools from defaults,
// an optional YAML file, and MTIMEUTILS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidChunkSize = errors.New("invalid chunk size")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidSSHPort   = errors.New("ssh port must be between 1 and 65535")
)

// Default configuration values.
const (
	defaultChunkSize  = "64KiB"
	defaultLogLevel   = "warn"
	defaultCacheSize  = 1024
	defaultSSHPort    = 22
	defaultSSHTimeout = 15 * time.Second
	maxChunkSize      = 1 << 30
	maxPort           = 65535
	envPrefix         = "MTIMEUTILS"
	configName        = "mtimeutils"
	configDirName     = "mtimeutils"
)

// Config holds the settings shared by every tool.
type Config struct {
	ChunkSize         string    `mapstructure:"chunk_size"`
	TimeFormat        string    `mapstructure:"time_format"`
	LogLevel          string    `mapstructure:"log_level"`
	IdentityCacheSize int       `mapstructure:"identity_cache_size"`
	SSH               SSHConfig `mapstructure:"ssh"`

	chunkBytes int
	level      slog.Level
}

// SSHConfig holds defaults for remote lookups.
type SSHConfig struct {
	// Target is user@host; empty stats locally.
	Target  string        `mapstructure:"target"`
	Port    int           `mapstructure:"port"`
	Batch   bool          `mapstructure:"batch"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ChunkBytes is ChunkSize parsed into bytes.
func (c *Config) ChunkBytes() int { return c.chunkBytes }

// Level is LogLevel parsed into a slog level.
func (c *Config) Level() slog.Level { return c.level }

// Load reads configuration. An empty path searches the working directory,
// the user config directory and the home directory for mtimeutils.yaml; a
// missing file there is not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configDirName))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	cfg := &Config{
		ChunkSize:         defaultChunkSize,
		LogLevel:          defaultLogLevel,
		IdentityCacheSize: defaultCacheSize,
		SSH: SSHConfig{
			Port:    defaultSSHPort,
			Timeout: defaultSSHTimeout,
		},
	}
	if err := cfg.validate(); err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chunk_size", defaultChunkSize)
	v.SetDefault("time_format", "")
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("identity_cache_size", defaultCacheSize)
	v.SetDefault("ssh.target", "")
	v.SetDefault("ssh.port", defaultSSHPort)
	v.SetDefault("ssh.batch", false)
	v.SetDefault("ssh.timeout", defaultSSHTimeout)
}

// SetLevel overrides the parsed log level.
func (c *Config) SetLevel(level slog.Level) {
	c.LogLevel = level.String()
	c.level = level
}

// SetChunkSize parses and applies a humanized byte size such as "64KiB".
func (c *Config) SetChunkSize(s string) error {
	n, err := ParseChunkSize(s)
	if err != nil {
		return err
	}
	c.ChunkSize = s
	c.chunkBytes = n
	return nil
}

// ParseChunkSize parses a humanized byte size within (0, 1GiB].
func ParseChunkSize(s string) (int, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidChunkSize, s, err)
	}
	if n == 0 || n > maxChunkSize {
		return 0, fmt.Errorf("%w %q: must be between 1B and 1GiB", ErrInvalidChunkSize, s)
	}
	return int(n), nil
}

func (c *Config) validate() error {
	if err := c.SetChunkSize(c.ChunkSize); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w %q", ErrInvalidLogLevel, c.LogLevel)
	}
	c.level = level

	if c.SSH.Port < 1 || c.SSH.Port > maxPort {
		return ErrInvalidSSHPort
	}
	if c.IdentityCacheSize <= 0 {
		c.IdentityCacheSize = defaultCacheSize
	}
	if c.SSH.Timeout <= 0 {
		c.SSH.Timeout = defaultSSHTimeout
	}
	return nil
}
