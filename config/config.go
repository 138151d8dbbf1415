// Package config builds the run configuration from defaults, an optional YAML
// file, a .env file and the process environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/otofune/reddl/ctxlogger"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Environment variable names
const (
	EnvOAuthUser   = "OAUTH_USER"
	EnvOAuthSecret = "OAUTH_SECRET"
	EnvLogLevel    = "LOGLEVEL"
	EnvMuxer       = "FFMPEG"
	EnvUserAgent   = "USER_AGENT"
	EnvAPIBase     = "REDDL_API_BASE"
	EnvDir         = "REDDL_DIR"
	EnvTimeout     = "REDDL_TIMEOUT"
	EnvDebugDir    = "REDDL_DEBUG_DIR"
	EnvProgress    = "REDDL_PROGRESS"
)

// Default values
const (
	DefaultLogLevel  = "INFO"
	DefaultMuxer     = "ffmpeg"
	DefaultUserAgent = "dumb_bot"
	DefaultAPIBase   = "https://api.reddit.com"
	DefaultDir       = "."
	DefaultTimeout   = 10 * time.Minute
)

// DotEnvFile is read from the working directory when present.
var DotEnvFile = ".env"

// Config is constructed once at startup and handed to every component.
type Config struct {
	// OAuthUser and OAuthSecret are loaded but no request uses them yet.
	OAuthUser   string `yaml:"oauth_user"`
	OAuthSecret string `yaml:"oauth_secret"`

	LogLevel  string        `yaml:"log_level"`
	Muxer     string        `yaml:"ffmpeg"`
	UserAgent string        `yaml:"user_agent"`
	APIBase   string        `yaml:"api_base"`
	Dir       string        `yaml:"dir"`
	Timeout   time.Duration `yaml:"timeout"`
	DebugDir  string        `yaml:"debug_dir"`
	Progress  bool          `yaml:"progress"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel:  DefaultLogLevel,
		Muxer:     DefaultMuxer,
		UserAgent: DefaultUserAgent,
		APIBase:   DefaultAPIBase,
		Dir:       DefaultDir,
		Timeout:   DefaultTimeout,
		Progress:  true,
	}
}

// Load applies, in order, defaults, the YAML file at path (skipped when path is
// empty), the .env file and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// godotenv never overrides variables that are already set
	if err := godotenv.Load(DotEnvFile); err != nil && !os.IsNotExist(err) {
		return nil, xerrors.Errorf("load %s: %w", DotEnvFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return xerrors.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return xerrors.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	strs := []struct {
		name string
		dst  *string
	}{
		{EnvOAuthUser, &c.OAuthUser},
		{EnvOAuthSecret, &c.OAuthSecret},
		{EnvLogLevel, &c.LogLevel},
		{EnvMuxer, &c.Muxer},
		{EnvUserAgent, &c.UserAgent},
		{EnvAPIBase, &c.APIBase},
		{EnvDir, &c.Dir},
		{EnvDebugDir, &c.DebugDir},
	}
	for _, s := range strs {
		if v, ok := os.LookupEnv(s.name); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return xerrors.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v, ok := os.LookupEnv(EnvProgress); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return xerrors.Errorf("%s: %w", EnvProgress, err)
		}
		c.Progress = b
	}
	return nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Muxer) == "" {
		return xerrors.New("muxer executable must not be empty")
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		return xerrors.New("user agent must not be empty")
	}
	if c.Timeout < 0 {
		return xerrors.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	if !strings.EqualFold(c.LogLevel, ctxlogger.LevelOff) {
		if _, err := ctxlogger.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// LoggingDisabled reports whether LogLevel is the OFF sentinel.
func (c *Config) LoggingDisabled() bool {
	return strings.EqualFold(c.LogLevel, ctxlogger.LevelOff)
}
