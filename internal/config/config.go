package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/scienceol/gogvault/internal/auth"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	DefaultDomain    = "gog.com"

	defaultTimeoutSeconds    = 30
	defaultRetries           = 3
	defaultRetryDelaySeconds = 5
)

type Config struct {
	Username   string `yaml:"username" toml:"username"`
	CookieFile string `yaml:"cookie_file" toml:"cookie_file"`
	ImportFile string `yaml:"import_file" toml:"import_file"`
	UserAgent  string `yaml:"user_agent" toml:"user_agent"`
	HomeURL    string `yaml:"home_url" toml:"home_url"`
	LoginURL   string `yaml:"login_url" toml:"login_url"`
	Wakelock   string `yaml:"wakelock" toml:"wakelock"`

	HTTP HTTP `yaml:"http" toml:"http"`
}

type HTTP struct {
	TimeoutSeconds    int  `yaml:"timeout_seconds" toml:"timeout_seconds"`
	Retries           *int `yaml:"retries" toml:"retries"`
	RetryDelaySeconds int  `yaml:"retry_delay_seconds" toml:"retry_delay_seconds"`
}

// Flags carries the command-line values that override everything else.
type Flags struct {
	ConfigFile string
	CookieFile string
	ImportFile string
	Username   string
	Retries    int // negative: unset
}

// Load resolves configuration from flags > env > config file.
func Load(flags Flags) (*Config, error) {
	cfg := &Config{}

	// 1. Config file as base
	cfgPath := flags.ConfigFile
	if cfgPath == "" {
		cfgPath = os.Getenv("GOGVAULT_CONFIG")
	}
	if cfgPath == "" {
		cfgPath = configFilePath()
	}
	if cfgPath != "" {
		if err := readFile(cfgPath, cfg); err != nil {
			return nil, err
		}
	}

	// 2. Environment variables override the file
	for env, dst := range map[string]*string{
		"GOGVAULT_USERNAME":    &cfg.Username,
		"GOGVAULT_COOKIE_FILE": &cfg.CookieFile,
		"GOGVAULT_IMPORT_FILE": &cfg.ImportFile,
		"GOGVAULT_USER_AGENT":  &cfg.UserAgent,
		"GOGVAULT_HOME_URL":    &cfg.HomeURL,
		"GOGVAULT_LOGIN_URL":   &cfg.LoginURL,
		"GOGVAULT_WAKELOCK":    &cfg.Wakelock,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("GOGVAULT_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("GOGVAULT_RETRIES must be a non-negative integer, got %q", v)
		}
		cfg.HTTP.Retries = &n
	}

	// 3. CLI flags override everything
	if flags.CookieFile != "" {
		cfg.CookieFile = flags.CookieFile
	}
	if flags.ImportFile != "" {
		cfg.ImportFile = flags.ImportFile
	}
	if flags.Username != "" {
		cfg.Username = flags.Username
	}
	if flags.Retries >= 0 {
		n := flags.Retries
		cfg.HTTP.Retries = &n
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	home, err := os.UserHomeDir()
	if err != nil && (c.CookieFile == "" || c.ImportFile == "") {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}
	if c.CookieFile == "" {
		c.CookieFile = filepath.Join(home, ".gogvault", "cookies.json")
	}
	if c.ImportFile == "" {
		c.ImportFile = filepath.Join(home, ".gogvault", "cookies.txt")
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.HomeURL == "" {
		c.HomeURL = auth.DefaultHomeURL
	}
	if c.LoginURL == "" {
		c.LoginURL = auth.DefaultLoginURL
	}
	switch c.Wakelock {
	case "":
		c.Wakelock = "idle"
	case "idle", "display":
	default:
		return fmt.Errorf("wakelock must be idle or display, got %q", c.Wakelock)
	}

	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.HTTP.Retries == nil {
		n := defaultRetries
		c.HTTP.Retries = &n
	} else if *c.HTTP.Retries < 0 {
		return fmt.Errorf("http.retries must not be negative, got %d", *c.HTTP.Retries)
	}
	if c.HTTP.RetryDelaySeconds < 0 {
		return fmt.Errorf("http.retry_delay_seconds must not be negative, got %d", c.HTTP.RetryDelaySeconds)
	}
	if c.HTTP.RetryDelaySeconds == 0 {
		c.HTTP.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

func (c *Config) Retries() int {
	return *c.HTTP.Retries
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.HTTP.RetryDelaySeconds) * time.Second
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func configFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		p := filepath.Join(home, ".gogvault", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
