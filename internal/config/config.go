package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env   string `yaml:"env"` // dev|prod
	Debug bool   `yaml:"debug"`
}

type Store struct {
	// Path of the sqlite usage ledger. Empty disables it.
	Path string `yaml:"path"`
}

type Retention struct {
	Interval            string `yaml:"interval"`
	MaxStrokesPerCanvas int    `yaml:"maxStrokesPerCanvas"` // 0 = unlimited
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	Logging   Logging   `yaml:"logging"`
	Store     Store     `yaml:"store"`
	Retention Retention `yaml:"retention"`
}

// Load reads the config file named by CONFIG_PATH (default
// ./config/config.yaml). A missing default file is not an error; the server
// runs on pure defaults.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = "./config/config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg.applyDefaults()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Retention.Interval == "" {
		c.Retention.Interval = "5m"
	}
}

func (c *Config) validate() error {
	c.applyDefaults()

	if c.Logging.Env != "dev" && c.Logging.Env != "prod" {
		return fmt.Errorf("logging.env must be dev or prod, got %q", c.Logging.Env)
	}
	if _, err := time.ParseDuration(c.Retention.Interval); err != nil {
		return fmt.Errorf("retention.interval: %w", err)
	}
	if c.Retention.MaxStrokesPerCanvas < 0 {
		return fmt.Errorf("retention.maxStrokesPerCanvas must not be negative")
	}
	return nil
}

// RetentionInterval returns the parsed sweep interval.
func (c *Config) RetentionInterval() time.Duration {
	d, err := time.ParseDuration(c.Retention.Interval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}
