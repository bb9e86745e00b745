package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	goyaml "gopkg.in/yaml.v3"
)

type Config struct {
	BotToken      string        `yaml:"bot_token"`
	DBPath        string        `yaml:"db_path"`
	Timezone      string        `yaml:"timezone"`
	Debug         bool          `yaml:"debug"`
	StoreTimeout  time.Duration `yaml:"store_timeout"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	AMQPURL       string        `yaml:"amqp_url"`
	AMQPExchange  string        `yaml:"amqp_exchange"`
	HealthAddr    string        `yaml:"health_addr"`
}

func defaults() *Config {
	return &Config{
		DBPath:        "state.db",
		StoreTimeout:  5 * time.Second,
		SweepInterval: 10 * time.Minute,
		AMQPExchange:  "duty-bot",
	}
}

// MustLoad reads the YAML file at path and applies env overrides on top.
// A missing file is not an error: the bot can run from the environment alone.
func MustLoad(path string) (*Config, error) {
	cfg := defaults()
	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err == nil {
		if err := goyaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("TOKEN"); v != "" && cfg.BotToken == "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQPURL = v
	}
	if v := os.Getenv("HEALTH_ADDR"); v != "" {
		cfg.HealthAddr = v
	}
	if v := os.Getenv("TZ"); v != "" {
		cfg.Timezone = v
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "state.db"
	}
	return cfg, nil
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks what the bot needs to serve traffic.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("config: bot_token is required (or set BOT_TOKEN)")
	}
	if c.StoreTimeout < 0 || c.SessionTTL < 0 || c.SweepInterval < 0 {
		return errors.New("config: durations must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
