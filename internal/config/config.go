package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/msquare/pkg/scrollstack"
	"gopkg.in/yaml.v3"
)

// Environment overrides applied after the file is read.
const (
	EnvResendAPIKey = "RESEND_API_KEY"
	EnvAdminToken   = "MSQUARE_ADMIN_TOKEN"
	EnvRedisAddr    = "MSQUARE_REDIS_ADDR"
	EnvPort         = "MSQUARE_PORT"
)

// Config is the msquare.yaml file.
type Config struct {
	LogLevel string        `yaml:"log_level" json:"log_level"`
	Server   ServerConfig  `yaml:"server" json:"server"`
	Admin    AdminConfig   `yaml:"admin" json:"admin"`
	Mail     MailConfig    `yaml:"mail" json:"mail"`
	Store    StoreConfig   `yaml:"store" json:"store"`
	Media    MediaConfig   `yaml:"media" json:"media"`
	Preview  PreviewConfig `yaml:"preview" json:"preview"`

	// Stack is decoded by scrollstack.ParseConfig so that percent strings and durations are validated there.
	Stack map[string]any `yaml:"stack" json:"stack"`
}

type ServerConfig struct {
	Port       int    `yaml:"port" json:"port"`
	CORSOrigin string `yaml:"cors_origin" json:"cors_origin"`
}

type AdminConfig struct {
	Token string `yaml:"token" json:"token"`
}

type MailConfig struct {
	APIKey   string `yaml:"api_key" json:"api_key"`
	From     string `yaml:"from" json:"from"`
	To       string `yaml:"to" json:"to"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

type StoreConfig struct {
	// Driver is "memory" or "redis".
	Driver string      `yaml:"driver" json:"driver"`
	Redis  RedisConfig `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

type MediaConfig struct {
	Dir     string `yaml:"dir" json:"dir"`
	BaseURL string `yaml:"base_url" json:"base_url"`
}

type PreviewConfig struct {
	FPS        int     `yaml:"fps" json:"fps"`
	ScrollStep float64 `yaml:"scroll_step" json:"scroll_step"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server:   ServerConfig{Port: 8080, CORSOrigin: "*"},
		Mail: MailConfig{
			From:     "MSquare Architects <onboarding@resend.dev>",
			To:       "info@msquarearchitects.com",
			Endpoint: "https://api.resend.com/emails",
		},
		Store:   StoreConfig{Driver: "memory", Redis: RedisConfig{Addr: "localhost:6379", Prefix: "msquare"}},
		Media:   MediaConfig{Dir: "media", BaseURL: "/media"},
		Preview: PreviewConfig{FPS: 30, ScrollStep: 1},
	}
}

// Load reads a YAML (or JSON, by extension) config file over the defaults and applies environment overrides.
// A missing file is not an error: the defaults are used.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		case strings.ToLower(filepath.Ext(path)) == ".json":
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvResendAPIKey); v != "" {
		c.Mail.APIKey = v
	}
	if v := os.Getenv(EnvAdminToken); v != "" {
		c.Admin.Token = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Store.Driver = "redis"
		c.Store.Redis.Addr = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks the fields that would otherwise fail late at startup.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, err := c.StackConfig(); err != nil {
		return err
	}
	return nil
}

// StackConfig decodes the stack section over scrollstack.DefaultConfig.
func (c Config) StackConfig() (scrollstack.Config, error) {
	return scrollstack.ParseConfig(c.Stack)
}
