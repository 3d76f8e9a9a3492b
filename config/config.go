package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		TrustedProxies []string `yaml:"trustedProxies"`
	} `yaml:"server"`

	Database struct {
		URI  string `yaml:"uri"`
		Name string `yaml:"name"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Storage struct {
		Bucket          string `yaml:"bucket"`
		CDNDomain       string `yaml:"cdnDomain"`
		CredentialsFile string `yaml:"credentialsFile"`
		Prefix          string `yaml:"prefix"`
	} `yaml:"storage"`

	// Admin holds the single CMS credential. PasswordHash is a bcrypt hash,
	// produced by cmd/addadmin.
	Admin struct {
		Email              string `yaml:"email"`
		PasswordHash       string `yaml:"passwordHash"`
		LoginAttempts      int    `yaml:"loginAttempts"`
		LoginWindowMinutes int    `yaml:"loginWindowMinutes"`
	} `yaml:"admin"`

	JWT struct {
		Secret        string `yaml:"secret"`
		ExpiryMinutes int    `yaml:"expiryMinutes"`
	} `yaml:"jwt"`

	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`

	Kiosk struct {
		Timezone        string `yaml:"timezone"`
		DefaultVideoURL string `yaml:"defaultVideoUrl"`
	} `yaml:"kiosk"`
}

const (
	DefaultPort          = 8080
	DefaultExpiryMinutes = 720
	DefaultLoginAttempts = 10
	DefaultDatabaseName  = "kiosk"
	DefaultHomeVideoURL  = "https://interactive-examples.mdn.mozilla.net/media/cc0-videos/flower.mp4"
	defaultAllowedOrigin = "http://localhost:3000"

	DefaultLoginWindowMinutes = 15
)

// LoadConfig reads the configuration file, applies environment overrides and
// fills defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, then applies env overrides and defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("MONGO_URI")); v != "" {
		c.Database.URI = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		c.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("GCS_BUCKET")); v != "" {
		c.Storage.Bucket = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		c.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	if c.Admin.LoginAttempts <= 0 {
		c.Admin.LoginAttempts = DefaultLoginAttempts
	}
	if c.Admin.LoginWindowMinutes <= 0 {
		c.Admin.LoginWindowMinutes = DefaultLoginWindowMinutes
	}
	if c.JWT.ExpiryMinutes <= 0 {
		c.JWT.ExpiryMinutes = DefaultExpiryMinutes
	}
	if c.Kiosk.Timezone == "" {
		c.Kiosk.Timezone = "Local"
	}
	if c.Kiosk.DefaultVideoURL == "" {
		c.Kiosk.DefaultVideoURL = DefaultHomeVideoURL
	}
}

// Location resolves the venue timezone used for live-speaker checks.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Kiosk.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid kiosk timezone %q: %w", c.Kiosk.Timezone, err)
	}
	return loc, nil
}
