package config

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"shiftreport.com/shiftreport/infrastructure/devops"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Slack    SlackConfig    `yaml:"slack"`
	Digest   DigestConfig   `yaml:"digest"`
	Export   ExportConfig   `yaml:"export"`
}

type ServerConfig struct {
	Address     string        `yaml:"address"`
	Mode        string        `yaml:"mode"`
	CorsOrigins []string      `yaml:"cors_origins"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver"`
	DSN            string `yaml:"dsn"`
	MaxConnections int    `yaml:"max_connections"`
	LogLevel       string `yaml:"log_level"`
}

type AuthConfig struct {
	// SigningSecret is base64 encoded.
	SigningSecret string        `yaml:"signing_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
	Issuer        string        `yaml:"issuer"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
}

type SlackConfig struct {
	Token          string `yaml:"token"`
	InfoChannelID  string `yaml:"info_channel"`
	ErrorChannelID string `yaml:"error_channel"`
}

type DigestConfig struct {
	From       string   `yaml:"from"`
	Recipients []string `yaml:"recipients"`
	Timezone   string   `yaml:"timezone"`
}

type ExportConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

var loadParameter = devops.LoadParameter

// Load builds the configuration from .env, the YAML file at path (or $CONFIG_FILE),
// the SSM parameter named by $CONFIG_SSM_PARAMETER and finally environment overrides.
// Missing files are skipped.
func Load(ctx context.Context, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if name := os.Getenv("CONFIG_SSM_PARAMETER"); name != "" {
		if err := loadParameter(ctx, name, cfg); err != nil {
			return nil, fmt.Errorf("load config parameter %s: %w", name, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DSN")
	setString(&c.Auth.SigningSecret, "SIGNING_SECRET")
	setString(&c.Server.Address, "LISTEN_ADDR")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Slack.Token, "SLACK_BOT_TOKEN")
	setString(&c.Slack.InfoChannelID, "SLACK_INFO_CHANNEL")
	setString(&c.Slack.ErrorChannelID, "SLACK_ERROR_CHANNEL")
	setString(&c.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Export.Bucket, "EXPORT_BUCKET")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8000"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "shiftreport.db"
	}
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = 10
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "error"
	}
	if c.Auth.AccessTTL == 0 {
		c.Auth.AccessTTL = 30 * time.Minute
	}
	if c.Auth.RefreshTTL == 0 {
		c.Auth.RefreshTTL = 24 * time.Hour
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "shiftreport"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "shiftreport"
	}
	if c.Digest.Timezone == "" {
		c.Digest.Timezone = "UTC"
	}
	if c.Export.Prefix == "" {
		c.Export.Prefix = "reports/"
	}
}

func (c *Config) Validate() error {
	var problems []string
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "postgresql", "mysql", "sqlite", "sqlite3":
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		problems = append(problems, "database.dsn is required")
	}
	if c.Auth.SigningSecret == "" {
		problems = append(problems, "auth.signing_secret is required")
	} else if _, err := base64.StdEncoding.DecodeString(c.Auth.SigningSecret); err != nil {
		problems = append(problems, "auth.signing_secret must be base64")
	}
	if c.Auth.AccessTTL < 0 || c.Auth.RefreshTTL < 0 {
		problems = append(problems, "auth token lifetimes must be positive")
	}
	if _, err := time.LoadLocation(c.Digest.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("digest.timezone %q is unknown", c.Digest.Timezone))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location is the zone the digest uses to decide which day is "yesterday".
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Digest.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
