package config

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"regexp"
	"strings"
)

type Config struct {
	Nemflow Nemflow       `yaml:"nemflow"`
	Source  SourceConfig  `yaml:"source"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

type Nemflow struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type SourceConfig struct {
	BaseURL        string `yaml:"base_url"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RequestDelayMs int    `yaml:"request_delay_ms"`
}

type IngestConfig struct {
	PollIntervalMinutes int `yaml:"poll_interval_minutes"`
	CooldownSeconds     int `yaml:"cooldown_seconds"`
	PriceBackfillDays   int `yaml:"price_backfill_days"`
	MaxBackfillDates    int `yaml:"max_backfill_dates"`
	ArchiveDelayDays    int `yaml:"archive_delay_days"`
}

type StorageConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
	S3       S3Config       `yaml:"s3"`
}

type PostgresConfig struct {
	URL     string `yaml:"url"`
	PoolMin int    `yaml:"pool_min"`
	PoolMax int    `yaml:"pool_max"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Source: SourceConfig{
			BaseURL:        "https://www.nemweb.com.au",
			UserAgent:      "nemflow/1.0",
			TimeoutSeconds: 30,
			RequestDelayMs: 1000,
		},
		Ingest: IngestConfig{
			PollIntervalMinutes: 5,
			CooldownSeconds:     60,
			PriceBackfillDays:   30,
			MaxBackfillDates:    10,
			ArchiveDelayDays:    2,
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override secrets from environment variables if available
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Storage.Postgres.URL = strings.TrimSpace(v)
	}
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Nemflow.Name == "" {
		return fmt.Errorf("nemflow.name is required")
	}

	if cfg.Nemflow.Version == "" {
		return fmt.Errorf("nemflow.version is required")
	}

	if cfg.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if cfg.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be greater than 0")
	}
	if cfg.Source.RequestDelayMs < 0 {
		return fmt.Errorf("source.request_delay_ms must not be negative")
	}

	if cfg.Ingest.PollIntervalMinutes <= 0 {
		return fmt.Errorf("ingest.poll_interval_minutes must be greater than 0")
	}
	if cfg.Ingest.CooldownSeconds <= 0 {
		return fmt.Errorf("ingest.cooldown_seconds must be greater than 0")
	}
	if cfg.Ingest.PriceBackfillDays <= 0 {
		return fmt.Errorf("ingest.price_backfill_days must be greater than 0")
	}
	if cfg.Ingest.MaxBackfillDates <= 0 {
		return fmt.Errorf("ingest.max_backfill_dates must be greater than 0")
	}
	if cfg.Ingest.ArchiveDelayDays < 0 {
		return fmt.Errorf("ingest.archive_delay_days must not be negative")
	}

	if cfg.Storage.Postgres.URL == "" {
		return fmt.Errorf("storage.postgres.url is required")
	}
	if cfg.Storage.Postgres.PoolMax > 0 && cfg.Storage.Postgres.PoolMin > cfg.Storage.Postgres.PoolMax {
		return fmt.Errorf("storage.postgres.pool_min must not exceed pool_max")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
