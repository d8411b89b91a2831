package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Mootdx    MootdxConfig    `yaml:"mootdx"`
	Quotes    QuotesConfig    `yaml:"quotes"`
	Collector CollectorConfig `yaml:"collector"`
	Writer    WriterConfig    `yaml:"writer"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type MootdxConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type QuotesConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	BestIP  bool          `yaml:"bestip"`
	Servers ServersConfig `yaml:"servers"`
	Retry   RetryConfig   `yaml:"retry"`
}

type ServersConfig struct {
	HQ []ServerConfig `yaml:"hq"`
	EX []ServerConfig `yaml:"ex"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	WaitMin     time.Duration `yaml:"wait_min"`
	WaitMax     time.Duration `yaml:"wait_max"`
}

type CollectorConfig struct {
	Symbols   []string        `yaml:"symbols"`
	Begin     string          `yaml:"begin"`
	Calendar  string          `yaml:"calendar"`
	OutputDir string          `yaml:"output_dir"`
	Database  string          `yaml:"database"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

type WriterConfig struct {
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level         string                 `yaml:"level"`
	Format        string                 `yaml:"format"`
	Output        string                 `yaml:"output"`
	MaxAge        int                    `yaml:"max_age"`
	Fields        map[string]interface{} `yaml:"fields"`
	DashboardName string                 `yaml:"dashboard_name"`
}

const defaultConfigPath = "config.yml"

// envConfigPaths maps production-like environments to the config file used
// when LoadConfig is called with the default path.
var envConfigPaths = map[string]string{
	EnvironmentProduction: "config.production.yml",
	EnvironmentStaging:    "config.staging.yml",
}

func LoadConfig(path string) (*Config, error) {
	// A .env next to the process seeds credentials; a missing file is fine.
	_ = godotenv.Load()

	path = resolveEnvSpecificPath(path, defaultConfigPath, envConfigPaths)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Quotes: QuotesConfig{
			Timeout: 15 * time.Second,
			BestIP:  true,
			Retry: RetryConfig{
				MaxAttempts: 3,
				WaitMin:     1 * time.Second,
				WaitMax:     10 * time.Second,
			},
		},
		Collector: CollectorConfig{
			Calendar:  "xshg",
			OutputDir: "data",
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 5,
				BurstSize:         1,
			},
		},
		Writer: WriterConfig{
			Compression: "snappy",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
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

	if err := validateConfig(&config, AppEnvironment()); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config, env string) error {
	if cfg.Mootdx.Name == "" {
		return fmt.Errorf("mootdx.name is required")
	}
	if cfg.Mootdx.Version == "" {
		return fmt.Errorf("mootdx.version is required")
	}

	if cfg.Quotes.Timeout <= 0 {
		return fmt.Errorf("quotes.timeout must be greater than 0")
	}
	if cfg.Quotes.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("quotes.retry.max_attempts must be greater than 0")
	}
	if cfg.Quotes.Retry.WaitMin <= 0 || cfg.Quotes.Retry.WaitMax < cfg.Quotes.Retry.WaitMin {
		return fmt.Errorf("quotes.retry wait bounds must satisfy 0 < wait_min <= wait_max")
	}

	// Development falls back to the built-in server directory; deployed
	// environments must pin their pools explicitly.
	if IsProductionLike(env) {
		if len(cfg.Quotes.Servers.HQ) == 0 {
			return fmt.Errorf("quotes.servers.hq must not be empty in %s", env)
		}
		if len(cfg.Quotes.Servers.EX) == 0 {
			return fmt.Errorf("quotes.servers.ex must not be empty in %s", env)
		}
	}

	for _, s := range append(cfg.Quotes.Servers.HQ, cfg.Quotes.Servers.EX...) {
		if s.Addr == "" {
			return fmt.Errorf("quotes.servers entries require an addr")
		}
		if s.Port <= 0 || s.Port > 65535 {
			return fmt.Errorf("quotes.servers port %d out of range", s.Port)
		}
	}

	if cfg.Collector.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("collector.rate_limit.requests_per_second must be greater than 0")
	}
	if cfg.Collector.RateLimit.BurstSize <= 0 {
		return fmt.Errorf("collector.rate_limit.burst_size must be greater than 0")
	}
	if cfg.Collector.Begin != "" && !isValidDate(cfg.Collector.Begin) {
		return fmt.Errorf("collector.begin %q is not a date (YYYY-MM-DD or YYYYMMDD)", cfg.Collector.Begin)
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

var s3BucketRe = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	return s3BucketRe.MatchString(name)
}

func isValidDate(value string) bool {
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
