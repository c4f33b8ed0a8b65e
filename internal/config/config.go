package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for image sources.
const (
	StorageLocal = "local"
	StorageHTTP  = "http"
	StorageAzure = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	StorageBackend string
	ReportBackend  string
	ReportRoot     string
	BatchWorkers   int

	AzureAccountName     string
	AzureAccountKey      string
	AzureReportContainer string

	OCREnabled  bool
	OCRLanguage string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads an optional .env file and then the process environment.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:                 getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                 getEnvOrDefault("PORT", "8080"),
		RequestTimeout:       parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:    parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize:   parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		StorageBackend:       strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageLocal)),
		ReportBackend:        strings.ToLower(getEnvOrDefault("REPORT_BACKEND", StorageLocal)),
		ReportRoot:           os.Getenv("REPORT_ROOT"),
		BatchWorkers:         int(parseIntOrDefault("BATCH_WORKERS", 1)),
		AzureAccountName:     os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:      os.Getenv("AZURE_ACCOUNT_KEY"),
		AzureReportContainer: getEnvOrDefault("AZURE_REPORT_CONTAINER", "comparison-reports"),
		OCREnabled:           parseBoolOrDefault("OCR_ENABLED", false),
		OCRLanguage:          getEnvOrDefault("OCR_LANGUAGE", "eng"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and backend requirements.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			c.RequestTimeout, c.ImageFetchTimeout)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be >= 1 (got %d)", c.BatchWorkers)
	}

	switch c.StorageBackend {
	case StorageLocal, StorageHTTP, StorageAzure:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND: %q", c.StorageBackend)
	}
	switch c.ReportBackend {
	case StorageLocal, StorageAzure:
	default:
		return fmt.Errorf("unsupported REPORT_BACKEND: %q", c.ReportBackend)
	}
	if c.usesAzure() && (c.AzureAccountName == "" || c.AzureAccountKey == "") {
		return fmt.Errorf("AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY are required for the azure backend")
	}
	return nil
}

func (c *Config) usesAzure() bool {
	return c.StorageBackend == StorageAzure || c.ReportBackend == StorageAzure
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
