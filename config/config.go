// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ManagerMerge folds the Merge manager into Keep after each import.
type ManagerMerge struct {
	Keep  string
	Merge string
}

type Config struct {
	DatabaseDriver string
	DatabaseURL    string

	ServerPort        int
	JWTSecretKey      string
	AdminPasswordHash string
	CORSAllowOrigins  []string
	RateLimitRPS      float64
	RateLimitBurst    int
	SchedulerInterval time.Duration

	OutputDir     string
	TemplateDir   string
	PublicBaseURL string
	SnapshotPath  string

	ManagerMerges []ManagerMerge

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	LogLevel slog.Level
}

// Load reads configuration from environment variables. A missing .env file
// is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	driver := envOr("DATABASE_DRIVER", "sqlite")
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", driver)
	}

	port := envInt("SERVER_PORT", 8080)
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	interval, err := time.ParseDuration(envOr("SCHEDULER_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_INTERVAL: %w", err)
	}

	rps, err := strconv.ParseFloat(envOr("RATE_LIMIT_RPS", "20"), 64)
	if err != nil || rps < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %q", os.Getenv("RATE_LIMIT_RPS"))
	}

	merges, err := ParseManagerMerges(os.Getenv("MANAGER_MERGES"))
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(envOr("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return &Config{
		DatabaseDriver: driver,
		DatabaseURL:    envOr("DATABASE_URL", "football.db"),

		ServerPort:        port,
		JWTSecretKey:      os.Getenv("JWT_SECRET_KEY"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		CORSAllowOrigins:  envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:      rps,
		RateLimitBurst:    envInt("RATE_LIMIT_BURST", 40),
		SchedulerInterval: interval,

		OutputDir:     envOr("OUTPUT_DIR", "site"),
		TemplateDir:   os.Getenv("TEMPLATE_DIR"),
		PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
		SnapshotPath:  os.Getenv("SNAPSHOT_PATH"),

		ManagerMerges: merges,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		LogLevel: level,
	}, nil
}

// ValidateServe checks the settings only the HTTP server needs.
func (c *Config) ValidateServe() error {
	if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	if c.SchedulerInterval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive, got %v", c.SchedulerInterval)
	}
	return nil
}

// ParseManagerMerges reads "keep:merge,keep:merge" pairs.
func ParseManagerMerges(raw string) ([]ManagerMerge, error) {
	var merges []ManagerMerge
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		keep, merge, ok := strings.Cut(pair, ":")
		keep, merge = strings.TrimSpace(keep), strings.TrimSpace(merge)
		if !ok || keep == "" || merge == "" || keep == merge {
			return nil, fmt.Errorf("invalid MANAGER_MERGES entry %q, want keep:merge", pair)
		}
		merges = append(merges, ManagerMerge{Keep: keep, Merge: merge})
	}
	return merges, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
