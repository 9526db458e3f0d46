package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// CORS
	CORSAllowedOrigins []string

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External data providers
	Providers ProvidersConfig

	// Engine settings (YAML) path
	AtlasConfigPath string

	// Concurrent collector workers
	CollectorWorkers int

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns          int
	MinConns          int
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration

	// Per-connection session settings
	ApplicationName  string
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration // 0 = server default
}

// ProvidersConfig holds the NAV and index data sources
type ProvidersConfig struct {
	AMFINavURL    string // NAVAll.txt
	MFAPIBaseURL  string
	KuveraBaseURL string
	YahooBaseURL  string // HTML history fallback

	// Per-host request budget (requests/second)
	RequestsPerSecond int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		// Database
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			MaxConns:          getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:          getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", "1m"),
			ApplicationName:   getEnv("DB_APPLICATION_NAME", "mfatlas"),
			ConnectTimeout:    getEnvAsDuration("DB_CONNECT_TIMEOUT", "5s"),
			StatementTimeout:  getEnvAsDuration("DB_STATEMENT_TIMEOUT", "60s"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Providers: ProvidersConfig{
			AMFINavURL:        getEnv("AMFI_NAV_URL", "https://portal.amfiindia.com/spages/NAVAll.txt"),
			MFAPIBaseURL:      getEnv("MFAPI_BASE_URL", "https://api.mfapi.in"),
			KuveraBaseURL:     getEnv("KUVERA_BASE_URL", "https://api.kuvera.in/mf/api"),
			YahooBaseURL:      getEnv("YAHOO_BASE_URL", "https://finance.yahoo.com"),
			RequestsPerSecond: getEnvAsInt("PROVIDER_RPS", 4),
		},

		AtlasConfigPath:  getEnv("ATLAS_CONFIG", "config/atlas.yaml"),
		CollectorWorkers: getEnvAsInt("COLLECTOR_WORKERS", 4),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// compute 배치가 동시에 쓰기 때문에 최소 2개 필요
	if c.Database.MaxConns < 2 || c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB pool must satisfy 0 <= DB_MIN_CONNS <= DB_MAX_CONNS and DB_MAX_CONNS >= 2")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.CollectorWorkers <= 0 {
		return fmt.Errorf("COLLECTOR_WORKERS must be > 0")
	}

	if c.Providers.RequestsPerSecond <= 0 {
		return fmt.Errorf("PROVIDER_RPS must be > 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	// 실행 파일 기준 경로도 시도
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

// getEnvAsSlice splits a comma-separated value, dropping blanks
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
