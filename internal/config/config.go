package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the API server settings.
type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	DatabaseURL             string
	DBMaxConns              int32
	DBMinConns              int32
	JWTSecret               string
	SessionTTL              time.Duration
	SessionCookieName       string
	SessionCookieSecure     bool
	CORSOrigins             []string
	RateLimitRPM            int
	AuthRateLimitRPM        int
	LockoutThreshold        int
	LockoutDuration         time.Duration
	SeedAdminPassword       string
	DocsPath                string
	Log                     LogConfig
}

// ConsoleConfig holds the web console settings.
type ConsoleConfig struct {
	Port              string
	BackendURL        string
	BackendTimeout    time.Duration
	WorkspaceIdleTTL  time.Duration
	CookieName        string
	CookieSecure      bool
	LoginAttemptsRPM  int
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	Log               LogConfig
}

type LogConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		SessionTTL:              getDuration("SESSION_TTL", 8*time.Hour),
		SessionCookieName:       getEnv("SESSION_COOKIE_NAME", "session"),
		SessionCookieSecure:     getBool("SESSION_COOKIE_SECURE", false),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		LockoutThreshold:        getInt("LOCKOUT_THRESHOLD", 5),
		LockoutDuration:         getDuration("LOCKOUT_DURATION", 15*time.Minute),
		SeedAdminPassword:       strings.TrimSpace(os.Getenv("SEED_ADMIN_PASSWORD")),
		DocsPath:                getEnv("DOCS_PATH", "./docs/openapi.yaml"),
		Log:                     loadLog(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS are inconsistent")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.LockoutThreshold <= 0 {
		return fmt.Errorf("LOCKOUT_THRESHOLD must be positive")
	}

	return nil
}

func LoadConsole() (*ConsoleConfig, error) {
	_ = godotenv.Load()

	cfg := &ConsoleConfig{
		Port:              getEnv("CONSOLE_PORT", "3000"),
		BackendURL:        getEnv("BACKEND_URL", "http://localhost:8080/api"),
		BackendTimeout:    getDuration("BACKEND_TIMEOUT", 10*time.Second),
		WorkspaceIdleTTL:  getDuration("WORKSPACE_IDLE_TTL", 2*time.Hour),
		CookieName:        getEnv("CONSOLE_COOKIE_NAME", "console"),
		CookieSecure:      getBool("CONSOLE_COOKIE_SECURE", false),
		LoginAttemptsRPM:  getInt("CONSOLE_LOGIN_RPM", 10),
		ReadHeaderTimeout: getDuration("CONSOLE_READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getDuration("CONSOLE_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getDuration("CONSOLE_IDLE_TIMEOUT", 120*time.Second),
		Log:               loadLog(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *ConsoleConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("CONSOLE_PORT cannot be empty")
	}

	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("BACKEND_URL must be an absolute http(s) URL")
	}

	if c.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}

	if c.WorkspaceIdleTTL <= 0 {
		return fmt.Errorf("WORKSPACE_IDLE_TTL must be positive")
	}

	return nil
}

func loadLog() LogConfig {
	return LogConfig{
		Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		File:  strings.TrimSpace(os.Getenv("LOG_FILE")),
	}
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
