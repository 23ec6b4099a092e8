package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Env      string
	Database DatabaseConfig
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Auth     AuthConfig
	Log      LogConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path or DSN
}

// HTTPConfig contains web server settings.
type HTTPConfig struct {
	Address    string // e.g. ":5000"
	TrustProxy bool   // honor X-Forwarded-For/X-Real-IP from a fronting proxy
}

// GRPCConfig contains gRPC health endpoint settings.
type GRPCConfig struct {
	Address string // empty disables the endpoint
}

// AuthConfig contains session settings.
type AuthConfig struct {
	SessionSecret      string        // signs session cookies
	SessionTTL         time.Duration // lifetime of a login
	CookieSecure       bool          // set Secure on session cookies
	LoginRatePerMinute int           // login attempts per client per minute
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string // logrus level name
	Format string // "json" or "text"
}

const devSessionSecret = "dev-secret-change-me"

// Load reads configuration from the environment (after an optional .env file).
// SESSION_SECRET is required.
func Load() (*Config, error) {
	cfg, err := load("")
	if err != nil {
		return nil, err
	}
	if cfg.Auth.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but falls back to a fixed session secret.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	return load(devSessionSecret)
}

// LoadForEnv picks LoadWithDefaults when APP_ENV=development and Load otherwise.
func LoadForEnv() (*Config, error) {
	loadDotenv()
	if getEnv("APP_ENV", "production") == "development" {
		return LoadWithDefaults()
	}
	return Load()
}

func load(defaultSecret string) (*Config, error) {
	loadDotenv()

	ttlHours, err := getEnvInt("SESSION_TTL", 12)
	if err != nil {
		return nil, err
	}
	if ttlHours <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %d", ttlHours)
	}
	rate, err := getEnvInt("LOGIN_RATE_PER_MINUTE", 10)
	if err != nil {
		return nil, err
	}
	secure, err := getEnvBool("COOKIE_SECURE", false)
	if err != nil {
		return nil, err
	}
	trustProxy, err := getEnvBool("TRUST_PROXY", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Env: getEnv("APP_ENV", "production"),
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "doacoes.db"),
		},
		HTTP: HTTPConfig{
			Address:    getEnv("HTTP_ADDRESS", ":5000"),
			TrustProxy: trustProxy,
		},
		GRPC: GRPCConfig{
			Address: getEnv("GRPC_ADDRESS", ""),
		},
		Auth: AuthConfig{
			SessionSecret:      getEnv("SESSION_SECRET", defaultSecret),
			SessionTTL:         time.Duration(ttlHours) * time.Hour,
			CookieSecure:       secure,
			LoginRatePerMinute: rate,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// loadDotenv loads .env if present. Variables already set win.
func loadDotenv() {
	_ = godotenv.Load()
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
		}
		return b, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	grpcAddr := c.GRPC.Address
	if grpcAddr == "" {
		grpcAddr = "disabled"
	}
	return fmt.Sprintf("Config{Env: %s, DB: %s, HTTP: %s, gRPC: %s, SessionTTL: %s, Auth: *** (masked) ***}",
		c.Env, c.Database.Path, c.HTTP.Address, grpcAddr, c.Auth.SessionTTL)
}
