package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-project-finance/internal/logger"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Scan     ScanConfig     `yaml:"scan"`
	AI       AIConfig       `yaml:"ai"`
}

type ServerConfig struct {
	Port              int      `yaml:"port"`
	AllowOrigins      []string `yaml:"allow_origins"`
	AllowRegistration bool     `yaml:"allow_registration"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // mysql, postgres, sqlite
	DSN    string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type ScanConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Audit    bool          `yaml:"audit"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key"`
	Model        string `yaml:"model"`
}

// Load reads .env (if present), then the optional YAML file named by CONFIG_FILE,
// then lets environment variables override whatever the file said.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Server.AllowRegistration = getEnvBool("ALLOW_REGISTRATION", cfg.Server.AllowRegistration)
	if origin := os.Getenv("ALLOW_ORIGIN"); origin != "" {
		cfg.Server.AllowOrigins = []string{origin}
	}
	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DB_DSN", cfg.Database.DSN)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenExpireHours = getEnvInt("TOKEN_EXPIRE_HOURS", cfg.Auth.TokenExpireHours)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.Output = getEnv("LOG_OUTPUT", cfg.Log.Output)
	cfg.Scan.Enabled = getEnvBool("SCAN_ENABLED", cfg.Scan.Enabled)
	cfg.Scan.Interval = getEnvDuration("SCAN_INTERVAL", cfg.Scan.Interval)
	cfg.Scan.Timeout = getEnvDuration("SCAN_TIMEOUT", cfg.Scan.Timeout)
	cfg.Scan.Audit = getEnvBool("AUDIT_ENABLED", cfg.Scan.Audit)
	cfg.AI.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.AI.GeminiAPIKey)
	cfg.AI.Model = getEnv("GEMINI_MODEL", cfg.AI.Model)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{Driver: "mysql"},
		Auth:     AuthConfig{TokenExpireHours: 24},
		Log:      LogConfig{Level: "info", Format: "console", Output: "stdout"},
		Scan: ScanConfig{
			Enabled:  true,
			Interval: 24 * time.Hour,
			Timeout:  5 * time.Minute,
			Audit:    true,
		},
		AI: AIConfig{Model: "gemini-2.0-flash-001"},
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", c.Database.Driver)
	}
	if c.Database.DSN == "" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Scan.Interval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL must be positive")
	}
	if c.Scan.Timeout <= 0 {
		return fmt.Errorf("SCAN_TIMEOUT must be positive")
	}
	return nil
}

// LoggerConfig returns the logger configuration from the main config
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Output: c.Log.Output,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
