package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Email     EmailConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
	MongoURI string
	MongoDB  string
}

type JWTConfig struct {
	Secret             string
	Issuer             string
	ExpiryHours        int
	ResetExpiryMinutes int
}

func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

func (c JWTConfig) ResetTTL() time.Duration {
	return time.Duration(c.ResetExpiryMinutes) * time.Minute
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether SMTP delivery is configured.
func (c EmailConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type SecurityConfig struct {
	BcryptCost int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// LoadConfig reads .env when present; environment variables always win.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "disable-help")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "disable_help")
	v.SetDefault("JWT_ISSUER", "disable-help")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("JWT_RESET_EXPIRY_MINUTES", 15)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("RATE_LIMIT_REQUESTS", 5)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("RATE_LIMIT_BURST", 5)

	if _, err := os.Stat(".env"); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    v.GetString("APP_NAME"),
			Port:    v.GetString("PORT"),
			Debug:   v.GetBool("DEBUG"),
			LogPath: v.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			MongoURI: v.GetString("MONGO_URI"),
			MongoDB:  v.GetString("MONGO_DB"),
		},
		JWT: JWTConfig{
			Secret:             v.GetString("JWT_SECRET"),
			Issuer:             v.GetString("JWT_ISSUER"),
			ExpiryHours:        v.GetInt("JWT_EXPIRY_HOURS"),
			ResetExpiryMinutes: v.GetInt("JWT_RESET_EXPIRY_MINUTES"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
		},
		Security: SecurityConfig{
			BcryptCost: v.GetInt("BCRYPT_COST"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
			Burst:    v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be positive")
	}
	if c.JWT.ResetExpiryMinutes <= 0 {
		return fmt.Errorf("JWT_RESET_EXPIRY_MINUTES must be positive")
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}

	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}

	return nil
}
