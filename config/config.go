package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultAccessExpiryMin     = 30
	DefaultRefreshExpiryDays   = 7
	DefaultCSRFExpiryHours     = 24
	DefaultBcryptCost          = 12
	DefaultLoginMaxAttempts    = 5
	DefaultLoginWindowMin      = 15
	DefaultLockoutDurationMin  = 30
	DefaultPasswordMinLength   = 8
	DefaultCookieSameSite      = "lax"
	DefaultPort                = "8080"
	DefaultJWTAlgorithm        = "HS256"
	minSecretLength            = 32
)

// weakSecrets are rejected outright regardless of length.
var weakSecrets = map[string]bool{
	"change-me":  true,
	"secret":     true,
	"password":   true,
	"dev-secret": true,
}

type Config struct {
	Env   string
	Debug bool
	Port  string
	DBURL string

	JWTSecret       string
	JWTAlgorithm    string
	AccessExpiryMin int

	RefreshExpiryDays int
	CSRFExpiryHours   int

	BcryptCost int

	LoginMaxAttempts   int
	LoginWindowMin     int
	LockoutDurationMin int

	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite string

	PasswordMinLength      int
	PasswordRequireUpper   bool
	PasswordRequireLower   bool
	PasswordRequireNumber  bool
	PasswordRequireSpecial bool
}

// Load reads configuration from config/.env.<env> (when present) and the
// process environment, then validates every value against its allowed range.
func Load() (*Config, error) {
	env := getEnv("ENV", "development")

	envFile := "config/.env.dev"
	if env == "production" {
		envFile = "config/.env.prod"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("warn: could not load %s: %v", envFile, err)
		}
	}

	cfg := &Config{
		Env:   env,
		Debug: getEnvAsBool("DEBUG", false),
		Port:  getEnv("PORT", DefaultPort),
		DBURL: os.Getenv("DB_URL"),

		JWTSecret:       os.Getenv("JWT_SECRET_KEY"),
		JWTAlgorithm:    getEnv("JWT_ALGORITHM", DefaultJWTAlgorithm),
		AccessExpiryMin: getEnvAsInt("ACCESS_TOKEN_EXPIRY_MINUTES", DefaultAccessExpiryMin),

		RefreshExpiryDays: getEnvAsInt("REFRESH_TOKEN_EXPIRY_DAYS", DefaultRefreshExpiryDays),
		CSRFExpiryHours:   getEnvAsInt("CSRF_TOKEN_EXPIRY_HOURS", DefaultCSRFExpiryHours),

		BcryptCost: getEnvAsInt("BCRYPT_COST", DefaultBcryptCost),

		LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", DefaultLoginMaxAttempts),
		LoginWindowMin:     getEnvAsInt("LOGIN_ATTEMPT_WINDOW_MINUTES", DefaultLoginWindowMin),
		LockoutDurationMin: getEnvAsInt("LOCKOUT_DURATION_MINUTES", DefaultLockoutDurationMin),

		CookieSecure:   getEnvAsBool("COOKIE_SECURE", true),
		CookieHTTPOnly: getEnvAsBool("COOKIE_HTTPONLY", true),
		CookieSameSite: strings.ToLower(getEnv("COOKIE_SAMESITE", DefaultCookieSameSite)),

		PasswordMinLength:      getEnvAsInt("PASSWORD_MIN_LENGTH", DefaultPasswordMinLength),
		PasswordRequireUpper:   getEnvAsBool("PASSWORD_REQUIRE_UPPERCASE", true),
		PasswordRequireLower:   getEnvAsBool("PASSWORD_REQUIRE_LOWERCASE", true),
		PasswordRequireNumber:  getEnvAsBool("PASSWORD_REQUIRE_NUMBERS", true),
		PasswordRequireSpecial: getEnvAsBool("PASSWORD_REQUIRE_SPECIAL_CHARS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every configured value against its allowed range and the
// environment-specific hardening rules.
func (c *Config) Validate() error {
	switch c.Env {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENV must be development, staging or production, got %q", c.Env)
	}

	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET_KEY must be at least %d characters", minSecretLength)
	}
	if weakSecrets[c.JWTSecret] {
		return fmt.Errorf("JWT_SECRET_KEY cannot use a default/weak value")
	}

	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("JWT_ALGORITHM must be HS256, HS384 or HS512, got %q", c.JWTAlgorithm)
	}

	if err := inRange("ACCESS_TOKEN_EXPIRY_MINUTES", c.AccessExpiryMin, 5, 120); err != nil {
		return err
	}
	if err := inRange("REFRESH_TOKEN_EXPIRY_DAYS", c.RefreshExpiryDays, 1, 30); err != nil {
		return err
	}
	if err := inRange("CSRF_TOKEN_EXPIRY_HOURS", c.CSRFExpiryHours, 1, 48); err != nil {
		return err
	}
	if err := inRange("BCRYPT_COST", c.BcryptCost, 10, 15); err != nil {
		return err
	}
	if err := inRange("LOGIN_MAX_ATTEMPTS", c.LoginMaxAttempts, 3, 20); err != nil {
		return err
	}
	if err := inRange("LOGIN_ATTEMPT_WINDOW_MINUTES", c.LoginWindowMin, 5, 60); err != nil {
		return err
	}
	if err := inRange("LOCKOUT_DURATION_MINUTES", c.LockoutDurationMin, 15, 1440); err != nil {
		return err
	}

	switch c.CookieSameSite {
	case "strict", "lax", "none":
	default:
		return fmt.Errorf("COOKIE_SAMESITE must be strict, lax or none, got %q", c.CookieSameSite)
	}

	if c.Env == "production" {
		if c.Debug {
			return fmt.Errorf("DEBUG must be disabled in production")
		}
		if !c.CookieSecure {
			return fmt.Errorf("COOKIE_SECURE must be enabled in production")
		}
	}
	return nil
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessExpiryMin) * time.Minute
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshExpiryDays) * 24 * time.Hour
}

func (c *Config) CSRFTokenTTL() time.Duration {
	return time.Duration(c.CSRFExpiryHours) * time.Hour
}

func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.LoginWindowMin) * time.Minute
}

func (c *Config) LockoutDuration() time.Duration {
	return time.Duration(c.LockoutDurationMin) * time.Minute
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func inRange(name string, v, min, max int) error {
	if v < min || v > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, v)
	}
	return nil
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %t", key, defaultVal)
		return defaultVal
	}
	return val
}
