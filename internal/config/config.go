package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                   string        `mapstructure:"PORT"`
	Env                    string        `mapstructure:"ENV"`
	DatabaseURL            string        `mapstructure:"DATABASE_URL"`
	DBHost                 string        `mapstructure:"DB_HOST"`
	DBPort                 string        `mapstructure:"DB_PORT"`
	DBUser                 string        `mapstructure:"DB_USER"`
	DBPassword             string        `mapstructure:"DB_PASSWORD"`
	DBName                 string        `mapstructure:"DB_NAME"`
	DBSSLMode              string        `mapstructure:"DB_SSLMODE"`
	DBMaxConns             int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns             int32         `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir          string        `mapstructure:"MIGRATIONS_DIR"`
	CORSOrigins            []string      `mapstructure:"FRONTEND_ORIGIN"`
	JWTSecret              string        `mapstructure:"JWT_SECRET"`
	JWTIssuer              string        `mapstructure:"JWT_ISSUER"`
	TokenTTL               time.Duration `mapstructure:"TOKEN_TTL"`
	BcryptCost             int           `mapstructure:"BCRYPT_COST"`
	DefaultPatientPassword string        `mapstructure:"DEFAULT_PATIENT_PASSWORD"`
	StatusPolicy           string        `mapstructure:"STATUS_POLICY"`
	RedisURL               string        `mapstructure:"REDIS_URL"`
	SMTPHost               string        `mapstructure:"SMTP_HOST"`
	SMTPPort               int           `mapstructure:"SMTP_PORT"`
	SMTPUser               string        `mapstructure:"SMTP_USER"`
	SMTPPassword           string        `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom               string        `mapstructure:"SMTP_FROM"`
	ReminderSchedule       string        `mapstructure:"REMINDER_SCHEDULE"`
	RateLimitRPS           float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst         int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout         time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit              string        `mapstructure:"BODY_LIMIT"`
}

var envKeys = []string{
	"PORT", "ENV",
	"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"DB_MAX_CONNS", "DB_MIN_CONNS", "MIGRATIONS_DIR",
	"FRONTEND_ORIGIN",
	"JWT_SECRET", "JWT_ISSUER", "TOKEN_TTL", "BCRYPT_COST", "DEFAULT_PATIENT_PASSWORD",
	"STATUS_POLICY",
	"REDIS_URL",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "SMTP_FROM",
	"REMINDER_SCHEDULE",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT", "BODY_LIMIT",
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "hospital_management")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("FRONTEND_ORIGIN", "http://localhost:3000")
	v.SetDefault("JWT_ISSUER", "hms")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("DEFAULT_PATIENT_PASSWORD", "patient123")
	v.SetDefault("STATUS_POLICY", "permissive")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("REMINDER_SCHEDULE", "0 8 * * *")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	origins := v.GetString("FRONTEND_ORIGIN")
	if origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.buildDatabaseURL()
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildDatabaseURL assembles a postgres URL from the discrete DB_* settings.
func (c *Config) buildDatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	if c.DBPassword != "" {
		u.User = url.UserPassword(c.DBUser, c.DBPassword)
	} else {
		u.User = url.User(c.DBUser)
	}
	q := url.Values{}
	q.Set("sslmode", c.DBSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SMTPEnabled reports whether outbound email should go through SMTP rather
// than the log sender.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT secret of at least 32 bytes is required, since it signs every session.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST/DB_NAME is required")
	}
	if !c.IsDev() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes when ENV=%q", c.Env)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if len(c.DefaultPatientPassword) < 8 {
		return fmt.Errorf("DEFAULT_PATIENT_PASSWORD must be at least 8 characters")
	}
	if c.StatusPolicy != "permissive" && c.StatusPolicy != "strict" {
		return fmt.Errorf("STATUS_POLICY must be \"permissive\" or \"strict\", got %q", c.StatusPolicy)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.SMTPEnabled() && c.SMTPFrom == "" {
		return fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}
	return nil
}
