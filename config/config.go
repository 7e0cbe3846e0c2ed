package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL,required"`
	JWTSecretKey   string `env:"JWT_SECRET_KEY,required"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPassword string        `env:"SMTP_PASS"`
	SMTPFrom     string        `env:"SMTP_FROM"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`

	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2Endpoint        string `env:"R2_ENDPOINT"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicBaseURL   string `env:"R2_PUBLIC_BASE_URL"`

	StrictStatusTransitions bool          `env:"STRICT_STATUS_TRANSITIONS" envDefault:"false"`
	StatusSweepInterval     time.Duration `env:"STATUS_SWEEP_INTERVAL" envDefault:"1m"`
	NotificationConcurrency int           `env:"NOTIFICATION_CONCURRENCY" envDefault:"8"`
}

// SMTPEnabled reports whether email notifications can be sent.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// ArchiveEnabled reports whether generated brackets are archived.
func (c *Config) ArchiveEnabled() bool {
	return c.R2BucketName != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.DatabaseDriver {
	case "postgres", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite3, got %q", c.DatabaseDriver))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort))
	}
	if c.StatusSweepInterval < time.Second {
		errs = append(errs, fmt.Errorf("STATUS_SWEEP_INTERVAL must be at least 1s, got %s", c.StatusSweepInterval))
	}
	if c.NotificationConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("NOTIFICATION_CONCURRENCY must be positive, got %d", c.NotificationConcurrency))
	}
	if c.SMTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SMTP_TIMEOUT must be positive, got %s", c.SMTPTimeout))
	}
	if c.SMTPHost != "" && c.SMTPFrom == "" {
		errs = append(errs, errors.New("SMTP_FROM is required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}
