package config

import (
	"errors"
	"os"

	"github.com/hashicorp/go-multierror"
)

type Config struct {
	Port string

	DatabasePath string

	StripeSecretKey     string
	StripePriceID       string
	StripeWebhookSecret string

	// BaseURL is the public address of this server; checkout success and
	// cancel redirects point back at it.
	BaseURL string

	SentryDSN string

	// SMTP settings are optional as a group: all set enables license
	// emails, all empty disables them, anything in between is a config
	// error.
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
}

// New reads configuration from the environment. All missing required
// variables are reported together rather than one per run.
func New() (*Config, error) {
	cfg := &Config{
		Port:                os.Getenv("PORT"),
		DatabasePath:        os.Getenv("DATABASE_PATH"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripePriceID:       os.Getenv("STRIPE_PRICE_ID"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		BaseURL:             os.Getenv("BASE_URL"),
		SentryDSN:           os.Getenv("SENTRY_DSN"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            os.Getenv("SMTP_PORT"),
		SMTPUser:            os.Getenv("SMTP_USER"),
		SMTPPass:            os.Getenv("SMTP_PASS"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "promptpilot.db"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}

	var result *multierror.Error
	if cfg.StripeSecretKey == "" {
		result = multierror.Append(result, errors.New("STRIPE_SECRET_KEY environment variable is required"))
	}
	if cfg.StripePriceID == "" {
		result = multierror.Append(result, errors.New("STRIPE_PRICE_ID environment variable is required"))
	}
	if cfg.StripeWebhookSecret == "" {
		result = multierror.Append(result, errors.New("STRIPE_WEBHOOK_SECRET environment variable is required"))
	}

	smtpSet := 0
	for _, v := range []string{cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass} {
		if v != "" {
			smtpSet++
		}
	}
	if smtpSet > 0 && smtpSet < 4 {
		result = multierror.Append(result, errors.New("SMTP_HOST, SMTP_PORT, SMTP_USER and SMTP_PASS must be set together"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return cfg, nil
}
