package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"promptpilot.app/cloud/handlers"
	"promptpilot.app/cloud/internal/config"
	"promptpilot.app/cloud/internal/email"
	"promptpilot.app/cloud/internal/logger"
	"promptpilot.app/cloud/payment"
	"promptpilot.app/cloud/storage"
)

var version = "dev"

func main() {
	if versionBytes, err := os.ReadFile("VERSION"); err == nil {
		version = strings.TrimSpace(string(versionBytes))
	}

	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		TracesSampleRate: 1.0,
	}); err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}

	db, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close storage", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	provider := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripePriceID, cfg.BaseURL)

	server := handlers.NewHTTPServer(db, provider, cfg.StripeWebhookSecret)
	server.Version = version
	server.Mailer = email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)

	logger.Info("PromptPilot cloud API starting", map[string]interface{}{
		"version": version,
		"port":    cfg.Port,
	})

	log.Fatal(http.ListenAndServe(":"+cfg.Port, server.Router))
}
