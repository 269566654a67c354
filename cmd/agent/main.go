// The agent is the extension's long-lived background worker: it owns the
// local entitlement cache, re-verifies the license against the entitlement
// server, and relays status changes to UI contexts.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/browser"

	"promptpilot.app/cloud/extension"
	"promptpilot.app/cloud/internal/logger"
)

func main() {
	_ = godotenv.Load()

	serverURL := flag.String("server", defaultServerURL(), "entitlement server base URL")
	dataPath := flag.String("data", defaultDataPath(), "path to the local store file")
	upgrade := flag.Bool("upgrade", false, "start a premium upgrade checkout and exit when confirmed")
	flag.Parse()

	store, err := extension.OpenStore(*dataPath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	if _, err := extension.GetInstallationID(store); err != nil {
		log.Fatalf("installation id: %v", err)
	}

	client := extension.NewClient(*serverURL)
	notifier := extension.NewNotifier()
	service := extension.NewService(store, client, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates, cancel := notifier.Subscribe(8)
	defer cancel()
	go func() {
		for msg := range updates {
			if msg.Type == extension.MsgPremiumStatusUpdated {
				logger.Info("Premium status updated", map[string]interface{}{
					"is_premium": msg.IsPremium,
				})
			}
		}
	}()

	if *upgrade {
		checkoutURL, err := service.InitiateUpgrade(ctx)
		if err != nil {
			log.Fatalf("upgrade: %v", err)
		}

		if err := browser.OpenURL(checkoutURL); err != nil {
			logger.Warn("Could not open browser, visit the URL manually", map[string]interface{}{
				"url": checkoutURL,
			})
		}

		service.Send(extension.Message{Type: extension.MsgStartUpgradePolling})
	}

	service.Run(ctx)
}

func defaultServerURL() string {
	if url := os.Getenv("PROMPTPILOT_API_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "promptpilot-agent.json"
	}
	return filepath.Join(home, ".promptpilot", "agent.json")
}
