package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"promptpilot.app/cloud/internal/logger"
)

// Webhook receives payment-processor events. Signature failures are 400 so
// the processor retries; business-logic failures after that are logged and
// swallowed. The processor delivers at-least-once, and re-running a
// half-applied completion is worse than losing one log line.
func (s *Server) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logger.Info("Webhook received", map[string]interface{}{
		"remote_addr": r.RemoteAddr,
		"user_agent":  r.Header.Get("User-Agent"),
	})

	const MaxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read webhook payload", map[string]interface{}{
			"error": err.Error(),
		})
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	event := stripe.Event{}
	if err := json.Unmarshal(payload, &event); err != nil {
		logger.Error("Failed to parse webhook JSON", map[string]interface{}{
			"error": err.Error(),
		})
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Skip signature verification in test mode
	if os.Getenv("TEST_MODE") != "true" {
		signatureHeader := r.Header.Get("Stripe-Signature")
		event, err = webhook.ConstructEvent(payload, signatureHeader, s.WebhookSecret)
		if err != nil {
			logger.Error("Webhook signature verification failed", map[string]interface{}{
				"error": err.Error(),
			})
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	switch event.Type {
	case "checkout.session.completed":
		var checkoutSession stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &checkoutSession); err != nil {
			logger.Error("Failed to unmarshal checkout session", map[string]interface{}{
				"error":    err.Error(),
				"event_id": event.ID,
			})
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if err := s.handleCheckoutComplete(ctx, &checkoutSession); err != nil {
			logger.Error("Failed to handle checkout completion", map[string]interface{}{
				"error":      err.Error(),
				"session_id": checkoutSession.ID,
				"event_id":   event.ID,
			})
		}
	case "customer.subscription.deleted":
		var subscription stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
			logger.Error("Failed to unmarshal subscription", map[string]interface{}{
				"error":    err.Error(),
				"event_id": event.ID,
			})
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if err := s.handleSubscriptionDeleted(ctx, &subscription); err != nil {
			logger.Error("Failed to handle subscription deletion", map[string]interface{}{
				"error":    err.Error(),
				"event_id": event.ID,
			})
		}
	default:
		logger.Info("Unhandled webhook event type", map[string]interface{}{
			"event_type": event.Type,
			"event_id":   event.ID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) handleCheckoutComplete(ctx context.Context, session *stripe.CheckoutSession) error {
	installationID := session.Metadata["installationId"]
	if installationID == "" {
		return fmt.Errorf("no installation id in session %s metadata", session.ID)
	}

	var customerID string
	if session.Customer != nil {
		customerID = session.Customer.ID
	}

	user, err := s.Storage.UpsertPremium(ctx, installationID, customerID, generateLicenseKey())
	if err != nil {
		return fmt.Errorf("failed to save premium user: %w", err)
	}

	logger.Info("Premium account activated", map[string]interface{}{
		"installation_id": installationID,
		"customer_id":     customerID,
		"session_id":      session.ID,
	})

	s.sendLicenseEmail(session, user.LicenseKey)

	return nil
}

func (s *Server) handleSubscriptionDeleted(ctx context.Context, subscription *stripe.Subscription) error {
	if subscription.Customer == nil {
		return fmt.Errorf("subscription %s has no customer", subscription.ID)
	}
	customerID := subscription.Customer.ID

	user, err := s.Storage.FindUserByCustomerID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to look up customer: %w", err)
	}
	if user == nil {
		logger.Warn("Subscription deleted for unknown customer", map[string]interface{}{
			"customer_id": customerID,
		})
		return nil
	}

	if err := s.Storage.Downgrade(ctx, user.InstallationID); err != nil {
		return fmt.Errorf("failed to downgrade user: %w", err)
	}

	logger.Info("Account downgraded to free plan", map[string]interface{}{
		"installation_id": user.InstallationID,
	})

	return nil
}

// sendLicenseEmail delivers the key to the payment email when the processor
// knows one. Installations are anonymous otherwise. Failure never fails the
// webhook.
func (s *Server) sendLicenseEmail(session *stripe.CheckoutSession, licenseKey string) {
	if s.Mailer == nil || !s.Mailer.Enabled() {
		return
	}

	var customerEmail string
	if session.CustomerDetails != nil {
		customerEmail = session.CustomerDetails.Email
	} else {
		customerEmail = session.CustomerEmail
	}

	if customerEmail == "" {
		return
	}

	body := fmt.Sprintf(`Hello,

Thank you for upgrading to PromptPilot Premium!

Your license key: %s

The extension picks this up automatically; keep this email in case you ever
need to restore it manually from the extension settings.

Questions? Reply to this email.

The PromptPilot Team`, licenseKey)

	if err := s.Mailer.Send(customerEmail, "Your PromptPilot Premium license", body); err != nil {
		logger.Error("Failed to send license email", map[string]interface{}{
			"error":      err.Error(),
			"session_id": session.ID,
		})
	}
}
