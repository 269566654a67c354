package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"promptpilot.app/cloud/handlers"
	"promptpilot.app/cloud/models"
	"promptpilot.app/cloud/payment"
	"promptpilot.app/cloud/storage"
)

// NewTestServer wires a handler server against memory storage and a fake
// payment provider, with webhook signature verification bypassed.
func NewTestServer(t *testing.T) (*handlers.Server, *storage.MemoryStorage, *payment.FakeProvider) {
	t.Setenv("TEST_MODE", "true")

	db := storage.NewMemoryStorage()
	provider := payment.NewFakeProvider()
	server := handlers.NewHTTPServer(db, provider, "whsec_test")

	return server, db, provider
}

// CreateTestUser seeds a ledger record.
func CreateTestUser(installationID, customerID, licenseKey, status string) models.User {
	return models.User{
		InstallationID: installationID,
		Status:         status,
		CustomerID:     customerID,
		LicenseKey:     licenseKey,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

// SeedPremiumUser stores a premium record and returns its license key.
func SeedPremiumUser(t *testing.T, db storage.Storage, installationID, customerID string) string {
	t.Helper()

	licenseKey := fmt.Sprintf("pp-test-%s", installationID)
	if _, err := db.UpsertPremium(context.Background(), installationID, customerID, licenseKey); err != nil {
		t.Fatalf("Failed to seed premium user: %v", err)
	}

	return licenseKey
}

// PostJSON sends a JSON POST through the server's router.
func PostJSON(t *testing.T, server *handlers.Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)

	return w
}

// WebhookPayload builds a processor event envelope.
func WebhookPayload(eventType string, object map[string]interface{}) []byte {
	event := map[string]interface{}{
		"id":   "evt_test123",
		"type": eventType,
		"data": map[string]interface{}{
			"object": object,
		},
	}

	payload, _ := json.Marshal(event)
	return payload
}

// CheckoutCompletedObject builds the session object of a
// checkout.session.completed event.
func CheckoutCompletedObject(sessionID, customerID, installationID string) map[string]interface{} {
	return map[string]interface{}{
		"id": sessionID,
		"customer": map[string]interface{}{
			"id": customerID,
		},
		"payment_status": "paid",
		"metadata": map[string]interface{}{
			"installationId": installationID,
		},
	}
}

// SubscriptionDeletedObject builds the subscription object of a
// customer.subscription.deleted event.
func SubscriptionDeletedObject(subscriptionID, customerID string) map[string]interface{} {
	return map[string]interface{}{
		"id": subscriptionID,
		"customer": map[string]interface{}{
			"id": customerID,
		},
	}
}

// SendWebhook delivers a webhook payload through the router.
func SendWebhook(t *testing.T, server *handlers.Server, payload []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", "test-signature")

	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)

	return w
}

// AssertVerifyStatus checks a /verify-license response body.
func AssertVerifyStatus(t *testing.T, w *httptest.ResponseRecorder, expected string) {
	t.Helper()

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response handlers.VerifyResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Status != expected {
		t.Errorf("Expected status '%s', got '%s'", expected, response.Status)
	}
}
