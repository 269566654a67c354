package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"promptpilot.app/cloud/models"
)

func sendWebhook(t *testing.T, server *Server, eventType string, object string) *httptest.ResponseRecorder {
	t.Helper()

	payload := fmt.Sprintf(`{"type":%q,"data":{"object":%s}}`, eventType, object)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", "t=123,v1=test")

	w := httptest.NewRecorder()
	server.Webhook(w, req)
	return w
}

func checkoutCompletedObject(sessionID, customerID, installationID string) string {
	return fmt.Sprintf(`{"id":%q,"customer":%q,"metadata":{"installationId":%q}}`,
		sessionID, customerID, installationID)
}

func TestWebhook_CheckoutCompleted(t *testing.T) {
	t.Setenv("TEST_MODE", "true")
	server, db, _ := newTestServer()

	w := sendWebhook(t, server, "checkout.session.completed",
		checkoutCompletedObject("cs_1", "cus_1", "install-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	user, err := db.GetUser(context.Background(), "install-1")
	if err != nil {
		t.Fatalf("Failed to look up user: %v", err)
	}
	if user == nil {
		t.Fatalf("Expected user to exist after checkout completion")
	}
	if !user.IsPremium() {
		t.Errorf("Expected premium user, got status '%s' key '%s'", user.Status, user.LicenseKey)
	}
	if user.CustomerID != "cus_1" {
		t.Errorf("Expected customer 'cus_1', got '%s'", user.CustomerID)
	}
}

func TestWebhook_CheckoutCompletedTwice(t *testing.T) {
	t.Setenv("TEST_MODE", "true")
	server, db, _ := newTestServer()

	sendWebhook(t, server, "checkout.session.completed",
		checkoutCompletedObject("cs_1", "cus_1", "install-1"))

	first, err := db.GetUser(context.Background(), "install-1")
	if err != nil || first == nil {
		t.Fatalf("Failed to look up user after first delivery: %v", err)
	}

	// Stripe retries deliveries; the key must not change.
	w := sendWebhook(t, server, "checkout.session.completed",
		checkoutCompletedObject("cs_1", "cus_1", "install-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d on redelivery, got %d", http.StatusOK, w.Code)
	}

	second, err := db.GetUser(context.Background(), "install-1")
	if err != nil || second == nil {
		t.Fatalf("Failed to look up user after redelivery: %v", err)
	}
	if second.LicenseKey != first.LicenseKey {
		t.Errorf("Expected key to stay '%s', got '%s'", first.LicenseKey, second.LicenseKey)
	}
}

func TestWebhook_CheckoutCompletedMissingInstallation(t *testing.T) {
	t.Setenv("TEST_MODE", "true")
	server, _, _ := newTestServer()

	w := sendWebhook(t, server, "checkout.session.completed",
		`{"id":"cs_1","customer":"cus_1","metadata":{}}`)

	// The business failure is logged; Stripe still gets a 200 so it stops retrying.
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestWebhook_SubscriptionDeleted(t *testing.T) {
	t.Setenv("TEST_MODE", "true")
	server, db, _ := newTestServer()
	ctx := context.Background()

	if _, err := db.UpsertPremium(ctx, "install-1", "cus_1", "pp-key-1"); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	w := sendWebhook(t, server, "customer.subscription.deleted", `{"id":"sub_1","customer":"cus_1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	user, err := db.GetUser(ctx, "install-1")
	if err != nil || user == nil {
		t.Fatalf("Failed to look up user: %v", err)
	}
	if user.Status != models.StatusFree {
		t.Errorf("Expected status 'free' after cancellation, got '%s'", user.Status)
	}
	if user.LicenseKey != "" {
		t.Errorf("Expected license key cleared, got '%s'", user.LicenseKey)
	}
}

func TestWebhook_SubscriptionDeletedUnknownCustomer(t *testing.T) {
	t.Setenv("TEST_MODE", "true")
	server, _, _ := newTestServer()

	w := sendWebhook(t, server, "customer.subscription.deleted", `{"id":"sub_1","customer":"cus_missing"}`)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestWebhook_UnhandledEventType(t *testing.T) {
	t.Setenv("TEST_MODE", "true")
	server, _, _ := newTestServer()

	w := sendWebhook(t, server, "invoice.paid", `{"id":"in_1"}`)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestWebhook_InvalidPayload(t *testing.T) {
	t.Setenv("TEST_MODE", "true")
	server, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString("not json"))
	req.Header.Set("Stripe-Signature", "t=123,v1=test")

	w := httptest.NewRecorder()
	server.Webhook(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestWebhook_InvalidSignature(t *testing.T) {
	server, _, _ := newTestServer()

	object := checkoutCompletedObject("cs_1", "cus_1", "install-1")
	payload := fmt.Sprintf(`{"type":"checkout.session.completed","data":{"object":%s}}`, object)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(payload))
	req.Header.Set("Stripe-Signature", "t=123,v1=bogus")

	w := httptest.NewRecorder()
	server.Webhook(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestWebhook_ThenVerify(t *testing.T) {
	t.Setenv("TEST_MODE", "true")
	server, db, _ := newTestServer()

	sendWebhook(t, server, "checkout.session.completed",
		checkoutCompletedObject("cs_1", "cus_1", "install-1"))

	user, err := db.GetUser(context.Background(), "install-1")
	if err != nil || user == nil {
		t.Fatalf("Failed to look up user: %v", err)
	}

	w := postJSON(t, server.VerifyLicense, "/verify-license", VerifyRequest{LicenseKey: user.LicenseKey})

	var response VerifyResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != models.StatusPremium {
		t.Errorf("Expected status 'premium', got '%s'", response.Status)
	}
}
