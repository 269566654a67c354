package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSuccessPage(t *testing.T) {
	server, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/success?session_id=cs_test_42", nil)
	w := httptest.NewRecorder()
	server.Success(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html" {
		t.Errorf("Expected Content-Type 'text/html', got '%s'", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "cs_test_42") {
		t.Errorf("Expected page to relay the session id")
	}
	if !strings.Contains(body, "PAYMENT_SUCCESS") {
		t.Errorf("Expected page to post a PAYMENT_SUCCESS message")
	}
}

func TestSuccessPage_EscapesSessionID(t *testing.T) {
	server, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/success?session_id=%27%3B%3Cscript%3E", nil)
	w := httptest.NewRecorder()
	server.Success(w, req)

	if strings.Contains(w.Body.String(), "';<script>") {
		t.Errorf("Expected session id to be escaped in the page")
	}
}

func TestCancelPage(t *testing.T) {
	server, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/cancel", nil)
	w := httptest.NewRecorder()
	server.Cancel(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "PAYMENT_CANCELLED") {
		t.Errorf("Expected page to post a PAYMENT_CANCELLED message")
	}
}

func TestHealth(t *testing.T) {
	server, _, _ := newTestServer()
	server.Version = "1.2.3"

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Health(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", response.Status)
	}
	if response.Version != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got '%s'", response.Version)
	}
}
