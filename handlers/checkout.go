package handlers

import (
	"encoding/json"
	"net/http"

	"promptpilot.app/cloud/internal/logger"
)

type CheckoutRequest struct {
	InstallationID string `json:"installationId"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

// CreateCheckoutSession opens a hosted checkout for the given installation.
// Single attempt; the extension never retries this automatically.
func (s *Server) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.InstallationID == "" {
		writeErrorResponse(w, http.StatusBadRequest, "installationId required")
		return
	}

	session, err := s.Payments.CreateCheckoutSession(r.Context(), req.InstallationID)
	if err != nil {
		logger.Error("Failed to create checkout session", map[string]interface{}{
			"error":           err.Error(),
			"installation_id": req.InstallationID,
		})
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	writeJSON(w, http.StatusOK, CheckoutResponse{URL: session.URL})
}
