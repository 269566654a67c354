package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"promptpilot.app/cloud/internal/logger"
	"promptpilot.app/cloud/models"
)

type VerifyRequest struct {
	LicenseKey string `json:"licenseKey"`
}

type VerifyResponse struct {
	Status string `json:"status"`
}

type GetLicenseRequest struct {
	SessionID string `json:"sessionId"`
}

type GetLicenseResponse struct {
	LicenseKey string `json:"licenseKey"`
}

// VerifyLicense answers the current tier for a license key. A missing or
// unknown key is "free", never an error; the extension must be able to keep
// working whatever it sends here.
func (s *Server) VerifyLicense(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, VerifyResponse{Status: models.StatusFree})
		return
	}

	if req.LicenseKey == "" {
		writeJSON(w, http.StatusOK, VerifyResponse{Status: models.StatusFree})
		return
	}

	user, err := s.Storage.FindUserByLicenseKey(r.Context(), req.LicenseKey)
	if err != nil {
		logger.Error("License lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		writeErrorResponse(w, http.StatusInternalServerError, "Verification failed")
		return
	}

	if user == nil || !user.IsPremium() {
		writeJSON(w, http.StatusOK, VerifyResponse{Status: models.StatusFree})
		return
	}

	writeJSON(w, http.StatusOK, VerifyResponse{Status: models.StatusPremium})
}

// GetLicense exchanges a completed checkout session for its license key.
// This races the webhook: whichever path writes the record first owns the
// key, and the storage upsert keeps it.
func (s *Server) GetLicense(w http.ResponseWriter, r *http.Request) {
	var req GetLicenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.SessionID == "" {
		writeErrorResponse(w, http.StatusBadRequest, "sessionId required")
		return
	}

	session, err := s.Payments.GetCheckoutSession(r.Context(), req.SessionID)
	if err != nil {
		logger.Error("Failed to retrieve checkout session", map[string]interface{}{
			"error":      err.Error(),
			"session_id": req.SessionID,
		})
		writeErrorResponse(w, http.StatusInternalServerError, "Unknown session")
		return
	}

	// The customer is attached only once the subscription is created, so a
	// session without one was created but never paid. Sessions exist the
	// moment checkout opens; retrievability is not proof of payment.
	if session.CustomerID == "" {
		logger.Warn("License requested for unpaid session", map[string]interface{}{
			"session_id": req.SessionID,
		})
		writeErrorResponse(w, http.StatusInternalServerError, "Unknown session")
		return
	}

	installationID := session.InstallationID
	if installationID == "" {
		// Old sessions carried no metadata; fall back to the customer index.
		user, err := s.Storage.FindUserByCustomerID(r.Context(), session.CustomerID)
		if err != nil || user == nil {
			logger.Error("No installation found for session", map[string]interface{}{
				"session_id":  req.SessionID,
				"customer_id": session.CustomerID,
			})
			writeErrorResponse(w, http.StatusInternalServerError, "Unknown session")
			return
		}
		installationID = user.InstallationID
	}

	user, err := s.Storage.UpsertPremium(r.Context(), installationID, session.CustomerID, generateLicenseKey())
	if err != nil {
		logger.Error("Failed to save license", map[string]interface{}{
			"error":           err.Error(),
			"installation_id": installationID,
		})
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to issue license")
		return
	}

	writeJSON(w, http.StatusOK, GetLicenseResponse{LicenseKey: user.LicenseKey})
}

func generateLicenseKey() string {
	return fmt.Sprintf("pp-%s", uuid.Must(uuid.NewRandom()).String())
}
