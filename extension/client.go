package extension

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"promptpilot.app/cloud/internal/logger"
	"promptpilot.app/cloud/models"
)

// Client talks to the remote entitlement server. No call retries
// automatically; checkout creation in particular is a single user-initiated
// attempt.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// unknownSessionMessage is the error body /get-license returns for session
// ids the payment processor rejects.
const unknownSessionMessage = "Unknown session"

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateCheckoutSession asks the server for a hosted checkout URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, installationID string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}

	if err := c.postJSON(ctx, "/create-checkout-session", map[string]string{
		"installationId": installationID,
	}, &resp); err != nil {
		return "", err
	}

	return resp.URL, nil
}

// ExchangeSessionForLicense swaps a completed checkout session for its
// license key. Idempotent; the server returns the same key every time.
func (c *Client) ExchangeSessionForLicense(ctx context.Context, sessionID string) (string, error) {
	var resp struct {
		LicenseKey string `json:"licenseKey"`
	}

	err := c.postJSON(ctx, "/get-license", map[string]string{
		"sessionId": sessionID,
	}, &resp)

	// The server answers "Unknown session" only for sessions the processor
	// rejects; other 500s are transient faults and stay retryable.
	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.Message == unknownSessionMessage {
		return "", fmt.Errorf("%w: session %s", ErrInvalidSession, sessionID)
	}
	if err != nil {
		return "", err
	}

	return resp.LicenseKey, nil
}

// Verify reports whether the given license key is currently premium. Any
// failure, network or server side, degrades to free; verification never
// propagates errors to the UI.
func (c *Client) Verify(ctx context.Context, licenseKey string) bool {
	if licenseKey == "" {
		return false
	}

	var resp struct {
		Status string `json:"status"`
	}

	if err := c.postJSON(ctx, "/verify-license", map[string]string{
		"licenseKey": licenseKey,
	}, &resp); err != nil {
		logger.Warn("License verification failed, treating as free", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}

	return resp.Status == models.StatusPremium
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serverErr := &ServerError{Status: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr == nil {
			serverErr.Message = body.Error
		}
		return serverErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
