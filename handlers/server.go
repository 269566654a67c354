package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"promptpilot.app/cloud/internal/email"
	"promptpilot.app/cloud/internal/ratelimit"
	"promptpilot.app/cloud/payment"
	"promptpilot.app/cloud/storage"
)

type Server struct {
	Router        chi.Router
	Storage       storage.Storage
	Payments      payment.Provider
	WebhookSecret string
	Version       string

	// Mailer delivers license keys by email when configured; nil or a
	// disabled sender skips delivery.
	Mailer *email.Sender
}

func NewHTTPServer(db storage.Storage, payments payment.Provider, webhookSecret string) *Server {
	r := chi.NewRouter()

	s := &Server{
		Router:        r,
		Storage:       db,
		Payments:      payments,
		WebhookSecret: webhookSecret,
		Version:       "dev",
	}

	// The webhook route stays outside CORS; it is server-to-server.
	r.Post("/webhook", s.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		checkoutLimiter := ratelimit.New(10, time.Minute)
		r.With(checkoutLimiter.Middleware).Post("/create-checkout-session", s.CreateCheckoutSession)

		r.Post("/verify-license", s.VerifyLicense)
		r.Post("/get-license", s.GetLicense)
		r.Get("/success", s.Success)
		r.Get("/cancel", s.Cancel)
		r.Get("/health", s.Health)
	})

	return s
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
