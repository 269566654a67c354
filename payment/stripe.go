package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"promptpilot.app/cloud/internal/logger"
)

const installationMetadataKey = "installationId"

// StripeProvider drives Stripe hosted checkout. The success URL carries the
// session id back to the browser so the extension can exchange it for a
// license key.
type StripeProvider struct {
	PriceID string
	BaseURL string
}

func NewStripeProvider(secretKey, priceID, baseURL string) *StripeProvider {
	stripe.Key = secretKey

	return &StripeProvider{
		PriceID: priceID,
		BaseURL: baseURL,
	}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, installationID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.BaseURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(p.BaseURL + "/cancel"),
	}
	params.Context = ctx
	params.AddMetadata(installationMetadataKey, installationID)

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	logger.Info("Checkout session created", map[string]interface{}{
		"session_id":      sess.ID,
		"installation_id": installationID,
	})

	return &CheckoutSession{
		ID:             sess.ID,
		URL:            sess.URL,
		InstallationID: installationID,
	}, nil
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	var customerID string
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}

	return &CheckoutSession{
		ID:             sess.ID,
		URL:            sess.URL,
		CustomerID:     customerID,
		InstallationID: sess.Metadata[installationMetadataKey],
	}, nil
}
