// Package payment abstracts the hosted-checkout capabilities the entitlement
// server needs from its payment processor.
package payment

import "context"

// CheckoutSession is the subset of a processor checkout session the server
// cares about. InstallationID round-trips through session metadata so a
// completed payment can be correlated back to a device without a login.
type CheckoutSession struct {
	ID             string
	URL            string
	CustomerID     string
	InstallationID string
}

type Provider interface {
	// CreateCheckoutSession opens a hosted subscription checkout tagged
	// with the installation id.
	CreateCheckoutSession(ctx context.Context, installationID string) (*CheckoutSession, error)

	// GetCheckoutSession resolves a session id to its customer and
	// installation metadata. Unknown session ids are an error.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}
