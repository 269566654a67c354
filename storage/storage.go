package storage

import (
	"context"

	"promptpilot.app/cloud/models"
)

// Storage is the persistence boundary for the user ledger. Lookups return
// (nil, nil) when no record matches so callers can distinguish "not found"
// from a storage failure.
type Storage interface {
	GetUser(ctx context.Context, installationID string) (*models.User, error)
	FindUserByCustomerID(ctx context.Context, customerID string) (*models.User, error)
	FindUserByLicenseKey(ctx context.Context, licenseKey string) (*models.User, error)

	// UpsertPremium creates or updates the record for installationID as
	// premium. An existing non-empty license key is authoritative and is
	// never replaced, so the webhook and the get-license poll converge on a
	// single key no matter which writes first. Returns the stored record.
	UpsertPremium(ctx context.Context, installationID, customerID, licenseKey string) (*models.User, error)

	// Downgrade flips the record to free and clears its customer id and
	// license key. Missing records are a no-op.
	Downgrade(ctx context.Context, installationID string) error

	Close() error
}
