package models

import "time"

const (
	StatusFree    = "free"
	StatusPremium = "premium"
)

// User is the server-side ledger record for one extension installation.
// Keyed by installation id; the Stripe customer id is a secondary lookup
// used by subscription-lifecycle webhooks.
type User struct {
	InstallationID string
	Status         string
	CustomerID     string
	LicenseKey     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsPremium reports whether the record currently entitles premium features.
// A premium record always carries a license key.
func (u *User) IsPremium() bool {
	return u.Status == StatusPremium && u.LicenseKey != ""
}
