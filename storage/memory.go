package storage

import (
	"context"
	"sync"
	"time"

	"promptpilot.app/cloud/models"
)

// MemoryStorage keeps the ledger in a map. Used by tests and local runs.
type MemoryStorage struct {
	mu    sync.Mutex
	Users map[string]models.User
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Users: make(map[string]models.User),
	}
}

func (m *MemoryStorage) GetUser(ctx context.Context, installationID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.Users[installationID]
	if !exists {
		return nil, nil
	}
	return &user, nil
}

func (m *MemoryStorage) FindUserByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	if customerID == "" {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.Users {
		if user.CustomerID == customerID {
			userCopy := user
			return &userCopy, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) FindUserByLicenseKey(ctx context.Context, licenseKey string) (*models.User, error) {
	if licenseKey == "" {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.Users {
		if user.LicenseKey == licenseKey {
			userCopy := user
			return &userCopy, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) UpsertPremium(ctx context.Context, installationID, customerID, licenseKey string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	user, exists := m.Users[installationID]
	if !exists {
		user = models.User{
			InstallationID: installationID,
			CreatedAt:      now,
		}
	}

	user.Status = models.StatusPremium
	user.CustomerID = customerID
	user.UpdatedAt = now

	// A key written earlier (by the webhook or by get-license) wins.
	if user.LicenseKey == "" {
		user.LicenseKey = licenseKey
	}

	m.Users[installationID] = user
	return &user, nil
}

func (m *MemoryStorage) Downgrade(ctx context.Context, installationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.Users[installationID]
	if !exists {
		return nil
	}

	user.Status = models.StatusFree
	user.CustomerID = ""
	user.LicenseKey = ""
	user.UpdatedAt = time.Now()

	m.Users[installationID] = user
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
