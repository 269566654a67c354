package extension

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is the extension's local key-value cache, persisted as a single JSON
// file. It holds the installation id, the opaque license token, the derived
// premium flag and the pending-upgrade marker. Every write goes straight to
// disk; reads come from memory after the initial load.
type Store struct {
	path string

	mu   sync.Mutex
	data storeData
}

type storeData struct {
	InstallationID string `json:"installationId,omitempty"`
	LicenseKey     string `json:"licenseKey,omitempty"`
	IsPremium      bool   `json:"isPremium,omitempty"`
	PendingUpgrade string `json:"pendingUpgrade,omitempty"`
}

func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("%w: corrupt store file: %v", ErrStorageUnavailable, err)
	}

	return s, nil
}

// persist writes through a temp file so a crash mid-write cannot leave a
// truncated store behind. Caller holds the lock.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return nil
}

func (s *Store) InstallationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.InstallationID
}

func (s *Store) SetInstallationID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.InstallationID = id
	return s.persist()
}

func (s *Store) LicenseKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LicenseKey
}

func (s *Store) SetLicenseKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.LicenseKey = key
	return s.persist()
}

func (s *Store) IsPremium() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.IsPremium
}

func (s *Store) SetPremium(isPremium bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.IsPremium = isPremium
	return s.persist()
}

// PendingUpgrade returns the installation id recorded when a checkout was
// initiated, or "" when no upgrade is in flight.
func (s *Store) PendingUpgrade() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.PendingUpgrade
}

func (s *Store) SetPendingUpgrade(installationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.PendingUpgrade = installationID
	return s.persist()
}

func (s *Store) ClearPendingUpgrade() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.PendingUpgrade = ""
	return s.persist()
}
