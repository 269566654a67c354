package extension

import "github.com/google/uuid"

// GetInstallationID returns the stable per-device identifier, minting and
// persisting a random one on first use. The id substitutes for a user login
// and survives until local storage is cleared.
func GetInstallationID(store *Store) (string, error) {
	if id := store.InstallationID(); id != "" {
		return id, nil
	}

	id := uuid.Must(uuid.NewRandom()).String()
	if err := store.SetInstallationID(id); err != nil {
		return "", err
	}

	return id, nil
}
