package storage

import (
	"context"
	"path/filepath"
	"testing"

	"promptpilot.app/cloud/models"
)

// runStorageTests exercises every Storage implementation against the same
// behavior. New implementations get the whole suite for free.
func runStorageTests(t *testing.T, open func(t *testing.T) Storage) {
	ctx := context.Background()

	t.Run("GetUserNotFound", func(t *testing.T) {
		db := open(t)
		user, err := db.GetUser(ctx, "missing")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if user != nil {
			t.Errorf("Expected nil user, got %+v", user)
		}
	})

	t.Run("UpsertAndGet", func(t *testing.T) {
		db := open(t)

		created, err := db.UpsertPremium(ctx, "install-1", "cus_1", "pp-key-1")
		if err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		if created.Status != models.StatusPremium {
			t.Errorf("Expected status 'premium', got '%s'", created.Status)
		}
		if created.LicenseKey != "pp-key-1" {
			t.Errorf("Expected key 'pp-key-1', got '%s'", created.LicenseKey)
		}

		fetched, err := db.GetUser(ctx, "install-1")
		if err != nil {
			t.Fatalf("Failed to get user: %v", err)
		}
		if fetched == nil {
			t.Fatalf("Expected user to exist")
		}
		if fetched.CustomerID != "cus_1" {
			t.Errorf("Expected customer 'cus_1', got '%s'", fetched.CustomerID)
		}
		if !fetched.IsPremium() {
			t.Errorf("Expected premium user")
		}
	})

	t.Run("UpsertKeepsEarlierKey", func(t *testing.T) {
		db := open(t)

		if _, err := db.UpsertPremium(ctx, "install-1", "cus_1", "pp-first"); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}

		// Concurrent webhook and get-license both mint a key; whichever
		// lands second must not overwrite the first.
		user, err := db.UpsertPremium(ctx, "install-1", "cus_1", "pp-second")
		if err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		if user.LicenseKey != "pp-first" {
			t.Errorf("Expected key 'pp-first' to survive, got '%s'", user.LicenseKey)
		}
	})

	t.Run("UpsertAfterDowngradeMintsNewKey", func(t *testing.T) {
		db := open(t)

		if _, err := db.UpsertPremium(ctx, "install-1", "cus_1", "pp-old"); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		if err := db.Downgrade(ctx, "install-1"); err != nil {
			t.Fatalf("Failed to downgrade: %v", err)
		}

		user, err := db.UpsertPremium(ctx, "install-1", "cus_2", "pp-new")
		if err != nil {
			t.Fatalf("Failed to re-upsert: %v", err)
		}
		if user.LicenseKey != "pp-new" {
			t.Errorf("Expected fresh key 'pp-new' after downgrade, got '%s'", user.LicenseKey)
		}
	})

	t.Run("FindByCustomerID", func(t *testing.T) {
		db := open(t)

		if _, err := db.UpsertPremium(ctx, "install-1", "cus_1", "pp-key-1"); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}

		user, err := db.FindUserByCustomerID(ctx, "cus_1")
		if err != nil {
			t.Fatalf("Failed to find by customer: %v", err)
		}
		if user == nil || user.InstallationID != "install-1" {
			t.Errorf("Expected install-1, got %+v", user)
		}

		missing, err := db.FindUserByCustomerID(ctx, "cus_other")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if missing != nil {
			t.Errorf("Expected nil for unknown customer, got %+v", missing)
		}
	})

	t.Run("FindByCustomerIDEmpty", func(t *testing.T) {
		db := open(t)

		// Downgraded rows hold an empty customer id; an empty query must
		// not match them.
		if _, err := db.UpsertPremium(ctx, "install-1", "cus_1", "pp-key-1"); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		if err := db.Downgrade(ctx, "install-1"); err != nil {
			t.Fatalf("Failed to downgrade: %v", err)
		}

		user, err := db.FindUserByCustomerID(ctx, "")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if user != nil {
			t.Errorf("Expected nil for empty customer id, got %+v", user)
		}
	})

	t.Run("FindByLicenseKey", func(t *testing.T) {
		db := open(t)

		if _, err := db.UpsertPremium(ctx, "install-1", "cus_1", "pp-key-1"); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}

		user, err := db.FindUserByLicenseKey(ctx, "pp-key-1")
		if err != nil {
			t.Fatalf("Failed to find by key: %v", err)
		}
		if user == nil || user.InstallationID != "install-1" {
			t.Errorf("Expected install-1, got %+v", user)
		}

		missing, err := db.FindUserByLicenseKey(ctx, "pp-unknown")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if missing != nil {
			t.Errorf("Expected nil for unknown key, got %+v", missing)
		}
	})

	t.Run("Downgrade", func(t *testing.T) {
		db := open(t)

		if _, err := db.UpsertPremium(ctx, "install-1", "cus_1", "pp-key-1"); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		if err := db.Downgrade(ctx, "install-1"); err != nil {
			t.Fatalf("Failed to downgrade: %v", err)
		}

		user, err := db.GetUser(ctx, "install-1")
		if err != nil || user == nil {
			t.Fatalf("Failed to get user: %v", err)
		}
		if user.Status != models.StatusFree {
			t.Errorf("Expected status 'free', got '%s'", user.Status)
		}
		if user.CustomerID != "" || user.LicenseKey != "" {
			t.Errorf("Expected cleared customer and key, got '%s'/'%s'", user.CustomerID, user.LicenseKey)
		}
	})

	t.Run("DowngradeUnknownUser", func(t *testing.T) {
		db := open(t)
		if err := db.Downgrade(ctx, "never-seen"); err != nil {
			t.Errorf("Expected downgrade of unknown user to be a no-op, got %v", err)
		}
	})
}

func TestMemoryStorage(t *testing.T) {
	runStorageTests(t, func(t *testing.T) Storage {
		return NewMemoryStorage()
	})
}

func TestSQLiteStorage(t *testing.T) {
	runStorageTests(t, func(t *testing.T) Storage {
		db, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("Failed to open database: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		return db
	})
}

func TestSQLiteStorage_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if _, err := db.UpsertPremium(ctx, "install-1", "cus_1", "pp-key-1"); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close database: %v", err)
	}

	reopened, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer reopened.Close()

	user, err := reopened.GetUser(ctx, "install-1")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if user == nil || user.LicenseKey != "pp-key-1" {
		t.Errorf("Expected persisted user with key 'pp-key-1', got %+v", user)
	}
}
