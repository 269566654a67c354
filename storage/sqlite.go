package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"promptpilot.app/cloud/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type SQLiteStorage struct {
	db   *sql.DB
	path string
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{
		db:   db,
		path: path,
	}

	if err := storage.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) migrate() error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratesqlite3.WithInstance(s.db, &migratesqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

const userColumns = `installation_id, status, customer_id, license_key, created_at, updated_at`

func (s *SQLiteStorage) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.InstallationID,
		&user.Status,
		&user.CustomerID,
		&user.LicenseKey,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *SQLiteStorage) GetUser(ctx context.Context, installationID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE installation_id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, installationID))
}

func (s *SQLiteStorage) FindUserByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	if customerID == "" {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE customer_id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, customerID))
}

func (s *SQLiteStorage) FindUserByLicenseKey(ctx context.Context, licenseKey string) (*models.User, error) {
	if licenseKey == "" {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE license_key = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, licenseKey))
}

func (s *SQLiteStorage) UpsertPremium(ctx context.Context, installationID, customerID, licenseKey string) (*models.User, error) {
	// Single conditional write: whichever of the webhook and the get-license
	// poll runs second must not replace the key the first one stored.
	query := `
      INSERT INTO users (installation_id, status, customer_id, license_key, created_at, updated_at)
      VALUES (?, ?, ?, ?, ?, ?)
      ON CONFLICT(installation_id) DO UPDATE SET
          status = excluded.status,
          customer_id = excluded.customer_id,
          license_key = CASE
              WHEN users.license_key = '' THEN excluded.license_key
              ELSE users.license_key
          END,
          updated_at = excluded.updated_at`

	now := time.Now()
	_, err := s.db.ExecContext(ctx, query,
		installationID,
		models.StatusPremium,
		customerID,
		licenseKey,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return s.GetUser(ctx, installationID)
}

func (s *SQLiteStorage) Downgrade(ctx context.Context, installationID string) error {
	query := `UPDATE users SET status = ?, customer_id = '', license_key = '', updated_at = ? WHERE installation_id = ?`

	_, err := s.db.ExecContext(ctx, query, models.StatusFree, time.Now(), installationID)
	if err != nil {
		return fmt.Errorf("failed to downgrade user: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
