package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

// Supported SQL drivers.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

const selectProfileSQL = `SELECT city, address, latitude, longitude FROM user_profiles WHERE user_id = ?`

var upsertProfileSQL = map[string]string{
	DriverSQLite: `INSERT INTO user_profiles (user_id, city, address, latitude, longitude, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    city = excluded.city, address = excluded.address,
    latitude = excluded.latitude, longitude = excluded.longitude, updated_at = excluded.updated_at`,
	DriverMySQL: `INSERT INTO user_profiles (user_id, city, address, latitude, longitude, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    city = VALUES(city), address = VALUES(address),
    latitude = VALUES(latitude), longitude = VALUES(longitude), updated_at = VALUES(updated_at)`,
}

// SQLProfiles stores user profiles in a SQLite or MySQL database.
type SQLProfiles struct {
	conn   *sql.DB
	upsert string
}

// NewSQLProfiles opens the database and applies the schema.
// Arguments:
//   - driver: DriverSQLite or DriverMySQL.
//   - dsn: database file for sqlite, data source name for mysql.
func NewSQLProfiles(ctx context.Context, driver, dsn string) (*SQLProfiles, error) {
	upsert, ok := upsertProfileSQL[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	db := &SQLProfiles{conn: conn, upsert: upsert}
	if err = db.applySchema(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	logrus.Infof("Profile store opened with %s driver", driver)
	return db, nil
}

// applySchema creates the profile table when it does not exist.
func (db *SQLProfiles) applySchema(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, schemaSQL)
	return err
}

// Get returns the profile of the user.
func (db *SQLProfiles) Get(ctx context.Context, userID string) (models.UserProfile, bool, error) {
	p := models.UserProfile{ID: userID}
	err := db.conn.QueryRowContext(ctx, selectProfileSQL, userID).
		Scan(&p.City, &p.Address, &p.Location.Latitude, &p.Location.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserProfile{}, false, nil
	}
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to select user profile")
		return models.UserProfile{}, false, fmt.Errorf("select profile %s: %w", userID, err)
	}
	return p, true, nil
}

// Put inserts or replaces the profile of the user.
func (db *SQLProfiles) Put(ctx context.Context, profile models.UserProfile) error {
	_, err := db.conn.ExecContext(ctx, db.upsert,
		profile.ID, profile.City, profile.Address,
		profile.Location.Latitude, profile.Location.Longitude, time.Now().Unix())
	if err != nil {
		logrus.WithError(err).WithField("userID", profile.ID).Error("Failed to upsert user profile")
		return fmt.Errorf("upsert profile %s: %w", profile.ID, err)
	}
	return nil
}

// Flush is a no-op: every Put is written through.
func (db *SQLProfiles) Flush(_ context.Context) error {
	return nil
}

// Close closes the database.
func (db *SQLProfiles) Close() error {
	return db.conn.Close()
}
