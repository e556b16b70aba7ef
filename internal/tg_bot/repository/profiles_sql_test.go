package repository

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func openSQLite(t *testing.T) *SQLProfiles {
	t.Helper()
	db, err := NewSQLProfiles(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		if strings.Contains(err.Error(), "cgo") {
			t.Skipf("sqlite driver unavailable: %v", err)
		}
		t.Fatalf("NewSQLProfiles: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLProfilesUpsert(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	if _, ok, err := db.Get(ctx, "7"); ok || err != nil {
		t.Fatalf("Get on an empty table = %v, %v", ok, err)
	}
	if err := db.Put(ctx, berlinProfile); err != nil {
		t.Fatalf("Put: %v", err)
	}
	updated := berlinProfile
	updated.City = "Potsdam"
	if err := db.Put(ctx, updated); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, ok, err := db.Get(ctx, "7")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got != updated {
		t.Errorf("profile = %+v, want %+v", got, updated)
	}
	if err = db.Flush(ctx); err != nil {
		t.Errorf("Flush: %v", err)
	}
}

func TestSQLProfilesSchemaIsIdempotent(t *testing.T) {
	db := openSQLite(t)
	if err := db.applySchema(context.Background()); err != nil {
		t.Fatalf("second applySchema: %v", err)
	}
}

func TestSQLProfilesUnknownDriver(t *testing.T) {
	if _, err := NewSQLProfiles(context.Background(), "postgres", "dsn"); err == nil {
		t.Fatal("want error for an unsupported driver")
	}
}
