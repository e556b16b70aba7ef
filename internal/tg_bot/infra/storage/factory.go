// Package storage selects the user profile store backend by name.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/repository"
	botServ "github.com/DenisKhanov/TransitBot/internal/tg_bot/service"
)

// ErrUnsupportedStorage is returned for an unknown backend name.
var ErrUnsupportedStorage = errors.New("unsupported profile storage")

// ProfileStorage is a profile store with a lifecycle.
type ProfileStorage interface {
	botServ.ProfileStore
	Flush(ctx context.Context) error // Persists buffered writes.
	Close() error
}

// Options carries the settings of every backend; each backend reads its own fields.
type Options struct {
	FilePath      string
	SQLitePath    string
	MySQLDSN      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// storageCreator defines a function to create a ProfileStorage
type storageCreator func(ctx context.Context, opts Options) (ProfileStorage, error)

// storageRegistry stores registered implementations
var storageRegistry = map[string]storageCreator{
	"file": func(_ context.Context, opts Options) (ProfileStorage, error) {
		return repository.NewFileProfiles(opts.FilePath)
	},
	"sqlite": func(ctx context.Context, opts Options) (ProfileStorage, error) {
		return repository.NewSQLProfiles(ctx, repository.DriverSQLite, opts.SQLitePath)
	},
	"mysql": func(ctx context.Context, opts Options) (ProfileStorage, error) {
		return repository.NewSQLProfiles(ctx, repository.DriverMySQL, opts.MySQLDSN)
	},
	"redis": func(ctx context.Context, opts Options) (ProfileStorage, error) {
		return repository.NewRedisProfiles(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	},
}

// Backends returns the registered backend names in alphabetical order.
func Backends() []string {
	names := make([]string, 0, len(storageRegistry))
	for name := range storageRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StorageFactory creates the ProfileStorage registered under name.
func StorageFactory(ctx context.Context, name string, opts Options) (ProfileStorage, error) {
	creator, exists := storageRegistry[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q (expected one of %s)", ErrUnsupportedStorage, name, strings.Join(Backends(), ", "))
	}
	return creator(ctx, opts)
}
