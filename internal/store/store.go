// Package store provides session persistence interfaces and implementations.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/helpdesk/internal/domain"
)

// Repository defines the interface for holding game sessions keyed by connection identity.
type Repository interface {
	// GetSession retrieves a session by its key. Returns nil, nil when absent.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// SaveSession creates or replaces a session. The log and turn counter are
	// written together.
	SaveSession(ctx context.Context, session *domain.Session) error

	// DeleteSession removes a session. Deleting an absent session is not an error.
	DeleteSession(ctx context.Context, id string) error

	// IdleSessions lists the keys of sessions last updated before cutoff. It
	// does not remove them; callers re-check each one under its session lock.
	IdleSessions(ctx context.Context, cutoff time.Time) ([]string, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the backing store.
	Close() error
}

// Driver names a session store backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Options selects and configures a backend for Open.
type Options struct {
	Driver      Driver
	SQLitePath  string
	PostgresDSN string
}

// Open builds the repository selected by opts.
func Open(ctx context.Context, opts Options) (Repository, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(ctx, opts.SQLitePath)
	case DriverPostgres:
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("session store postgres requires DB_POSTGRES_DSN or DATABASE_URL")
		}
		return NewPostgres(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported session store %q", opts.Driver)
	}
}
