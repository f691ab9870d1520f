// Package repository declares the persistence contracts implemented by the
// storage backends under this directory.
package repository

import (
	"context"

	"github.com/sakif/test-case-generator/internal/session"
)

// SessionRepository is a durable session.Store that also needs explicit
// garbage collection. The server runs PurgeExpired on a ticker.
type SessionRepository interface {
	session.Store
	// PurgeExpired deletes every expired session and returns how many rows
	// were removed.
	PurgeExpired(ctx context.Context) (int64, error)
	Close() error
}
