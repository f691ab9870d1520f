package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/test-case-generator/internal/model"
	"github.com/sakif/test-case-generator/internal/repository"
	"github.com/sakif/test-case-generator/internal/session"
)

// compile-time check that *DB implements repository.SessionRepository
var _ repository.SessionRepository = (*DB)(nil)

// Put stores a new session. Sessions are write-once, so a duplicate id is an
// error rather than an overwrite.
func (db *DB) Put(ctx context.Context, s model.Session) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, access_token, login, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID,
		s.AccessToken,
		s.Login,
		s.CreatedAt.Unix(),
		s.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session: %w", err)
	}
	return nil
}

// Get returns the session with the given id.
//
// LAZY EXPIRY:
// A row past its expires_at is treated exactly like a missing row, and is
// deleted on the way out. PurgeExpired cleans up rows nobody asks for.
func (db *DB) Get(ctx context.Context, id string) (*model.Session, error) {
	var (
		s                    model.Session
		createdAt, expiresAt int64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, access_token, login, created_at, expires_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.AccessToken, &s.Login, &createdAt, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}

	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	if s.Expired(db.now()) {
		if err := db.Remove(ctx, id); err != nil {
			return nil, err
		}
		return nil, session.ErrNotFound()
	}
	return &s, nil
}

// Remove deletes a session. Removing an unknown id is not an error.
func (db *DB) Remove(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}

func (db *DB) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, db.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting purged sessions: %w", err)
	}
	return n, nil
}
