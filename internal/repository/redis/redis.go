// Package redis is a session.Store backed by Redis.
//
// WHY REDIS?
// The memory store dies with the process and the SQLite store lives on one
// machine. Several server replicas behind a load balancer need a shared
// store; Redis is that store, and its key TTLs do the expiry for us, so
// there is no PurgeExpired here.
//
// KEY LAYOUT:
//
//	<prefix><sessionID> → JSON record, TTL = time left until ExpiresAt
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sakif/test-case-generator/internal/apperror"
	"github.com/sakif/test-case-generator/internal/model"
	"github.com/sakif/test-case-generator/internal/session"
)

// compile-time check that *Store implements session.Store
var _ session.Store = (*Store)(nil)

// DefaultPrefix namespaces session keys in a shared Redis.
const DefaultPrefix = "tcg:session:"

type Store struct {
	client *goredis.Client
	prefix string
	now    func() time.Time
}

// record is the stored shape. The id is the key, so it is not repeated.
type record struct {
	AccessToken string `json:"access_token"`
	Login       string `json:"login"`
	CreatedAt   int64  `json:"created_at"`
	ExpiresAt   int64  `json:"expires_at"` // unix seconds, 0 = never
}

// New parses a redis:// URL, connects and pings.
func New(ctx context.Context, url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parsing url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client. The Store takes ownership and
// closes it in Close.
func NewWithClient(client *goredis.Client) *Store {
	return &Store{client: client, prefix: DefaultPrefix, now: time.Now}
}

// Put stores a new session with a TTL matching its expiry. Sessions are
// write-once: SET NX refuses to overwrite an existing id.
func (s *Store) Put(ctx context.Context, sess model.Session) error {
	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		ttl = sess.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			// Already expired; storing it would only make Get lie.
			return nil
		}
	}

	rec := record{
		AccessToken: sess.AccessToken,
		Login:       sess.Login,
		CreatedAt:   sess.CreatedAt.Unix(),
	}
	if !sess.ExpiresAt.IsZero() {
		rec.ExpiresAt = sess.ExpiresAt.Unix()
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis: encoding session: %w", err)
	}

	err = s.client.SetArgs(ctx, s.key(sess.ID), buf, goredis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	if errors.Is(err, goredis.Nil) {
		return apperror.Conflict("session", sess.ID)
	}
	if err != nil {
		return fmt.Errorf("redis: storing session: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.Session, error) {
	buf, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, session.ErrNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("redis: reading session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(buf, &rec); err != nil {
		return nil, fmt.Errorf("redis: decoding session: %w", err)
	}

	sess := model.Session{
		ID:          id,
		AccessToken: rec.AccessToken,
		Login:       rec.Login,
		CreatedAt:   time.Unix(rec.CreatedAt, 0).UTC(),
	}
	if rec.ExpiresAt != 0 {
		sess.ExpiresAt = time.Unix(rec.ExpiresAt, 0).UTC()
	}
	// Key TTLs are second-granular at worst; the record is authoritative.
	if sess.Expired(s.now()) {
		return nil, session.ErrNotFound()
	}
	return &sess, nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis: deleting session: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(id string) string {
	return s.prefix + id
}
