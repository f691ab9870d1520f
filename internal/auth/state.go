package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/xid"
)

const (
	stateIssuer = "test-case-generator"
	stateTTL    = 10 * time.Minute

	// maxPendingStates bounds the replay cache. Older entries are evicted
	// first, and they expire with the state itself anyway.
	maxPendingStates = 10000
)

// StateSigner issues and verifies the OAuth "state" parameter.
//
// STATE PARAMETER:
// GitHub echoes state back on the callback. Verifying it prevents CSRF, where
// an attacker tricks a browser into completing an OAuth flow for the
// attacker's account.
//
// WHY A SIGNED JWT INSTEAD OF A COOKIE?
// The login starts with an XHR from the client application, which may live
// on a different origin than this server, so a cookie set on GET
// /auth/github may never come back on the callback. A signed token needs no
// server-side storage to verify: the HS256 signature proves we issued it
// and exp bounds its lifetime.
//
// Each state is single-use: its jti (an xid) is recorded on first
// successful Verify and rejected afterwards.
type StateSigner struct {
	secret []byte

	mu   sync.Mutex // makes the used check-and-record atomic
	used *expirable.LRU[string, struct{}]
}

// NewStateSigner creates a StateSigner. The secret must be at least 16 characters.
func NewStateSigner(secret string) (*StateSigner, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: state secret must be at least 16 characters")
	}
	return &StateSigner{
		secret: []byte(secret),
		used:   expirable.NewLRU[string, struct{}](maxPendingStates, nil, stateTTL),
	}, nil
}

// Issue returns a fresh state valid for ten minutes.
func (s *StateSigner) Issue() (string, error) {
	return s.IssueWithTTL(stateTTL)
}

// IssueWithTTL creates a state with a custom lifetime. Used in tests.
func (s *StateSigner) IssueWithTTL(d time.Duration) (string, error) {
	now := time.Now()
	c := jwt.RegisteredClaims{
		ID:        xid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    stateIssuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing state: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, expiry and single use.
//
// ALGORITHM CONFUSION ATTACK:
// Without pinning the algorithm, an attacker could send a token signed with
// "none". jwt.WithValidMethods prevents this.
func (s *StateSigner) Verify(state string) error {
	if state == "" {
		return errors.New("auth: missing state")
	}

	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(state, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errors.New("auth: state expired")
		}
		return fmt.Errorf("auth: invalid state: %w", err)
	}
	if !token.Valid || c.ID == "" {
		return errors.New("auth: invalid state claims")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.used.Get(c.ID); seen {
		return errors.New("auth: state already used")
	}
	s.used.Add(c.ID, struct{}{})
	return nil
}
