package model

import "time"

// Session binds an opaque session id to the provider access token obtained
// during the OAuth callback. Sessions are write-once: created on login, read
// on every authenticated request, removed on logout or expiry.
//
// The access token never leaves the server. Clients only ever see ID.
type Session struct {
	ID          string
	AccessToken string
	Login       string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the session is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
