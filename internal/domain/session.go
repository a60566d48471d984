package domain

import "time"

// UserSummary is the public slice of a user carried inside a session.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the single active login record. At most one session exists at a
// time, stored under a fixed key. ExpiresAt is epoch milliseconds to match the
// persisted shape.
type Session struct {
	Token     string      `json:"token"`
	User      UserSummary `json:"user"`
	ExpiresAt int64       `json:"expiresAt"`
}

// Expired reports whether the session's expiry has passed. A zero ExpiresAt
// means the session never expires.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && s.ExpiresAt < now.UnixMilli()
}
