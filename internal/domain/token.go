package domain

import "time"

// AccessToken is an issued bearer token
type AccessToken struct {
	Token     string
	ClientID  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer valid at now
func (t *AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IssuedToken is returned to a client after a successful credential exchange
type IssuedToken struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	ExpiresAt   time.Time
}
