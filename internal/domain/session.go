package domain

import "time"

// SessionKind distinguishes customer and back-office sessions.
type SessionKind string

const (
	SessionUser  SessionKind = "user"
	SessionAdmin SessionKind = "admin"
)

// Session is the single authoritative authentication state for a caller.
// A caller is authenticated iff its session exists and has not expired.
type Session struct {
	ID        string      `json:"id"`
	Subject   string      `json:"subject"`
	Email     string      `json:"email"`
	Kind      SessionKind `json:"kind"`
	Remember  bool        `json:"remember"`
	IssuedAt  time.Time   `json:"issuedAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
	IPAddress string      `json:"ipAddress,omitempty"`
}

// Active reports whether the session is still valid at now.
func (s *Session) Active(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

// TTL returns the time left until expiry at now.
func (s *Session) TTL(now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
