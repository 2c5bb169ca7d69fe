package domain

import "time"

// Session is a server-side login record. Key is its primary identifier, a
// high-entropy random URL-safe token handed to the client as a cookie value;
// no claims are embedded client-side.
type Session struct {
	Key     string
	UserKey int64
	Expires time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.Expires.After(now)
}
