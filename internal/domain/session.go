package domain

import "time"

// Session is a logged-in browser. The cookie carries an encrypted token that
// names the session; the row is the source of truth, so deleting it logs the
// browser out.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}

// NewSession starts a session for userID lasting ttl from now.
func NewSession(id, userID string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         id,
		UserID:     userID,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		LastSeenAt: now,
	}
}

// Touch updates the session's last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now().UTC()
}

// IsExpired reports whether the session has expired at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
