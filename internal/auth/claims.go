package auth

import "time"

// SessionClaims are the decrypted contents of a session cookie.
type SessionClaims struct {
	SessionID string `json:"sid"`
	UserID    string `json:"user_id"`

	Issuer    string    `json:"iss"`
	Subject   string    `json:"sub"`
	Audience  string    `json:"aud"`
	ExpiresAt time.Time `json:"exp"`
	NotBefore time.Time `json:"nbf"`
	IssuedAt  time.Time `json:"iat"`
	TokenID   string    `json:"jti"`
}
