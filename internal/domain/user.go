package domain

import "time"

// User is an account that can log in to the catalog.
type User struct {
	Entity
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// RecordLogin stamps a successful login.
func (u *User) RecordLogin(at time.Time) {
	at = at.UTC()
	u.LastLoginAt = &at
	u.UpdatedAt = at
}
