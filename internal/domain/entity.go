// Package domain holds the catalog and account types shared by the store,
// services, and HTTP layers.
package domain

import "time"

// Entity provides the identity and timestamp fields common to stored records.
type Entity struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (e *Entity) InitTimestamps() {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
}

// Touch updates UpdatedAt.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}
