// Package domain contains core domain types for the AetherDebug application.
package domain

import (
	"time"
)

// User represents an anonymous device identity that owns editor sessions and run history.
type User struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsIdle reports whether the user has not been seen for longer than d.
func (u *User) IsIdle(d time.Duration) bool {
	return time.Since(u.LastSeenAt) > d
}
