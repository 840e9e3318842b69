// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Usernames are chosen at registration and are immutable afterwards — there
// is no rename operation, and the UNIQUE constraint on the username column is
// the authority on uniqueness (two concurrent registrations can both pass an
// advisory pre-check; only one insert wins).
//
// PasswordHash holds the bcrypt hash of the plaintext password. It is tagged
// `json:"-"` so it can never leak through a serialized response.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
