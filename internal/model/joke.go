package model

import "time"

// Joke is a short piece of user-submitted content.
//
// JokesterID references the creating User's ID and is never reassigned —
// it establishes ownership, and ownership is what gates deletion. There is
// no update operation: a joke is created, read, and (by its owner) deleted.
type Joke struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	JokesterID string    `json:"jokesterId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
