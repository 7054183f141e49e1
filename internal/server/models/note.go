// Package models defines server-side data models persisted in the database.
package models

import "time"

// Note is a user-authored text record. OwnerID never changes after
// creation; SharedWith holds unique user ids and never the owner.
type Note struct {
	ID         string
	OwnerID    string
	Title      string
	Content    string
	SharedWith []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OwnedBy reports whether userID is the note's owner.
func (n *Note) OwnedBy(userID string) bool {
	return n.OwnerID != "" && n.OwnerID == userID
}

// IsSharedWith reports whether userID is already among the recipients.
func (n *Note) IsSharedWith(userID string) bool {
	for _, id := range n.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}
