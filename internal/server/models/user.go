package models

import "time"

// User is a registered account. NoteIDs is the owned-note index: it lists
// exactly the notes whose OwnerID equals ID.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	NoteIDs      []string
	CreatedAt    time.Time
}

// OwnsNote reports whether noteID is present in the user's note index.
func (u *User) OwnsNote(noteID string) bool {
	for _, id := range u.NoteIDs {
		if id == noteID {
			return true
		}
	}
	return false
}
