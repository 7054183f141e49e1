package rest

import (
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type noteRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type shareRequest struct {
	SharedWith string `json:"sharedWith"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Notes     []string  `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

type loginResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

type noteResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	OwnerID    string    `json:"ownerId"`
	SharedWith []string  `json:"sharedWith"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toUserResponse(u *models.User) userResponse {
	notes := u.NoteIDs
	if notes == nil {
		notes = []string{}
	}
	return userResponse{ID: u.ID, Email: u.Email, Notes: notes, CreatedAt: u.CreatedAt}
}

func toNoteResponse(n *models.Note) noteResponse {
	shared := n.SharedWith
	if shared == nil {
		shared = []string{}
	}
	return noteResponse{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		OwnerID:    n.OwnerID,
		SharedWith: shared,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func toNoteResponses(notes []*models.Note) []noteResponse {
	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	return out
}
