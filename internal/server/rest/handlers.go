package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// bind decodes the JSON body into dst; malformed or incomplete bodies are
// validation errors. Only field names from the JSON contract reach the
// message, never Go type names.
func bind(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: request body must be a JSON object", common.ErrorValidation)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", common.ErrorValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	if name != "" {
		name = strings.ToLower(name[:1]) + name[1:]
	}
	if fe.Tag() == "required" {
		return name + " is required"
	}
	return name + " is invalid"
}

// health godoc
// @Summary Liveness and store connectivity
// @Router /healthz [get]
func (s *HTTPServer) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn(ctx, "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// signup godoc
// @Summary Register a new user
// @Accept json
// @Produce json
// @Success 201 {object} userResponse
// @Router /users/signup [post]
func (s *HTTPServer) signup(c *gin.Context) {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	user, err := s.users.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

// login godoc
// @Summary Exchange credentials for a bearer token
// @Accept json
// @Produce json
// @Success 200 {object} loginResponse
// @Router /users/login [post]
func (s *HTTPServer) login(c *gin.Context) {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{UserID: res.UserID, Email: res.Email, Token: res.Token})
}

// listUserNotes serves the path-addressed listing. The path id must name
// the caller; it never widens access.
func (s *HTTPServer) listUserNotes(c *gin.Context) {
	id := identity(c)

	uid, err := uuid.Parse(c.Param("uid"))
	if err != nil || uid.String() != id.UserID {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "You are not allowed to access these notes."})
		return
	}

	s.listNotes(c)
}

// listNotes godoc
// @Summary List the caller's notes
// @Security BearerAuth
// @Router /notes [get]
func (s *HTTPServer) listNotes(c *gin.Context) {
	notes, err := s.notes.List(c.Request.Context(), identity(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notes": toNoteResponses(notes)})
}

// searchNotes godoc
// @Summary Full-text search over the caller's notes
// @Param q query string true "search words"
// @Security BearerAuth
// @Router /notes/search [get]
func (s *HTTPServer) searchNotes(c *gin.Context) {
	notes, err := s.notes.Search(c.Request.Context(), identity(c), c.Query("q"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notes": toNoteResponses(notes)})
}

func (s *HTTPServer) getNote(c *gin.Context) {
	note, err := s.notes.Get(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"note": toNoteResponse(note)})
}

func (s *HTTPServer) createNote(c *gin.Context) {
	var req noteRequest
	if err := bind(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	note, err := s.notes.Create(c.Request.Context(), identity(c), req.Title, req.Content)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"note": toNoteResponse(note)})
}

func (s *HTTPServer) updateNote(c *gin.Context) {
	var req noteRequest
	if err := bind(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	note, err := s.notes.Update(c.Request.Context(), identity(c), c.Param("id"), req.Title, req.Content)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"note": toNoteResponse(note)})
}

func (s *HTTPServer) deleteNote(c *gin.Context) {
	if err := s.notes.Delete(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted note."})
}

func (s *HTTPServer) shareNote(c *gin.Context) {
	var req shareRequest
	if err := bind(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	note, err := s.notes.Share(c.Request.Context(), identity(c), c.Param("id"), req.SharedWith)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note shared successfully", "note": toNoteResponse(note)})
}
