package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/gin-gonic/gin"
)

// translateError maps a service error onto a status code and a stable
// message. expose tells whether err's own text is safe to show.
func translateError(err error) (status int, message string, expose bool) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusUnprocessableEntity, "Invalid inputs passed, please check your data.", true
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusForbidden, authFailedMessage, false
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Invalid credentials, could not log you in.", false
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Could not find the requested resource.", false
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusUnprocessableEntity, "User exists already, please login instead.", false
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, "The request conflicts with the current state of the note.", true
	default:
		return http.StatusInternalServerError, "An unknown error occurred!", false
	}
}

// writeError renders err. Internal errors are logged and never echoed.
func (s *HTTPServer) writeError(c *gin.Context, err error) {
	status, message, expose := translateError(err)

	body := gin.H{"message": message}
	if expose {
		body["details"] = err.Error()
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	}

	c.AbortWithStatusJSON(status, body)
}
