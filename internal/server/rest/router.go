package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	// Unknown route
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Could not find this route."})
	})

	router.GET("/healthz", s.health)

	users := router.Group("/users")
	users.POST("/signup", s.signup)
	users.POST("/login", s.login)
	users.GET("/:uid/notes", s.authenticate(), s.listUserNotes)

	notes := router.Group("/notes", s.authenticate())
	notes.GET("", s.listNotes)
	notes.GET("/search", s.searchNotes)
	notes.GET("/:id", s.getNote)
	notes.POST("", s.createNote)
	notes.PATCH("/:id", s.updateNote)
	notes.DELETE("/:id", s.deleteNote)
	notes.POST("/:id/share", s.shareNote)

	return router
}
