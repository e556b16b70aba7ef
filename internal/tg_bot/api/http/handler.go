// Package http exposes the status endpoints of the bot.
package http

import (
	"net/http"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/api/http/middleware"
	"github.com/gin-gonic/gin"
)

// SessionCounter counts the running tracking tasks.
type SessionCounter interface {
	Len() int
}

// Handler serves the status endpoints.
type Handler struct {
	sessions SessionCounter
}

func NewHandler(sessions SessionCounter) *Handler {
	return &Handler{
		sessions: sessions,
	}
}

// Health answers liveness probes.
func (h Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Sessions reports the number of running tracking tasks.
func (h Handler) Sessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"active": h.sessions.Len()})
}

// NewRouter builds the status router with request logging.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	publicRoutes := router.Group("/")
	publicRoutes.Use(middleware.LogrusLog())

	publicRoutes.GET("/health", h.Health)
	publicRoutes.GET("/sessions", h.Sessions)
	return router
}
