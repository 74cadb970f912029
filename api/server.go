// Package api implements the collaborative diagram session server: the
// shared session state, the identity registry, the websocket hub that fans
// out state changes to every participant, and the diagnostic HTTP surface.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the HTTP surface to the collaboration hub
type Server struct {
	hub *Hub
}

// NewServer creates a server around an existing hub
func NewServer(hub *Hub) *Server {
	return &Server{hub: hub}
}

// Hub returns the collaboration hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// RegisterRoutes attaches every endpoint to the gin engine
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.GetHealth)
	r.GET("/users", s.GetUsers)
	r.POST("/api/summary", s.PostSummary)
	r.GET("/ws", s.hub.HandleWS)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
