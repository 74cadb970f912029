package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DiagramSummaryRequest is the body of POST /api/summary
type DiagramSummaryRequest struct {
	XML string `json:"xml" binding:"required"`
}

// GetHealth reports liveness and the number of distinct online users
func (s *Server) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"users_online": len(s.hub.Registry().DistinctOnlineNames()),
	})
}

// GetUsers lists the distinct online display names
func (s *Server) GetUsers(c *gin.Context) {
	users := s.hub.Registry().DistinctOnlineNames()
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// PostSummary analyzes a BPMN document. Unparseable content yields a
// structured error payload rather than an HTTP error: the client renders
// it like any other summary.
func (s *Server) PostSummary(c *gin.Context) {
	var req DiagramSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{
			Error:   "invalid_input",
			Message: err.Error(),
		})
		return
	}

	result, err := AnalyzeDiagram(req.XML)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"summary": fmt.Sprintf("Error parsing BPMN XML: %v", err),
			"error":   true,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
