package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Message is required")
		return
	}

	if h.agent == nil || !h.agent.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server missing Gemini API Key"})
		return
	}

	response, err := h.agent.Ask(c.Request.Context(), req.Message)
	if err != nil {
		h.fail(c, "ask", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": response})
}
