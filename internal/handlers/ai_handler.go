package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"go-project-finance/internal/ai"
	"go-project-finance/internal/database"
	"go-project-finance/internal/middleware"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	if aiConfig.GeminiAPIKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured (GEMINI_API_KEY missing)"})
		return
	}

	ctx := c.Request.Context()
	response, err := ai.RunAgent(ctx, aiConfig, database.DB, middleware.CurrentUserID(c), req.Message)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("assistant failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant failed to answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": response})
}
