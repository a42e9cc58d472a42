package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-project-finance/internal/auth"
	"go-project-finance/internal/database"
	"go-project-finance/internal/middleware"
	"go-project-finance/internal/models"
)

type UserUpdate struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// --- GET: /api/users ---
func ListUsers(c *gin.Context) {
	var users []models.User
	if err := database.DB.WithContext(c.Request.Context()).Order("username").Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// --- PUT: /api/users/:id ---
// Changes a user's role or deactivates them. Inactive users get no notifications.
func UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input UserUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if input.Role != nil && !auth.ValidRole(*input.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}
	if id == middleware.CurrentUserID(c) && input.IsActive != nil && !*input.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot deactivate yourself"})
		return
	}

	ctx := c.Request.Context()
	var user models.User
	if err := database.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		respondError(c, err)
		return
	}

	updates := map[string]any{}
	if input.Role != nil {
		updates["role"] = *input.Role
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := database.DB.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			respondError(c, err)
			return
		}
		if err := database.DB.WithContext(ctx).First(&user, id).Error; err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, user)
}
