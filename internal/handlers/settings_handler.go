package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-project-finance/internal/database"
	"go-project-finance/internal/models"
)

// --- GET: /api/settings/company ---
func GetCompanyProfile(c *gin.Context) {
	profile, err := database.NewConfigStore(database.DB).CompanyProfile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// --- PUT: /api/settings/company ---
// The next scan picks the new settings up; nothing is cached.
func UpdateCompanyProfile(c *gin.Context) {
	var profile models.CompanyProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	switch profile.NotificationTiming {
	case "":
		profile.NotificationTiming = models.TimingThreeDays
	case models.TimingOneDay, models.TimingThreeDays, models.TimingSevenDays:
	case models.TimingCustom:
		if profile.CustomDays <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "custom_days must be positive for custom timing"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown notification timing"})
		return
	}

	if err := database.NewConfigStore(database.DB).SaveCompanyProfile(c.Request.Context(), &profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
