package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-project-finance/internal/database"
	"go-project-finance/internal/middleware"
	"go-project-finance/internal/models"
)

type PreferenceInput struct {
	ProjectEndDate  bool `json:"project_end_date"`
	ProjectOverdue  bool `json:"project_overdue"`
	BillingUnpaid   bool `json:"billing_unpaid"`
	ProjectUnbilled bool `json:"project_unbilled"`
}

// --- GET: /api/notifications?unread=true&limit=50 ---
func ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	store := database.NewNotificationStore(database.DB)
	list, err := store.List(c.Request.Context(), middleware.CurrentUserID(c), c.Query("unread") == "true", limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// --- GET: /api/notifications/count ---
func NotificationCounts(c *gin.Context) {
	unread, total, err := database.NewNotificationStore(database.DB).Counts(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": unread, "total": total})
}

// --- PUT: /api/notifications/:id/read ---
func MarkNotificationRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := database.NewNotificationStore(database.DB).MarkRead(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// --- PUT: /api/notifications/read-all ---
func MarkAllNotificationsRead(c *gin.Context) {
	n, err := database.NewNotificationStore(database.DB).MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// --- DELETE: /api/notifications/:id ---
func DeleteNotification(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := database.NewNotificationStore(database.DB).Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

// --- GET: /api/notifications/preferences ---
func GetPreferences(c *gin.Context) {
	pref, err := database.NewConfigStore(database.DB).Preference(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}

// --- PUT: /api/notifications/preferences ---
func UpdatePreferences(c *gin.Context) {
	var input PreferenceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	pref := models.NotificationPreference{
		UserID:          middleware.CurrentUserID(c),
		ProjectEndDate:  input.ProjectEndDate,
		ProjectOverdue:  input.ProjectOverdue,
		BillingUnpaid:   input.BillingUnpaid,
		ProjectUnbilled: input.ProjectUnbilled,
	}
	store := database.NewConfigStore(database.DB)
	if err := store.SavePreference(c.Request.Context(), &pref); err != nil {
		respondError(c, err)
		return
	}
	saved, err := store.Preference(c.Request.Context(), pref.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// --- POST: /api/notifications/scan?date=2024-03-10 ---
// Runs the scan now. Without a date the current time is the reference.
func TriggerScan(c *gin.Context) {
	ref := time.Now()
	if d := c.Query("date"); d != "" {
		parsed, err := time.ParseInLocation(models.DedupDayLayout, d, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must look like 2006-01-02"})
			return
		}
		ref = parsed
	}

	result, err := scans.RunNow(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
