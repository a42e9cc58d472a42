package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-project-finance/internal/database"
	"go-project-finance/internal/middleware"
	"go-project-finance/internal/models"
)

type ProjectInput struct {
	Code      string               `json:"code" binding:"required"`
	Name      string               `json:"name" binding:"required"`
	Client    string               `json:"client"`
	Status    models.ProjectStatus `json:"status"`
	StartDate time.Time            `json:"start_date" binding:"required"`
	EndDate   time.Time            `json:"end_date" binding:"required"`
}

type ProjectUpdate struct {
	Name      *string    `json:"name"`
	Client    *string    `json:"client"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type StatusRequest struct {
	Status models.ProjectStatus `json:"status" binding:"required"`
}

// --- GET: /api/projects ---
// ?deleted=true lists the trash instead of live projects.
func ListProjects(c *gin.Context) {
	q := database.DB.WithContext(c.Request.Context())
	if c.Query("deleted") == "true" {
		q = q.Where("deleted_at IS NOT NULL").Order("deleted_at desc")
	} else {
		q = q.Where("deleted_at IS NULL").Order("code")
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var projects []models.Project
	if err := q.Find(&projects).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// --- GET: /api/projects/:id ---
func GetProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p models.Project
	if err := database.DB.WithContext(c.Request.Context()).First(&p, id).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- POST: /api/projects ---
func CreateProject(c *gin.Context) {
	var input ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if input.Status == "" {
		input.Status = models.ProjectPending
	}
	if !input.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown project status"})
		return
	}
	if input.EndDate.Before(input.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not be before start date"})
		return
	}

	project := models.Project{
		Code:      input.Code,
		Name:      input.Name,
		Client:    input.Client,
		Status:    input.Status,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := database.DB.WithContext(c.Request.Context()).Create(&project).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// --- PUT: /api/projects/:id ---
// Only descriptive fields and dates. Status goes through /status, locking through /lock.
func UpdateProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input ProjectUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	ctx := c.Request.Context()
	if err := guard.GuardWrite(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	var project models.Project
	if err := database.DB.WithContext(ctx).First(&project, id).Error; err != nil {
		respondError(c, err)
		return
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Client != nil {
		updates["client"] = *input.Client
	}
	start, end := project.StartDate, project.EndDate
	if input.StartDate != nil {
		start = *input.StartDate
		updates["start_date"] = start
	}
	if input.EndDate != nil {
		end = *input.EndDate
		updates["end_date"] = end
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not be before start date"})
		return
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, project)
		return
	}

	err := guard.WriteTx(ctx, id, func(tx *gorm.DB) error {
		if err := tx.Model(&project).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&project, id).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// --- PUT: /api/projects/:id/status ---
func ChangeProjectStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}
	project, err := guard.Transition(c.Request.Context(), id, req.Status, middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// --- POST: /api/projects/:id/close ---
func CloseProject(c *gin.Context) {
	lifecycleAction(c, guard.Close)
}

// --- POST: /api/projects/:id/lock ---
func LockProject(c *gin.Context) {
	lifecycleAction(c, guard.Lock)
}

// --- POST: /api/projects/:id/unlock ---
func UnlockProject(c *gin.Context) {
	lifecycleAction(c, guard.Unlock)
}

// --- DELETE: /api/projects/:id ---
// Moves the project to the trash.
func DeleteProject(c *gin.Context) {
	lifecycleAction(c, guard.SoftDelete)
}

// --- POST: /api/projects/:id/restore ---
func RestoreProject(c *gin.Context) {
	lifecycleAction(c, guard.Restore)
}

// --- DELETE: /api/projects/:id/permanent ---
func PurgeProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := guard.PermanentDelete(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project permanently deleted"})
}

func lifecycleAction(c *gin.Context, action func(ctx context.Context, projectID, actorID uint) (*models.Project, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	project, err := action(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}
