package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go-project-finance/internal/config"
	"go-project-finance/internal/database"
	"go-project-finance/internal/lifecycle"
	"go-project-finance/internal/notify"
)

// ScanTrigger runs the notification scan on demand and reports on past runs.
type ScanTrigger interface {
	RunNow(ctx context.Context, referenceDate time.Time) (notify.RunResult, error)
	Running() bool
	LastRun() (notify.RunStatus, bool)
}

// Deps are the collaborators the handlers share. Storage goes through database.DB.
type Deps struct {
	Guard *lifecycle.Guard
	Scans ScanTrigger
	AI    config.AIConfig
}

var (
	guard    *lifecycle.Guard
	scans    ScanTrigger
	aiConfig config.AIConfig
)

// Init wires the handlers. Call it once after database.Connect.
func Init(d Deps) {
	guard = d.Guard
	scans = d.Scans
	aiConfig = d.AI
}

// respondError maps domain errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var timeout *notify.ScanTimeoutError
	switch {
	case errors.Is(err, lifecycle.ErrProjectNotFound),
		errors.Is(err, lifecycle.ErrBillingNotFound),
		errors.Is(err, lifecycle.ErrCollectionNotFound),
		errors.Is(err, database.ErrNotificationNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrProjectLocked):
		c.JSON(http.StatusLocked, gin.H{"error": "Project is locked. Unlock it before changing its financial records."})
	case errors.Is(err, lifecycle.ErrProjectDeleted),
		errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, notify.ErrScanInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"error": "A record with the same number already exists"})
	case errors.As(err, &timeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error(), "partial": timeout.Partial})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
