package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-project-finance/internal/database"
)

// GetSystemStatus reports database reachability and the state of the notification scan.
func GetSystemStatus(c *gin.Context) {
	status := gin.H{"status": "online", "database": "ok"}
	code := http.StatusOK

	sqlDB, err := database.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}

	if scans != nil {
		scan := gin.H{"running": scans.Running()}
		if last, ok := scans.LastRun(); ok {
			scan["last_run"] = last
		}
		status["scan"] = scan
	}
	c.JSON(code, status)
}
