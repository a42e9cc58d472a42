package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"go-project-finance/internal/auth"
	"go-project-finance/internal/middleware"
)

// RegisterRoutes mounts the public and protected API on r.
func RegisterRoutes(r *gin.Engine, allowRegistration bool) {
	r.GET("/health", GetSystemStatus)
	r.POST("/login", middleware.RateLimit(10, time.Minute), Login)
	if allowRegistration {
		r.POST("/register", middleware.RateLimit(5, time.Minute), Register)
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())

	read := middleware.RequirePermission(auth.FinanceRead)
	write := middleware.RequirePermission(auth.FinanceWrite)

	// Projects
	api.GET("/projects", read, ListProjects)
	api.GET("/projects/:id", read, GetProject)
	api.GET("/projects/:id/summary", read, GetProjectSummary)
	api.POST("/projects", middleware.RequirePermission(auth.ProjectCreate), CreateProject)
	api.PUT("/projects/:id", middleware.RequirePermission(auth.ProjectUpdate), UpdateProject)
	api.PUT("/projects/:id/status", middleware.RequirePermission(auth.ProjectUpdate), ChangeProjectStatus)
	api.POST("/projects/:id/close", middleware.RequirePermission(auth.ProjectClose), CloseProject)
	api.POST("/projects/:id/lock", middleware.RequirePermission(auth.ProjectLock), LockProject)
	api.POST("/projects/:id/unlock", middleware.RequirePermission(auth.ProjectLock), UnlockProject)
	api.DELETE("/projects/:id", middleware.RequirePermission(auth.ProjectDelete), DeleteProject)
	api.POST("/projects/:id/restore", middleware.RequirePermission(auth.ProjectRestore), RestoreProject)
	api.DELETE("/projects/:id/permanent", middleware.RequirePermission(auth.ProjectPurge), PurgeProject)

	// Financial records
	api.GET("/projects/:id/revenues", read, ListRevenues)
	api.POST("/projects/:id/revenues", write, CreateRevenue)
	api.PUT("/revenues/:id", write, UpdateRevenue)
	api.DELETE("/revenues/:id", write, DeleteRevenue)

	api.GET("/projects/:id/expenses", read, ListExpenses)
	api.POST("/projects/:id/expenses", write, CreateExpense)
	api.PUT("/expenses/:id", write, UpdateExpense)
	api.DELETE("/expenses/:id", write, DeleteExpense)

	api.GET("/projects/:id/billings", read, ListBillings)
	api.POST("/projects/:id/billings", write, CreateBilling)
	api.PUT("/billings/:id", write, UpdateBilling)
	api.DELETE("/billings/:id", write, DeleteBilling)

	api.GET("/billings/:id/collections", read, ListCollections)
	api.POST("/billings/:id/collections", write, CreateCollection)
	api.PUT("/collections/:id", write, UpdateCollection)
	api.DELETE("/collections/:id", write, DeleteCollection)

	// Notifications are per user; every authenticated user has an inbox.
	api.GET("/notifications", ListNotifications)
	api.GET("/notifications/count", NotificationCounts)
	api.PUT("/notifications/read-all", MarkAllNotificationsRead)
	api.PUT("/notifications/:id/read", MarkNotificationRead)
	api.DELETE("/notifications/:id", DeleteNotification)
	api.GET("/notifications/preferences", GetPreferences)
	api.PUT("/notifications/preferences", UpdatePreferences)
	api.POST("/notifications/scan", middleware.RequirePermission(auth.NotificationScan), TriggerScan)

	// Admin
	admin := api.Group("/")
	admin.Use(middleware.RequirePermission(auth.SettingsManage))
	{
		admin.GET("/settings/company", GetCompanyProfile)
		admin.PUT("/settings/company", UpdateCompanyProfile)
		admin.GET("/users", ListUsers)
		admin.PUT("/users/:id", UpdateUser)
	}

	api.GET("/reports", middleware.RequirePermission(auth.ReportExport), GetFinanceReport)
	api.GET("/reports/export", middleware.RequirePermission(auth.ReportExport), ExportFinanceReport)
	api.POST("/ask", middleware.RequirePermission(auth.AIAsk), AskAI)
}
