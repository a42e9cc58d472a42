package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"go-project-finance/internal/database"
	"go-project-finance/internal/export"
)

// ReportData is the portfolio-wide view sent to the dashboard
type ReportData struct {
	Projects       []database.ProjectSummary `json:"projects"`
	TotalBilled    decimal.Decimal           `json:"total_billed"`
	TotalCollected decimal.Decimal           `json:"total_collected"`
	TotalProfit    decimal.Decimal           `json:"total_profit"`
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// --- GET: /api/reports ---
func GetFinanceReport(c *gin.Context) {
	rows, err := database.GetAllProjectSummaries(c.Request.Context(), database.DB)
	if err != nil {
		respondError(c, err)
		return
	}

	data := ReportData{Projects: rows}
	for _, s := range rows {
		data.TotalBilled = data.TotalBilled.Add(s.Billed)
		data.TotalCollected = data.TotalCollected.Add(s.Collected)
		data.TotalProfit = data.TotalProfit.Add(s.Profit)
	}
	c.JSON(http.StatusOK, data)
}

// --- GET: /api/projects/:id/summary ---
func GetProjectSummary(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s, err := database.GetProjectSummary(c.Request.Context(), database.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// --- GET: /api/reports/export ---
func ExportFinanceReport(c *gin.Context) {
	rows, err := database.GetAllProjectSummaries(c.Request.Context(), database.DB)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	var buf bytes.Buffer
	if err := export.ProjectSummaries(&buf, rows, now); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("project-finance-%s.xlsx", now.Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
