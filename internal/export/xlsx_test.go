package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"go-project-finance/internal/database"
	"go-project-finance/internal/models"
)

func TestProjectSummaries(t *testing.T) {
	rows := []database.ProjectSummary{
		{Code: "PRJ-1", Name: "Harbor", Status: models.ProjectOngoing, Revenue: decimal.NewFromInt(100), Billed: decimal.NewFromInt(900), Profit: decimal.NewFromInt(1000)},
		{Code: "PRJ-2", Name: "Roof", Status: models.ProjectCompleted, IsLocked: true, Expense: decimal.RequireFromString("50.25"), Profit: decimal.RequireFromString("-50.25")},
	}

	var buf bytes.Buffer
	require.NoError(t, ProjectSummaries(&buf, rows, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 6) // title, blank, header, two projects, totals

	assert.Contains(t, got[0][0], "2024-03-10")
	assert.Equal(t, "Code", got[2][0])
	assert.Equal(t, "PRJ-1", got[3][0])
	assert.Equal(t, "yes", got[4][4])
	assert.Equal(t, "TOTAL", got[5][0])

	profit, err := f.GetCellValue(sheetName, "K6", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "949.75", profit)
}
