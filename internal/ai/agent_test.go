package ai

import (
	"context"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-project-finance/internal/database"
	"go-project-finance/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	now := time.Now()
	projects := []models.Project{
		{Code: "PRJ-001", Name: "Harbor bridge", Client: "City", Status: models.ProjectOngoing, StartDate: now.AddDate(0, -2, 0), EndDate: now.AddDate(0, 0, 2)},
		{Code: "PRJ-002", Name: "School roof", Client: "District", Status: models.ProjectCompleted, StartDate: now.AddDate(0, -6, 0), EndDate: now.AddDate(0, -1, 0)},
	}
	require.NoError(t, db.Create(&projects).Error)
	require.NoError(t, db.Create(&models.Expense{ProjectID: projects[0].ID, Amount: decimal.NewFromInt(250)}).Error)
	require.NoError(t, db.Create(&models.Notification{
		UserID: 3, Type: models.NotifyProjectEndDate, RelatedID: projects[0].ID, RelatedType: "project",
		DedupDay: now.Format(models.DedupDayLayout), Title: "Project ending soon", Priority: models.PriorityHigh,
	}).Error)
	return db
}

func TestExecuteTool(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	out, err := executeTool(ctx, db, 3, genai.FunctionCall{Name: "list_projects", Args: map[string]any{"status": "ongoing"}})
	require.NoError(t, err)
	rows := out["projects"].([]map[string]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "PRJ-001", rows[0]["code"])

	out, err = executeTool(ctx, db, 3, genai.FunctionCall{Name: "project_summary", Args: map[string]any{"code": "PRJ-001"}})
	require.NoError(t, err)
	assert.Equal(t, "250.00", out["expense"])
	assert.Equal(t, "-250.00", out["profit"])

	_, err = executeTool(ctx, db, 3, genai.FunctionCall{Name: "project_summary", Args: map[string]any{"code": "NOPE"}})
	assert.Error(t, err)

	out, err = executeTool(ctx, db, 3, genai.FunctionCall{Name: "projects_ending_soon", Args: map[string]any{"days": float64(3)}})
	require.NoError(t, err)
	assert.Len(t, out["projects"], 1)

	out, err = executeTool(ctx, db, 3, genai.FunctionCall{Name: "unread_notifications"})
	require.NoError(t, err)
	assert.Len(t, out["notifications"], 1)

	out, err = executeTool(ctx, db, 4, genai.FunctionCall{Name: "unread_notifications"})
	require.NoError(t, err)
	assert.Empty(t, out["notifications"])

	_, err = executeTool(ctx, db, 3, genai.FunctionCall{Name: "drop_tables"})
	assert.Error(t, err)
}

func TestReplyText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Profit is "), genai.Text("-250.00")}}},
		},
	}
	got, err := replyText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Profit is -250.00", got)
	assert.Empty(t, functionCalls(resp))

	_, err = replyText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrNoAnswer)
}
