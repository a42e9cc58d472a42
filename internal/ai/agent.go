package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"go-project-finance/internal/config"
	"go-project-finance/internal/database"
	"go-project-finance/internal/models"
	"go-project-finance/internal/notify"
)

// maxToolRounds bounds how often the model may call back into our tools for one question.
const maxToolRounds = 5

var ErrNoAnswer = errors.New("assistant returned no answer")

var tools = []*genai.Tool{
	{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "list_projects",
				Description: "List live projects with code, name, client, status, end date and lock state. Optionally filter by status.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"status": {Type: genai.TypeString, Description: "pending, ongoing, completed or cancelled"},
					},
				},
			},
			{
				Name:        "project_summary",
				Description: "Get revenue, expenses, billed, collected, outstanding and profit of one project by its code.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"code": {Type: genai.TypeString, Description: "Project code, e.g. PRJ-001"},
					},
					Required: []string{"code"},
				},
			},
			{
				Name:        "projects_ending_soon",
				Description: "List active projects whose end date falls within the next N days.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"days": {Type: genai.TypeInteger, Description: "Look-ahead window in days"},
					},
					Required: []string{"days"},
				},
			},
			{
				Name:        "unread_notifications",
				Description: "Get the current user's unread notifications.",
			},
		},
	},
}

// RunAgent answers a finance question for userID, letting Gemini call the tools above.
func RunAgent(ctx context.Context, cfg config.AIConfig, db *gorm.DB, userID uint, userMessage string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(cfg.Model)
	model.Tools = tools
	model.SystemInstruction = genai.NewUserContent(genai.Text(fmt.Sprintf(`Today is %s. You are the finance assistant of a project tracking system.

RULES:
1. Never guess numbers. Use project_summary for money figures and list_projects to find project codes.
2. If a user names a project instead of giving a code, call list_projects first and pick the match.
3. Deadlines: use projects_ending_soon. Alerts: use unread_notifications.
4. Answer briefly, amounts with two decimals.`, time.Now().Format("2006-01-02"))))

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(userMessage))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return replyText(resp)
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := executeTool(ctx, db, userID, call)
			if err != nil {
				result = map[string]any{"error": err.Error()}
			}
			parts = append(parts, genai.FunctionResponse{Name: call.Name, Response: result})
		}
		if resp, err = session.SendMessage(ctx, parts...); err != nil {
			return "", err
		}
	}
	return replyText(resp)
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if fc, ok := part.(genai.FunctionCall); ok {
				calls = append(calls, fc)
			}
		}
	}
	return calls
}

func replyText(resp *genai.GenerateContentResponse) (string, error) {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
	return "", ErrNoAnswer
}

// executeTool runs one tool call against the database and returns the payload
// sent back to the model.
func executeTool(ctx context.Context, db *gorm.DB, userID uint, call genai.FunctionCall) (map[string]any, error) {
	switch call.Name {
	case "list_projects":
		q := db.WithContext(ctx).Where("deleted_at IS NULL").Order("code")
		if status, _ := call.Args["status"].(string); status != "" {
			q = q.Where("status = ?", status)
		}
		var projects []models.Project
		if err := q.Find(&projects).Error; err != nil {
			return nil, err
		}
		return map[string]any{"projects": projectRows(projects)}, nil

	case "project_summary":
		code, _ := call.Args["code"].(string)
		if code == "" {
			return nil, errors.New("code is required")
		}
		var p models.Project
		if err := db.WithContext(ctx).Where("code = ? AND deleted_at IS NULL", code).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("no project with code %s", code)
			}
			return nil, err
		}
		s, err := database.GetProjectSummary(ctx, db, p.ID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"code":        s.Code,
			"name":        s.Name,
			"status":      string(s.Status),
			"locked":      s.IsLocked,
			"revenue":     s.Revenue.StringFixed(2),
			"expense":     s.Expense.StringFixed(2),
			"billed":      s.Billed.StringFixed(2),
			"collected":   s.Collected.StringFixed(2),
			"outstanding": s.Outstanding.StringFixed(2),
			"profit":      s.Profit.StringFixed(2),
		}, nil

	case "projects_ending_soon":
		days := 7
		if v, ok := call.Args["days"].(float64); ok && v > 0 {
			days = int(v)
		}
		today := notify.StartOfDay(time.Now())
		var projects []models.Project
		err := db.WithContext(ctx).
			Where("deleted_at IS NULL AND status IN ?", []models.ProjectStatus{models.ProjectPending, models.ProjectOngoing}).
			Where("end_date >= ? AND end_date < ?", today, today.AddDate(0, 0, days+1)).
			Order("end_date").
			Find(&projects).Error
		if err != nil {
			return nil, err
		}
		return map[string]any{"days": days, "projects": projectRows(projects)}, nil

	case "unread_notifications":
		list, err := database.NewNotificationStore(db).List(ctx, userID, true, 20)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(list))
		for _, n := range list {
			rows = append(rows, map[string]any{
				"type":     string(n.Type),
				"priority": string(n.Priority),
				"title":    n.Title,
				"message":  n.Message,
			})
		}
		return map[string]any{"notifications": rows}, nil
	}
	return nil, fmt.Errorf("unknown tool %q", call.Name)
}

func projectRows(projects []models.Project) []map[string]any {
	rows := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, map[string]any{
			"code":     p.Code,
			"name":     p.Name,
			"client":   p.Client,
			"status":   string(p.Status),
			"end_date": p.EndDate.Format("2006-01-02"),
			"locked":   p.IsLocked,
		})
	}
	return rows
}
