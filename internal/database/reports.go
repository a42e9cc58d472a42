package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-project-finance/internal/models"
)

// ProjectSummary holds the money figures of one project
type ProjectSummary struct {
	ProjectID   uint                 `json:"project_id"`
	Code        string               `json:"code"`
	Name        string               `json:"name"`
	Client      string               `json:"client"`
	Status      models.ProjectStatus `json:"status"`
	IsLocked    bool                 `json:"is_locked"`
	Revenue     decimal.Decimal      `json:"revenue"`
	Expense     decimal.Decimal      `json:"expense"`
	Billed      decimal.Decimal      `json:"billed"`
	Collected   decimal.Decimal      `json:"collected"`
	Outstanding decimal.Decimal      `json:"outstanding"`
	Profit      decimal.Decimal      `json:"profit"`
}

// GetProjectSummary totals revenue, expenses, billings and collections of a project.
// Draft and cancelled billings are not counted as billed.
func GetProjectSummary(ctx context.Context, db *gorm.DB, projectID uint) (*ProjectSummary, error) {
	var p models.Project
	if err := db.WithContext(ctx).Where("deleted_at IS NULL").First(&p, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", projectID, gorm.ErrRecordNotFound)
		}
		return nil, err
	}
	return summarize(ctx, db, p)
}

// GetAllProjectSummaries returns a summary for every live project, ordered by code.
func GetAllProjectSummaries(ctx context.Context, db *gorm.DB) ([]ProjectSummary, error) {
	var projects []models.Project
	if err := db.WithContext(ctx).Where("deleted_at IS NULL").Order("code").Find(&projects).Error; err != nil {
		return nil, err
	}

	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		s, err := summarize(ctx, db, p)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

func summarize(ctx context.Context, db *gorm.DB, p models.Project) (*ProjectSummary, error) {
	s := &ProjectSummary{
		ProjectID: p.ID,
		Code:      p.Code,
		Name:      p.Name,
		Client:    p.Client,
		Status:    p.Status,
		IsLocked:  p.IsLocked,
	}

	sums := []struct {
		model  any
		column string
		extra  string
		dest   *decimal.Decimal
	}{
		{&models.Revenue{}, "amount", "", &s.Revenue},
		{&models.Expense{}, "amount", "", &s.Expense},
		{&models.Billing{}, "total_amount", "status NOT IN ('draft', 'cancelled')", &s.Billed},
		{&models.Collection{}, "amount", "", &s.Collected},
	}
	for _, sum := range sums {
		// COALESCE ensures we get 0 instead of NULL if nothing was recorded
		q := db.WithContext(ctx).Model(sum.model).
			Select(fmt.Sprintf("COALESCE(SUM(%s), 0)", sum.column)).
			Where("project_id = ?", p.ID)
		if sum.extra != "" {
			q = q.Where(sum.extra)
		}
		if err := q.Row().Scan(sum.dest); err != nil {
			return nil, fmt.Errorf("sum %s for project %d: %w", sum.column, p.ID, err)
		}
	}

	s.Outstanding = s.Billed.Sub(s.Collected)
	if s.Outstanding.IsNegative() {
		s.Outstanding = decimal.Zero
	}
	s.Profit = s.Revenue.Add(s.Billed).Sub(s.Expense)
	return s, nil
}
