// Package notify is the notification policy engine: a periodic scan over projects,
// billings and collections that decides which conditions deserve an alert, ranks
// them by priority and never notifies the same user about the same record twice
// on one calendar day.
package notify

import (
	"context"
	"time"

	"go-project-finance/internal/models"
)

// Config is the notification policy for one scan. It is loaded once at the start
// of a run and passed down by value.
type Config struct {
	Enabled    bool
	Categories map[models.NotificationType]bool
	TimingDays []int
}

// CategoryEnabled is true when both the global switch and the category switch are on.
func (c Config) CategoryEnabled(t models.NotificationType) bool {
	return c.Enabled && c.Categories[t]
}

// Timing reports whether the ending-soon rule fires at days remaining.
func (c Config) Timing(days int) bool {
	for _, d := range c.TimingDays {
		if d == days {
			return true
		}
	}
	return false
}

// ConfigFromProfile builds the scan policy out of the company settings row.
func ConfigFromProfile(p models.CompanyProfile) Config {
	cfg := Config{
		Enabled:    p.NotificationsEnabled,
		Categories: make(map[models.NotificationType]bool, len(models.NotificationTypes)),
		TimingDays: p.TimingDays(),
	}
	for _, t := range models.NotificationTypes {
		cfg.Categories[t] = p.CategoryEnabled(t)
	}
	return cfg
}

// Snapshot is the read-only view of the records one scan works on.
type Snapshot struct {
	// Projects holds live (not soft-deleted) projects.
	Projects []models.Project
	// Billings holds sent and overdue billings of live projects, collections preloaded.
	Billings []models.Billing
	// BilledProjects marks projects that have at least one billing of any status.
	BilledProjects map[uint]bool
	// Users holds active users with their preferences preloaded.
	Users []models.User
}

// Candidate is a notification that has not yet passed the dedup check.
type Candidate struct {
	UserID      uint
	Type        models.NotificationType
	RelatedID   uint
	RelatedType string
	Title       string
	Message     string
	Priority    models.Priority
}

// Notification turns the candidate into the row the sink stores for day.
func (c Candidate) Notification(day, now time.Time) *models.Notification {
	return &models.Notification{
		UserID:      c.UserID,
		Type:        c.Type,
		RelatedID:   c.RelatedID,
		RelatedType: c.RelatedType,
		DedupDay:    day.Format(models.DedupDayLayout),
		Title:       c.Title,
		Message:     c.Message,
		Priority:    c.Priority,
		CreatedAt:   now,
	}
}

// RunResult is what one scan reports back to the scheduler.
type RunResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// RecordSource loads the records a scan inspects.
type RecordSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// ConfigSource supplies the notification policy.
type ConfigSource interface {
	NotificationConfig(ctx context.Context) (Config, error)
}

// Sink stores notifications.
type Sink interface {
	ExistsToday(ctx context.Context, userID uint, t models.NotificationType, relatedID uint, day time.Time) (bool, error)
	Create(ctx context.Context, n *models.Notification) error
}
