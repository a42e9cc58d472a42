package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-project-finance/internal/models"
)

type memorySink struct {
	mu      sync.Mutex
	stored  []models.Notification
	failFor uint // user id whose Create fails
}

func dedupKey(userID uint, t models.NotificationType, relatedID uint, day string) string {
	return fmt.Sprintf("%d|%s|%d|%s", userID, t, relatedID, day)
}

func (m *memorySink) ExistsToday(_ context.Context, userID uint, t models.NotificationType, relatedID uint, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dedupKey(userID, t, relatedID, day.Format(models.DedupDayLayout))
	for _, n := range m.stored {
		if dedupKey(n.UserID, n.Type, n.RelatedID, n.DedupDay) == key {
			return true, nil
		}
	}
	return false, nil
}

func (m *memorySink) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor != 0 && n.UserID == m.failFor {
		return fmt.Errorf("disk full")
	}
	key := dedupKey(n.UserID, n.Type, n.RelatedID, n.DedupDay)
	for _, existing := range m.stored {
		if dedupKey(existing.UserID, existing.Type, existing.RelatedID, existing.DedupDay) == key {
			return ErrDuplicateNotification
		}
	}
	n.ID = uint(len(m.stored) + 1)
	m.stored = append(m.stored, *n)
	return nil
}

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stored)
}

// racySink pretends another instance inserted the row between lookup and insert.
type racySink struct{ memorySink }

func (r *racySink) ExistsToday(context.Context, uint, models.NotificationType, uint, time.Time) (bool, error) {
	return false, nil
}

type staticSource struct{ snap *Snapshot }

func (s staticSource) Snapshot(context.Context) (*Snapshot, error) { return s.snap, nil }

type staticConfig struct{ cfg Config }

func (s staticConfig) NotificationConfig(context.Context) (Config, error) { return s.cfg, nil }

func allEnabled(timing ...int) Config {
	cfg := ConfigFromProfile(models.DefaultCompanyProfile())
	if len(timing) > 0 {
		cfg.TimingDays = timing
	}
	return cfg
}

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func activeUser(id uint) models.User {
	return models.User{ID: id, Username: fmt.Sprintf("user%d", id), IsActive: true}
}

// slowSource blocks until the caller gives up.
type slowSource struct{}

func (slowSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("query projects: %w", ctx.Err())
}
