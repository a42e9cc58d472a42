package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"go-project-finance/internal/models"
	"go-project-finance/internal/notify"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationStore persists notifications and serves the per-user inbox.
type NotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// ExistsToday reports whether the user already got a notification of type t about
// relatedID on day.
func (s *NotificationStore) ExistsToday(ctx context.Context, userID uint, t models.NotificationType, relatedID uint, day time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND related_id = ? AND dedup_day = ?",
			userID, t, relatedID, day.Format(models.DedupDayLayout)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create stores n. A hit on the dedup index comes back as
// notify.ErrDuplicateNotification.
func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	if n.DedupDay == "" {
		n.DedupDay = time.Now().Format(models.DedupDayLayout)
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return notify.ErrDuplicateNotification
		}
		return err
	}
	return nil
}

// List returns the user's notifications, newest first.
func (s *NotificationStore) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var out []models.Notification
	if err := q.Order("created_at desc, id desc").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// Counts returns the user's unread and total notification counts.
func (s *NotificationStore) Counts(ctx context.Context, userID uint) (unread, total int64, err error) {
	db := s.db.WithContext(ctx).Model(&models.Notification{})
	if err = db.Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error
	return unread, total, err
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_read": true, "read_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now()})
	return res.RowsAffected, res.Error
}

// Delete removes one of the user's notifications.
func (s *NotificationStore) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
