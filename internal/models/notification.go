package models

import "time"

type NotificationType string

const (
	NotifyProjectEndDate  NotificationType = "project_end_date"
	NotifyProjectOverdue  NotificationType = "project_overdue"
	NotifyBillingUnpaid   NotificationType = "billing_unpaid"
	NotifyProjectUnbilled NotificationType = "project_unbilled"
)

// NotificationTypes lists every type the scan knows how to produce.
var NotificationTypes = []NotificationType{
	NotifyProjectEndDate,
	NotifyProjectOverdue,
	NotifyBillingUnpaid,
	NotifyProjectUnbilled,
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities, urgent first when sorting descending.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	}
	return 0
}

// DedupDayLayout is the calendar-day key stored next to every notification.
const DedupDayLayout = "2006-01-02"

// Notification - an alert for one user about one record.
// The composite unique index makes "once per user, type, record and day" exact even
// when two scans race.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;uniqueIndex:idx_notification_dedup,priority:1;index" json:"user_id"`
	Type        NotificationType `gorm:"type:varchar(40);not null;uniqueIndex:idx_notification_dedup,priority:2" json:"type"`
	RelatedID   uint             `gorm:"not null;uniqueIndex:idx_notification_dedup,priority:3" json:"related_id"`
	RelatedType string           `gorm:"size:30;not null" json:"related_type"` // 'project', 'billing'
	DedupDay    string           `gorm:"size:10;not null;uniqueIndex:idx_notification_dedup,priority:4" json:"-"`
	Title       string           `gorm:"size:200" json:"title"`
	Message     string           `gorm:"size:500" json:"message"`
	Priority    Priority         `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	IsRead      bool             `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt      *time.Time       `json:"read_at"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationPreference - per-user opt-outs. No row means everything is on.
type NotificationPreference struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	ProjectEndDate  bool      `gorm:"not null" json:"project_end_date"`
	ProjectOverdue  bool      `gorm:"not null" json:"project_overdue"`
	BillingUnpaid   bool      `gorm:"not null" json:"billing_unpaid"`
	ProjectUnbilled bool      `gorm:"not null" json:"project_unbilled"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultPreference returns a preference row with every category switched on.
func DefaultPreference(userID uint) NotificationPreference {
	return NotificationPreference{
		UserID:          userID,
		ProjectEndDate:  true,
		ProjectOverdue:  true,
		BillingUnpaid:   true,
		ProjectUnbilled: true,
	}
}

// Allows reports whether the user wants notifications of type t.
func (p *NotificationPreference) Allows(t NotificationType) bool {
	if p == nil {
		return true
	}
	switch t {
	case NotifyProjectEndDate:
		return p.ProjectEndDate
	case NotifyProjectOverdue:
		return p.ProjectOverdue
	case NotifyBillingUnpaid:
		return p.BillingUnpaid
	case NotifyProjectUnbilled:
		return p.ProjectUnbilled
	}
	return true
}
