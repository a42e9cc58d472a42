package models

import "time"

// Notification timing options offered on the settings page.
const (
	TimingOneDay    = "1_day"
	TimingThreeDays = "3_days"
	TimingSevenDays = "7_days"
	TimingCustom    = "custom"
)

// CompanyProfile - the single settings row. Only read by the scan.
type CompanyProfile struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CompanyName string `gorm:"size:200" json:"company_name"`

	NotificationsEnabled bool   `gorm:"not null" json:"notifications_enabled"`
	NotifyEndDate        bool   `gorm:"not null" json:"notify_end_date"`
	NotifyOverdue        bool   `gorm:"not null" json:"notify_overdue"`
	NotifyUnpaid         bool   `gorm:"not null" json:"notify_unpaid"`
	NotifyUnbilled       bool   `gorm:"not null" json:"notify_unbilled"`
	NotificationTiming   string `gorm:"size:20;not null;default:'3_days'" json:"notification_timing"`
	CustomDays           int    `gorm:"not null;default:0" json:"custom_days"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultCompanyProfile is what the scan uses when no settings row exists yet.
func DefaultCompanyProfile() CompanyProfile {
	return CompanyProfile{
		NotificationsEnabled: true,
		NotifyEndDate:        true,
		NotifyOverdue:        true,
		NotifyUnpaid:         true,
		NotifyUnbilled:       true,
		NotificationTiming:   TimingThreeDays,
	}
}

// TimingDays turns the timing option into the day counts the ending-soon rule
// fires on. An unknown option falls back to three days.
func (c *CompanyProfile) TimingDays() []int {
	switch c.NotificationTiming {
	case TimingOneDay:
		return []int{1}
	case TimingSevenDays:
		return []int{7}
	case TimingCustom:
		if c.CustomDays > 0 {
			return []int{c.CustomDays}
		}
		return nil
	}
	return []int{3}
}

// CategoryEnabled reports the company-wide switch for one notification type.
func (c *CompanyProfile) CategoryEnabled(t NotificationType) bool {
	switch t {
	case NotifyProjectEndDate:
		return c.NotifyEndDate
	case NotifyProjectOverdue:
		return c.NotifyOverdue
	case NotifyBillingUnpaid:
		return c.NotifyUnpaid
	case NotifyProjectUnbilled:
		return c.NotifyUnbilled
	}
	return false
}
