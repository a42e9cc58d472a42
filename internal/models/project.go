package models

import "time"

type ProjectStatus string

const (
	ProjectPending   ProjectStatus = "pending"
	ProjectOngoing   ProjectStatus = "ongoing"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// Valid reports whether s is one of the known project statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPending, ProjectOngoing, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// Active is true for projects that are still running (the ones that can end soon
// or run overdue).
func (s ProjectStatus) Active() bool {
	return s == ProjectPending || s == ProjectOngoing
}

// Project - the parent of every financial record
type Project struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Code          string        `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Name          string        `gorm:"size:200;not null" json:"name"`
	Client        string        `gorm:"size:200" json:"client"`
	Status        ProjectStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	StartDate     time.Time     `json:"start_date"`
	EndDate       time.Time     `gorm:"index" json:"end_date"`
	ActualEndDate *time.Time    `json:"actual_end_date"`

	IsLocked bool       `gorm:"not null;default:false" json:"is_locked"`
	LockedAt *time.Time `json:"locked_at"`
	LockedBy *uint      `json:"locked_by"`

	// Soft delete is handled by the lifecycle guard, not by gorm.DeletedAt,
	// so restore and permanent delete stay explicit.
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsDeleted reports whether the project sits in the trash.
func (p *Project) IsDeleted() bool {
	return p.DeletedAt != nil
}
