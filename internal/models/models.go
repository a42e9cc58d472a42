package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User - someone who logs in and receives notifications
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	Email        string    `gorm:"size:120" json:"email"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'manager', 'finance', 'viewer'
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`

	Preference *NotificationPreference `gorm:"foreignKey:UserID" json:"preference,omitempty"`
}

// Revenue - money earned on a project outside of billing (grants, fees, ...)
type Revenue struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProjectID   uint            `gorm:"index;not null" json:"project_id"`
	Description string          `gorm:"size:255" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Expense - money spent on a project
type Expense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProjectID   uint            `gorm:"index;not null" json:"project_id"`
	Category    string          `gorm:"size:80" json:"category"`
	Description string          `gorm:"size:255" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AuditLog - who changed what. Written by the lifecycle guard when auditing is on.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    uint      `gorm:"index" json:"actor_id"`
	Action     string    `gorm:"size:50" json:"action"` // 'project.lock', 'project.close', ...
	EntityType string    `gorm:"size:30" json:"entity_type"`
	EntityID   uint      `gorm:"index" json:"entity_id"`
	Detail     string    `gorm:"size:255" json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
