package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-project-finance/internal/models"
	"go-project-finance/internal/notify"
)

// RecordStore is the read side the notification scan works from.
type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Snapshot loads live projects, open billings with their collections, the set of
// billed projects and the active users with their preferences.
func (s *RecordStore) Snapshot(ctx context.Context) (*notify.Snapshot, error) {
	db := s.db.WithContext(ctx)
	snap := &notify.Snapshot{BilledProjects: map[uint]bool{}}

	if err := db.Where("deleted_at IS NULL").Order("id").Find(&snap.Projects).Error; err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}

	liveProjects := s.db.Model(&models.Project{}).Select("id").Where("deleted_at IS NULL")
	err := db.Preload("Collections").
		Where("status IN ?", []models.BillingStatus{models.BillingSent, models.BillingOverdue}).
		Where("project_id IN (?)", liveProjects).
		Order("id").
		Find(&snap.Billings).Error
	if err != nil {
		return nil, fmt.Errorf("load open billings: %w", err)
	}

	var billed []uint
	if err := db.Model(&models.Billing{}).Distinct("project_id").Pluck("project_id", &billed).Error; err != nil {
		return nil, fmt.Errorf("load billed projects: %w", err)
	}
	for _, id := range billed {
		snap.BilledProjects[id] = true
	}

	if err := db.Preload("Preference").Where("is_active = ?", true).Order("id").Find(&snap.Users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return snap, nil
}

// ConfigStore reads and writes the company settings row.
type ConfigStore struct {
	db *gorm.DB
}

func NewConfigStore(db *gorm.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// CompanyProfile returns the settings row, or the defaults when none was saved yet.
// Nothing is written on read.
func (s *ConfigStore) CompanyProfile(ctx context.Context) (models.CompanyProfile, error) {
	var profile models.CompanyProfile
	err := s.db.WithContext(ctx).Order("id").First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultCompanyProfile(), nil
	}
	if err != nil {
		return profile, fmt.Errorf("load company profile: %w", err)
	}
	return profile, nil
}

// SaveCompanyProfile stores the settings, keeping a single row.
func (s *ConfigStore) SaveCompanyProfile(ctx context.Context, profile *models.CompanyProfile) error {
	current, err := s.CompanyProfile(ctx)
	if err != nil {
		return err
	}
	profile.ID = current.ID
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("save company profile: %w", err)
	}
	return nil
}

// NotificationConfig is read once at the start of each scan.
func (s *ConfigStore) NotificationConfig(ctx context.Context) (notify.Config, error) {
	profile, err := s.CompanyProfile(ctx)
	if err != nil {
		return notify.Config{}, err
	}
	return notify.ConfigFromProfile(profile), nil
}

// Preference returns the user's preferences, all enabled when none were saved.
func (s *ConfigStore) Preference(ctx context.Context, userID uint) (models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultPreference(userID), nil
	}
	if err != nil {
		return pref, fmt.Errorf("load preference: %w", err)
	}
	return pref, nil
}

// SavePreference upserts the user's preference row.
func (s *ConfigStore) SavePreference(ctx context.Context, pref *models.NotificationPreference) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"project_end_date", "project_overdue", "billing_unpaid", "project_unbilled", "updated_at"}),
	}).Create(pref).Error
	if err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}
