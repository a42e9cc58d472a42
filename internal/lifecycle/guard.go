// Package lifecycle owns the project state machine: status transitions, close,
// lock/unlock, soft delete, restore and permanent delete, and the write guard every
// financial record handler consults before touching a project's children.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-project-finance/internal/logger"
	"go-project-finance/internal/models"
)

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrProjectLocked      = errors.New("project is locked")
	ErrProjectDeleted     = errors.New("project is deleted")
	ErrInvalidTransition  = errors.New("invalid project status transition")
	ErrBillingNotFound    = errors.New("billing not found")
	ErrCollectionNotFound = errors.New("collection not found")
)

// Guard applies lifecycle transitions and checks write permissions on projects.
type Guard struct {
	db    *gorm.DB
	audit bool
	now   func() time.Time
	log   zerolog.Logger
}

// NewGuard returns a guard over db. With audit on, every mutation leaves an
// AuditLog row.
func NewGuard(db *gorm.DB, audit bool) *Guard {
	return &Guard{
		db:    db,
		audit: audit,
		now:   time.Now,
		log:   logger.WithComponent("lifecycle"),
	}
}

// find loads a project, soft-deleted ones included.
func (g *Guard) find(ctx context.Context, projectID uint) (*models.Project, error) {
	var p models.Project
	if err := g.db.WithContext(ctx).First(&p, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("load project %d: %w", projectID, err)
	}
	return &p, nil
}

// findLive loads a project and treats a soft-deleted one as a lifecycle error.
func (g *Guard) findLive(ctx context.Context, projectID uint) (*models.Project, error) {
	p, err := g.find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted() {
		return nil, ErrProjectDeleted
	}
	return p, nil
}

// GuardWrite must be called before any create, update or delete of a revenue,
// expense, billing or collection under projectID.
func (g *Guard) GuardWrite(ctx context.Context, projectID uint) error {
	p, err := g.find(ctx, projectID)
	if err != nil {
		return err
	}
	return writable(p)
}

// WriteTx runs fn inside a transaction holding the project row FOR UPDATE, after
// the same checks as GuardWrite. A lock or delete racing the write either waits
// for it or is seen by it. fn must only use tx.
func (g *Guard) WriteTx(ctx context.Context, projectID uint, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return fmt.Errorf("load project %d: %w", projectID, err)
		}
		if err := writable(&p); err != nil {
			return err
		}
		return fn(tx)
	})
}

func writable(p *models.Project) error {
	if p.IsDeleted() {
		return ErrProjectNotFound
	}
	if p.IsLocked {
		return ErrProjectLocked
	}
	return nil
}

// GuardBillingWrite resolves the billing's project and guards it. The billing is
// returned so callers can copy its project id onto new collections.
func (g *Guard) GuardBillingWrite(ctx context.Context, billingID uint) (*models.Billing, error) {
	var b models.Billing
	if err := g.db.WithContext(ctx).First(&b, billingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillingNotFound
		}
		return nil, fmt.Errorf("load billing %d: %w", billingID, err)
	}
	if err := g.GuardWrite(ctx, b.ProjectID); err != nil {
		return nil, err
	}
	return &b, nil
}

// GuardCollectionWrite resolves collection -> billing -> project and guards it.
func (g *Guard) GuardCollectionWrite(ctx context.Context, collectionID uint) (*models.Collection, error) {
	var c models.Collection
	if err := g.db.WithContext(ctx).First(&c, collectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("load collection %d: %w", collectionID, err)
	}
	if _, err := g.GuardBillingWrite(ctx, c.BillingID); err != nil {
		return nil, err
	}
	return &c, nil
}

// Transition moves a project to another status through the transition table.
// Locked projects keep their status.
func (g *Guard) Transition(ctx context.Context, projectID uint, to models.ProjectStatus, actorID uint) (*models.Project, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	p, err := g.findLive(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status == to {
		return p, nil
	}
	if p.IsLocked {
		return nil, ErrProjectLocked
	}
	if !CanTransition(p.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
	}

	now := g.now()
	updates := map[string]any{"status": to, "updated_at": now}
	switch {
	case to == models.ProjectCompleted && p.ActualEndDate == nil:
		updates["actual_end_date"] = now
	case p.Status == models.ProjectCompleted:
		// reopened
		updates["actual_end_date"] = nil
	}
	res := g.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND status = ? AND is_locked = ?", projectID, p.Status, false).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update project status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: project %d changed concurrently", ErrInvalidTransition, projectID)
	}

	g.record(ctx, actorID, "project.status", projectID, fmt.Sprintf("%s -> %s", p.Status, to))
	return g.find(ctx, projectID)
}

// Close marks the project completed and stamps its actual end date in one update.
// Locked projects cannot be closed.
func (g *Guard) Close(ctx context.Context, projectID, actorID uint) (*models.Project, error) {
	p, err := g.findLive(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.IsLocked {
		return nil, ErrProjectLocked
	}
	if p.Status == models.ProjectCancelled {
		return nil, fmt.Errorf("%w: cannot close a cancelled project", ErrInvalidTransition)
	}

	now := g.now()
	res := g.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND deleted_at IS NULL AND is_locked = ? AND status <> ?", projectID, false, models.ProjectCancelled).
		Updates(map[string]any{
			"status":          models.ProjectCompleted,
			"actual_end_date": now,
			"updated_at":      now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("close project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// lost a race with a lock, cancel or delete; report what it is now
		return nil, g.closeConflict(ctx, projectID)
	}

	g.record(ctx, actorID, "project.close", projectID, "")
	return g.find(ctx, projectID)
}

func (g *Guard) closeConflict(ctx context.Context, projectID uint) error {
	p, err := g.findLive(ctx, projectID)
	switch {
	case err != nil:
		return err
	case p.IsLocked:
		return ErrProjectLocked
	default:
		return fmt.Errorf("%w: project %d changed concurrently", ErrInvalidTransition, projectID)
	}
}

// Lock forbids further changes to the project's financial records. Locking an
// already locked project returns it untouched.
func (g *Guard) Lock(ctx context.Context, projectID, actorID uint) (*models.Project, error) {
	now := g.now()
	res := g.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND is_locked = ? AND deleted_at IS NULL", projectID, false).
		Updates(map[string]any{
			"is_locked":  true,
			"locked_at":  now,
			"locked_by":  actorID,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("lock project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return g.findLive(ctx, projectID)
	}

	g.record(ctx, actorID, "project.lock", projectID, "")
	return g.find(ctx, projectID)
}

// Unlock lifts the lock and clears who locked it and when.
func (g *Guard) Unlock(ctx context.Context, projectID, actorID uint) (*models.Project, error) {
	res := g.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND is_locked = ? AND deleted_at IS NULL", projectID, true).
		Updates(map[string]any{
			"is_locked":  false,
			"locked_at":  nil,
			"locked_by":  nil,
			"updated_at": g.now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("unlock project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return g.findLive(ctx, projectID)
	}

	g.record(ctx, actorID, "project.unlock", projectID, "")
	return g.find(ctx, projectID)
}

// SoftDelete moves the project to the trash. Its children stay where they are.
func (g *Guard) SoftDelete(ctx context.Context, projectID, actorID uint) (*models.Project, error) {
	now := g.now()
	res := g.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND deleted_at IS NULL", projectID).
		Updates(map[string]any{"deleted_at": now, "updated_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("delete project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return g.find(ctx, projectID)
	}

	g.record(ctx, actorID, "project.delete", projectID, "")
	return g.find(ctx, projectID)
}

// Restore takes the project out of the trash. A live project is returned as is,
// without any write.
func (g *Guard) Restore(ctx context.Context, projectID, actorID uint) (*models.Project, error) {
	p, err := g.find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !p.IsDeleted() {
		return p, nil
	}

	res := g.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND deleted_at IS NOT NULL", projectID).
		Updates(map[string]any{"deleted_at": nil, "updated_at": g.now()})
	if res.Error != nil {
		return nil, fmt.Errorf("restore project: %w", res.Error)
	}

	g.record(ctx, actorID, "project.restore", projectID, "")
	return g.find(ctx, projectID)
}

// PermanentDelete removes the project together with its collections, billings,
// revenues, expenses and the notifications pointing at them.
func (g *Guard) PermanentDelete(ctx context.Context, projectID, actorID uint) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var billingIDs []uint
		if err := tx.Model(&models.Billing{}).Where("project_id = ?", projectID).Pluck("id", &billingIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Collection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Billing{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Revenue{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Expense{}).Error; err != nil {
			return err
		}
		if err := tx.Where("related_type = ? AND related_id = ?", "project", projectID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if len(billingIDs) > 0 {
			if err := tx.Where("related_type = ? AND related_id IN ?", "billing", billingIDs).Delete(&models.Notification{}).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&models.Project{}, projectID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProjectNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return err
		}
		return fmt.Errorf("permanently delete project %d: %w", projectID, err)
	}

	g.record(ctx, actorID, "project.purge", projectID, "")
	return nil
}

func (g *Guard) record(ctx context.Context, actorID uint, action string, projectID uint, detail string) {
	if !g.audit {
		return
	}
	entry := models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: "project",
		EntityID:   projectID,
		Detail:     detail,
		CreatedAt:  g.now(),
	}
	if err := g.db.WithContext(ctx).Create(&entry).Error; err != nil {
		g.log.Warn().Err(err).Str("action", action).Uint("project_id", projectID).Msg("failed to write audit log")
	}
}
