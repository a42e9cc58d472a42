package database

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-project-finance/internal/models"
	"go-project-finance/internal/notify"
)

var refDay = time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedProject(t *testing.T, db *gorm.DB, code string, status models.ProjectStatus, end time.Time) *models.Project {
	t.Helper()
	p := &models.Project{Code: code, Name: "Project " + code, Status: status, StartDate: end.AddDate(0, -3, 0), EndDate: end}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedUser(t *testing.T, db *gorm.DB, name string, active bool) *models.User {
	t.Helper()
	u := &models.User{Username: name, Role: "manager", IsActive: active}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestSnapshotLoadsLiveRecords(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	live := seedProject(t, db, "P-1", models.ProjectOngoing, refDay.AddDate(0, 0, 3))
	trashed := seedProject(t, db, "P-2", models.ProjectOngoing, refDay.AddDate(0, 0, 3))
	deletedAt := refDay
	require.NoError(t, db.Model(trashed).Update("deleted_at", &deletedAt).Error)

	open := models.Billing{InvoiceNumber: "INV-1", ProjectID: live.ID, Status: models.BillingSent, Amount: decimal.NewFromInt(5000), TotalAmount: decimal.NewFromInt(5000)}
	draft := models.Billing{InvoiceNumber: "INV-2", ProjectID: live.ID, Status: models.BillingDraft, Amount: decimal.NewFromInt(10), TotalAmount: decimal.NewFromInt(10)}
	hidden := models.Billing{InvoiceNumber: "INV-3", ProjectID: trashed.ID, Status: models.BillingOverdue, Amount: decimal.NewFromInt(10), TotalAmount: decimal.NewFromInt(10)}
	require.NoError(t, db.Create(&open).Error)
	require.NoError(t, db.Create(&draft).Error)
	require.NoError(t, db.Create(&hidden).Error)
	require.NoError(t, db.Create(&models.Collection{CollectionNumber: "COL-1", BillingID: open.ID, ProjectID: live.ID, Amount: decimal.NewFromInt(3000), Status: models.CollectionPartial}).Error)

	alice := seedUser(t, db, "alice", true)
	seedUser(t, db, "bob", false)
	pref := models.DefaultPreference(alice.ID)
	pref.BillingUnpaid = false
	require.NoError(t, NewConfigStore(db).SavePreference(ctx, &pref))

	snap, err := NewRecordStore(db).Snapshot(ctx)
	require.NoError(t, err)

	require.Len(t, snap.Projects, 1)
	assert.Equal(t, live.ID, snap.Projects[0].ID)

	require.Len(t, snap.Billings, 1)
	assert.Equal(t, "INV-1", snap.Billings[0].InvoiceNumber)
	require.Len(t, snap.Billings[0].Collections, 1)
	assert.True(t, snap.Billings[0].Collected().Equal(decimal.NewFromInt(3000)))

	assert.True(t, snap.BilledProjects[live.ID])

	require.Len(t, snap.Users, 1)
	require.NotNil(t, snap.Users[0].Preference)
	assert.False(t, snap.Users[0].Preference.Allows(models.NotifyBillingUnpaid))
}

func TestNotificationStoreDedupIndex(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := NewNotificationStore(db)

	n := &models.Notification{UserID: 1, Type: models.NotifyProjectOverdue, RelatedID: 9, RelatedType: "project", DedupDay: "2024-03-10", Priority: models.PriorityUrgent}
	require.NoError(t, store.Create(ctx, n))

	exists, err := store.ExistsToday(ctx, 1, models.NotifyProjectOverdue, 9, refDay)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsToday(ctx, 1, models.NotifyProjectOverdue, 9, refDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, exists)

	dup := &models.Notification{UserID: 1, Type: models.NotifyProjectOverdue, RelatedID: 9, RelatedType: "project", DedupDay: "2024-03-10"}
	assert.ErrorIs(t, store.Create(ctx, dup), notify.ErrDuplicateNotification)

	otherUser := &models.Notification{UserID: 2, Type: models.NotifyProjectOverdue, RelatedID: 9, RelatedType: "project", DedupDay: "2024-03-10"}
	assert.NoError(t, store.Create(ctx, otherUser))
}

func TestNotificationInbox(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := NewNotificationStore(db)

	for i := uint(1); i <= 3; i++ {
		require.NoError(t, store.Create(ctx, &models.Notification{
			UserID: 1, Type: models.NotifyProjectUnbilled, RelatedID: i, RelatedType: "project", DedupDay: "2024-03-10",
		}))
	}
	require.NoError(t, store.Create(ctx, &models.Notification{
		UserID: 2, Type: models.NotifyProjectUnbilled, RelatedID: 1, RelatedType: "project", DedupDay: "2024-03-10",
	}))

	list, err := store.List(ctx, 1, false, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.NoError(t, store.MarkRead(ctx, 1, list[0].ID))
	assert.ErrorIs(t, store.MarkRead(ctx, 2, list[1].ID), ErrNotificationNotFound)

	unread, total, err := store.Counts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)
	assert.Equal(t, int64(3), total)

	changed, err := store.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	unreadList, err := store.List(ctx, 1, true, 10)
	require.NoError(t, err)
	assert.Empty(t, unreadList)

	require.NoError(t, store.Delete(ctx, 1, list[2].ID))
	assert.ErrorIs(t, store.Delete(ctx, 1, list[2].ID), ErrNotificationNotFound)
}

func TestConfigStoreDefaultsWithoutWriting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := NewConfigStore(db)

	cfg, err := store.NotificationConfig(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, []int{3}, cfg.TimingDays)

	var rows int64
	require.NoError(t, db.Model(&models.CompanyProfile{}).Count(&rows).Error)
	assert.Zero(t, rows)

	profile := models.DefaultCompanyProfile()
	profile.NotifyUnpaid = false
	profile.NotificationTiming = models.TimingCustom
	profile.CustomDays = 10
	require.NoError(t, store.SaveCompanyProfile(ctx, &profile))

	again := models.DefaultCompanyProfile()
	again.NotificationsEnabled = false
	require.NoError(t, store.SaveCompanyProfile(ctx, &again))

	require.NoError(t, db.Model(&models.CompanyProfile{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	cfg, err = store.NotificationConfig(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
}

func TestScanAgainstDatabase(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	project := seedProject(t, db, "P-42", models.ProjectCompleted, refDay.AddDate(0, 0, -2))
	user := seedUser(t, db, "ursula", true)

	scanner := notify.NewScanner(NewRecordStore(db), NewConfigStore(db), NewNotificationStore(db))

	first, err := scanner.Run(ctx, refDay)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := scanner.Run(ctx, refDay.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)

	var stored []models.Notification
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotifyProjectUnbilled, stored[0].Type)
	assert.Equal(t, user.ID, stored[0].UserID)
	assert.Equal(t, project.ID, stored[0].RelatedID)
}

func TestProjectSummary(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := seedProject(t, db, "P-7", models.ProjectOngoing, refDay)
	require.NoError(t, db.Create(&models.Revenue{ProjectID: p.ID, Amount: decimal.NewFromInt(500), Date: refDay}).Error)
	require.NoError(t, db.Create(&models.Expense{ProjectID: p.ID, Amount: decimal.NewFromInt(1200), Date: refDay}).Error)
	sent := models.Billing{InvoiceNumber: "INV-7", ProjectID: p.ID, Status: models.BillingSent, Amount: decimal.NewFromInt(5000), TotalAmount: decimal.NewFromInt(5000)}
	require.NoError(t, db.Create(&sent).Error)
	require.NoError(t, db.Create(&models.Billing{InvoiceNumber: "INV-8", ProjectID: p.ID, Status: models.BillingDraft, Amount: decimal.NewFromInt(999), TotalAmount: decimal.NewFromInt(999)}).Error)
	require.NoError(t, db.Create(&models.Collection{CollectionNumber: "C-7", BillingID: sent.ID, ProjectID: p.ID, Amount: decimal.NewFromInt(3000), Status: models.CollectionPartial}).Error)

	s, err := GetProjectSummary(ctx, db, p.ID)
	require.NoError(t, err)
	assert.True(t, s.Revenue.Equal(decimal.NewFromInt(500)), "revenue %s", s.Revenue)
	assert.True(t, s.Expense.Equal(decimal.NewFromInt(1200)), "expense %s", s.Expense)
	assert.True(t, s.Billed.Equal(decimal.NewFromInt(5000)), "billed %s", s.Billed)
	assert.True(t, s.Collected.Equal(decimal.NewFromInt(3000)), "collected %s", s.Collected)
	assert.True(t, s.Outstanding.Equal(decimal.NewFromInt(2000)), "outstanding %s", s.Outstanding)
	assert.True(t, s.Profit.Equal(decimal.NewFromInt(4300)), "profit %s", s.Profit)

	all, err := GetAllProjectSummaries(ctx, db)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
