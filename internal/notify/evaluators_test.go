package notify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-project-finance/internal/models"
)

var refDay = date(2024, time.March, 10, 9, 30)

func TestDaysUntilUsesCalendarDays(t *testing.T) {
	today := StartOfDay(refDay)

	assert.Equal(t, 1, DaysUntil(today, date(2024, time.March, 11, 0, 1)))
	assert.Equal(t, 1, DaysUntil(today, date(2024, time.March, 11, 23, 59)))
	assert.Equal(t, 0, DaysUntil(today, date(2024, time.March, 10, 23, 59)))
	assert.Equal(t, -1, DaysUntil(today, date(2024, time.March, 9, 12, 0)))
	assert.Equal(t, 22, DaysUntil(today, date(2024, time.April, 1, 0, 0)))
}

func TestEndingSoonBoundary(t *testing.T) {
	today := StartOfDay(refDay)
	users := []models.User{activeUser(1), activeUser(2)}

	tests := []struct {
		name     string
		endDate  time.Time
		expected int
	}{
		{name: "exactly timing days away", endDate: today.AddDate(0, 0, 3).Add(17 * time.Hour), expected: 2},
		{name: "one day more", endDate: today.AddDate(0, 0, 4), expected: 0},
		{name: "one day less", endDate: today.AddDate(0, 0, 2), expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &Snapshot{
				Projects: []models.Project{{ID: 7, Code: "P-7", Name: "Bridge", Status: models.ProjectOngoing, EndDate: tt.endDate}},
				Users:    users,
			}
			got, err := EndingSoon(snap, today, allEnabled(3))
			require.NoError(t, err)
			assert.Len(t, got, tt.expected)
			for _, c := range got {
				assert.Equal(t, models.NotifyProjectEndDate, c.Type)
				assert.Equal(t, uint(7), c.RelatedID)
				assert.Equal(t, models.PriorityMedium, c.Priority)
			}
		})
	}
}

func TestEndingSoonPriorityEscalates(t *testing.T) {
	assert.Equal(t, models.PriorityUrgent, EndingSoonPriority(1))
	assert.Equal(t, models.PriorityHigh, EndingSoonPriority(2))
	assert.Equal(t, models.PriorityMedium, EndingSoonPriority(3))
	assert.Equal(t, models.PriorityMedium, EndingSoonPriority(7))
}

func TestEndingSoonSkipsInactiveAndDeletedProjects(t *testing.T) {
	today := StartOfDay(refDay)
	deletedAt := refDay
	end := today.AddDate(0, 0, 1)
	snap := &Snapshot{
		Projects: []models.Project{
			{ID: 1, Status: models.ProjectCompleted, EndDate: end},
			{ID: 2, Status: models.ProjectCancelled, EndDate: end},
			{ID: 3, Status: models.ProjectPending, EndDate: end, DeletedAt: &deletedAt},
			{ID: 4, Status: models.ProjectPending, EndDate: end},
		},
		Users: []models.User{activeUser(1)},
	}

	got, err := EndingSoon(snap, today, allEnabled(1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint(4), got[0].RelatedID)
	assert.Equal(t, models.PriorityUrgent, got[0].Priority)
}

func TestEndingSoonFailsOnMissingEndDate(t *testing.T) {
	snap := &Snapshot{
		Projects: []models.Project{{ID: 9, Status: models.ProjectOngoing}},
		Users:    []models.User{activeUser(1)},
	}

	_, err := EndingSoon(snap, StartOfDay(refDay), allEnabled(3))
	var evErr *EvaluatorError
	require.ErrorAs(t, err, &evErr)
	assert.Equal(t, uint(9), evErr.EntityID)
}

func TestOverdueIsAlwaysUrgent(t *testing.T) {
	today := StartOfDay(refDay)
	snap := &Snapshot{
		Projects: []models.Project{
			{ID: 1, Status: models.ProjectOngoing, EndDate: today.AddDate(0, 0, -1)},
			{ID: 2, Status: models.ProjectPending, EndDate: today.AddDate(0, -2, 0)},
			{ID: 3, Status: models.ProjectOngoing, EndDate: today.Add(8 * time.Hour)},
			{ID: 4, Status: models.ProjectCompleted, EndDate: today.AddDate(0, 0, -10)},
		},
		Users: []models.User{activeUser(1)},
	}

	got, err := Overdue(snap, today, allEnabled())
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, c := range got {
		assert.Equal(t, models.PriorityUrgent, c.Priority)
		assert.Equal(t, models.NotifyProjectOverdue, c.Type)
	}
	assert.ElementsMatch(t, []uint{1, 2}, []uint{got[0].RelatedID, got[1].RelatedID})
}

func TestUnpaidBillingDetection(t *testing.T) {
	billing := func(id uint, status models.BillingStatus, collected ...int64) models.Billing {
		b := models.Billing{
			ID:            id,
			InvoiceNumber: "INV-1",
			Status:        status,
			TotalAmount:   decimal.NewFromInt(5000),
		}
		for _, amt := range collected {
			b.Collections = append(b.Collections, models.Collection{Amount: decimal.NewFromInt(amt)})
		}
		return b
	}

	snap := &Snapshot{
		Billings: []models.Billing{
			billing(1, models.BillingSent, 1000, 2000),
			billing(2, models.BillingSent, 5000),
			billing(3, models.BillingOverdue, 3000, 2500),
			billing(4, models.BillingOverdue),
			billing(5, models.BillingDraft),
			billing(6, models.BillingPaid, 100),
		},
		Users: []models.User{activeUser(1)},
	}

	got, err := UnpaidBilling(snap, StartOfDay(refDay), allEnabled())
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[uint]Candidate{}
	for _, c := range got {
		byID[c.RelatedID] = c
	}
	assert.Equal(t, models.PriorityHigh, byID[1].Priority)
	assert.Equal(t, models.PriorityUrgent, byID[4].Priority)
	assert.Equal(t, "billing", byID[1].RelatedType)
	assert.Contains(t, byID[1].Message, "2000.00")
}

func TestUnbilledProject(t *testing.T) {
	snap := &Snapshot{
		Projects: []models.Project{
			{ID: 1, Status: models.ProjectCompleted},
			{ID: 2, Status: models.ProjectCompleted},
			{ID: 3, Status: models.ProjectOngoing},
		},
		BilledProjects: map[uint]bool{2: true},
		Users:          []models.User{activeUser(1)},
	}

	got, err := UnbilledProject(snap, StartOfDay(refDay), allEnabled())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].RelatedID)
	assert.Equal(t, models.PriorityMedium, got[0].Priority)
}

func TestFanOutRespectsPreferencesAndActiveFlag(t *testing.T) {
	optedOut := models.DefaultPreference(2)
	optedOut.ProjectUnbilled = false
	otherOptOut := models.DefaultPreference(3)
	otherOptOut.BillingUnpaid = false

	users := []models.User{
		activeUser(1),
		{ID: 2, IsActive: true, Preference: &optedOut},
		{ID: 3, IsActive: true, Preference: &otherOptOut},
		{ID: 4, IsActive: false},
	}

	got := fanOut(users, Candidate{Type: models.NotifyProjectUnbilled, RelatedID: 5})
	ids := make([]uint, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.UserID)
	}
	assert.ElementsMatch(t, []uint{1, 3}, ids)
}
