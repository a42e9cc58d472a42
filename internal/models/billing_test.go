package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBillingTotalSubtractsTax(t *testing.T) {
	total := BillingTotal(decimal.NewFromInt(1000), decimal.NewFromInt(100), nil)
	assert.True(t, total.Equal(decimal.NewFromInt(900)), "got %s", total)
}

func TestBillingTotalKeepsExplicitValue(t *testing.T) {
	explicit := decimal.NewFromInt(1100)
	total := BillingTotal(decimal.NewFromInt(1000), decimal.NewFromInt(100), &explicit)
	assert.True(t, total.Equal(explicit), "got %s", total)
}

func TestBillingFullyCollected(t *testing.T) {
	tests := []struct {
		name        string
		collections []int64
		want        bool
	}{
		{name: "nothing collected", collections: nil, want: false},
		{name: "partially collected", collections: []int64{1000, 2000}, want: false},
		{name: "exactly collected", collections: []int64{3000, 2000}, want: true},
		{name: "over collected", collections: []int64{6000}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Billing{TotalAmount: decimal.NewFromInt(5000)}
			for _, amt := range tt.collections {
				b.Collections = append(b.Collections, Collection{Amount: decimal.NewFromInt(amt)})
			}
			assert.Equal(t, tt.want, b.FullyCollected())
		})
	}
}

func TestPreferenceAllows(t *testing.T) {
	var missing *NotificationPreference
	assert.True(t, missing.Allows(NotifyBillingUnpaid))

	pref := DefaultPreference(1)
	pref.ProjectUnbilled = false
	assert.False(t, pref.Allows(NotifyProjectUnbilled))
	assert.True(t, pref.Allows(NotifyProjectOverdue))
}

func TestCompanyProfileTimingDays(t *testing.T) {
	tests := []struct {
		timing string
		custom int
		want   []int
	}{
		{TimingOneDay, 0, []int{1}},
		{TimingThreeDays, 0, []int{3}},
		{TimingSevenDays, 0, []int{7}},
		{TimingCustom, 10, []int{10}},
		{TimingCustom, 0, nil},
		{"weird", 0, []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.timing, func(t *testing.T) {
			c := CompanyProfile{NotificationTiming: tt.timing, CustomDays: tt.custom}
			assert.Equal(t, tt.want, c.TimingDays())
		})
	}
}

func TestProjectStatusActive(t *testing.T) {
	assert.True(t, ProjectPending.Active())
	assert.True(t, ProjectOngoing.Active())
	assert.False(t, ProjectCompleted.Active())
	assert.False(t, ProjectCancelled.Active())
	assert.False(t, ProjectStatus("closed").Valid())
}
