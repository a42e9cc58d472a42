package notify

import (
	"errors"
	"fmt"
	"time"

	"go-project-finance/internal/models"
)

var errMissingEndDate = errors.New("project has no end date")

// Evaluator is one condition rule. Eval must not touch anything but its arguments.
type Evaluator struct {
	Name string
	Type models.NotificationType
	Eval func(snap *Snapshot, today time.Time, cfg Config) ([]Candidate, error)
}

// Evaluators are the four rules a scan runs.
var Evaluators = []Evaluator{
	{Name: "ending_soon", Type: models.NotifyProjectEndDate, Eval: EndingSoon},
	{Name: "overdue", Type: models.NotifyProjectOverdue, Eval: Overdue},
	{Name: "unpaid_billing", Type: models.NotifyBillingUnpaid, Eval: UnpaidBilling},
	{Name: "unbilled_project", Type: models.NotifyProjectUnbilled, Eval: UnbilledProject},
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysUntil counts calendar days from today to end, in today's location. The clock
// time of end does not matter: 00:01 and 23:59 tomorrow are both one day away.
func DaysUntil(today, end time.Time) int {
	ty, tm, td := today.Date()
	ey, em, ed := end.In(today.Location()).Date()
	from := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	to := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}

// EndingSoonPriority escalates as the end date gets closer.
func EndingSoonPriority(days int) models.Priority {
	switch {
	case days <= 1:
		return models.PriorityUrgent
	case days == 2:
		return models.PriorityHigh
	}
	return models.PriorityMedium
}

// EndingSoon fires for running projects whose end date is exactly one of the
// configured day counts away.
func EndingSoon(snap *Snapshot, today time.Time, cfg Config) ([]Candidate, error) {
	var out []Candidate
	for _, p := range snap.Projects {
		if p.IsDeleted() || !p.Status.Active() {
			continue
		}
		if p.EndDate.IsZero() {
			return nil, &EvaluatorError{Evaluator: "ending_soon", EntityID: p.ID, Err: errMissingEndDate}
		}
		days := DaysUntil(today, p.EndDate)
		if days < 0 || !cfg.Timing(days) {
			continue
		}
		out = append(out, fanOut(snap.Users, Candidate{
			Type:        models.NotifyProjectEndDate,
			RelatedID:   p.ID,
			RelatedType: "project",
			Title:       "Project ending soon",
			Message: fmt.Sprintf("Project %s (%s) ends in %d day(s) on %s.",
				p.Name, p.Code, days, p.EndDate.Format("2006-01-02")),
			Priority: EndingSoonPriority(days),
		})...)
	}
	return out, nil
}

// Overdue fires every day for running projects past their end date.
func Overdue(snap *Snapshot, today time.Time, _ Config) ([]Candidate, error) {
	var out []Candidate
	for _, p := range snap.Projects {
		if p.IsDeleted() || !p.Status.Active() {
			continue
		}
		if p.EndDate.IsZero() {
			return nil, &EvaluatorError{Evaluator: "overdue", EntityID: p.ID, Err: errMissingEndDate}
		}
		days := DaysUntil(today, p.EndDate)
		if days >= 0 {
			continue
		}
		out = append(out, fanOut(snap.Users, Candidate{
			Type:        models.NotifyProjectOverdue,
			RelatedID:   p.ID,
			RelatedType: "project",
			Title:       "Project overdue",
			Message: fmt.Sprintf("Project %s (%s) passed its end date %s by %d day(s) and is still %s.",
				p.Name, p.Code, p.EndDate.Format("2006-01-02"), -days, p.Status),
			Priority: models.PriorityUrgent,
		})...)
	}
	return out, nil
}

// UnpaidBilling fires for sent or overdue billings that collections do not cover yet.
func UnpaidBilling(snap *Snapshot, _ time.Time, _ Config) ([]Candidate, error) {
	var out []Candidate
	for i := range snap.Billings {
		b := &snap.Billings[i]
		if b.Status != models.BillingSent && b.Status != models.BillingOverdue {
			continue
		}
		if b.Project != nil && b.Project.IsDeleted() {
			continue
		}
		collected := b.Collected()
		if collected.GreaterThanOrEqual(b.TotalAmount) {
			continue
		}
		priority := models.PriorityHigh
		if b.Status == models.BillingOverdue {
			priority = models.PriorityUrgent
		}
		out = append(out, fanOut(snap.Users, Candidate{
			Type:        models.NotifyBillingUnpaid,
			RelatedID:   b.ID,
			RelatedType: "billing",
			Title:       "Billing not fully paid",
			Message: fmt.Sprintf("Invoice %s has %s outstanding of %s (due %s).",
				b.InvoiceNumber, b.TotalAmount.Sub(collected).StringFixed(2),
				b.TotalAmount.StringFixed(2), b.DueDate.Format("2006-01-02")),
			Priority: priority,
		})...)
	}
	return out, nil
}

// UnbilledProject fires for completed projects that never got a billing.
func UnbilledProject(snap *Snapshot, _ time.Time, _ Config) ([]Candidate, error) {
	var out []Candidate
	for _, p := range snap.Projects {
		if p.IsDeleted() || p.Status != models.ProjectCompleted {
			continue
		}
		if snap.BilledProjects[p.ID] {
			continue
		}
		out = append(out, fanOut(snap.Users, Candidate{
			Type:        models.NotifyProjectUnbilled,
			RelatedID:   p.ID,
			RelatedType: "project",
			Title:       "Completed project not billed",
			Message:     fmt.Sprintf("Project %s (%s) is completed but has no billing yet.", p.Name, p.Code),
			Priority:    models.PriorityMedium,
		})...)
	}
	return out, nil
}

// fanOut copies base once per user that is active and has not opted out of its type.
func fanOut(users []models.User, base Candidate) []Candidate {
	out := make([]Candidate, 0, len(users))
	for _, u := range users {
		if !u.IsActive || !u.Preference.Allows(base.Type) {
			continue
		}
		c := base
		c.UserID = u.ID
		out = append(out, c)
	}
	return out
}
