package notify

import (
	"context"
	"time"
)

// Filter drops candidates that were already delivered on the same day.
type Filter struct {
	sink Sink
}

func NewFilter(sink Sink) *Filter {
	return &Filter{sink: sink}
}

// Accept reports whether c is new for day. The sink's unique index backs this
// check up when two scans race between the lookup and the insert.
func (f *Filter) Accept(ctx context.Context, c Candidate, day time.Time) (bool, error) {
	exists, err := f.sink.ExistsToday(ctx, c.UserID, c.Type, c.RelatedID, StartOfDay(day))
	if err != nil {
		return false, err
	}
	return !exists, nil
}
