package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"go-project-finance/internal/logger"
)

// Scanner runs one end-to-end notification scan.
type Scanner struct {
	records    RecordSource
	configs    ConfigSource
	sink       Sink
	filter     *Filter
	evaluators []Evaluator
	now        func() time.Time
	log        zerolog.Logger
}

func NewScanner(records RecordSource, configs ConfigSource, sink Sink) *Scanner {
	return &Scanner{
		records:    records,
		configs:    configs,
		sink:       sink,
		filter:     NewFilter(sink),
		evaluators: Evaluators,
		now:        time.Now,
		log:        logger.WithComponent("notify"),
	}
}

// WithEvaluators swaps the rule set. Tests use it to inject failing rules.
func (s *Scanner) WithEvaluators(evs []Evaluator) *Scanner {
	s.evaluators = evs
	return s
}

// Run evaluates every enabled rule against the records as of referenceDate and
// stores the candidates that survive the same-day dedup check. A failing rule is
// logged and reported in RunResult.Errors; only load failures, cancellation and
// timeouts come back as an error.
func (s *Scanner) Run(ctx context.Context, referenceDate time.Time) (RunResult, error) {
	var result RunResult
	today := StartOfDay(referenceDate)

	cfg, err := s.configs.NotificationConfig(ctx)
	if err != nil {
		return result, fmt.Errorf("load notification config: %w", err)
	}
	if !cfg.Enabled {
		s.log.Info().Msg("notifications are disabled, skipping scan")
		return result, nil
	}

	var active []Evaluator
	for _, ev := range s.evaluators {
		if cfg.CategoryEnabled(ev.Type) {
			active = append(active, ev)
		}
	}
	if len(active) == 0 {
		s.log.Info().Msg("every notification category is disabled, skipping scan")
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return result, s.interrupted(result, err)
	}
	snap, err := s.records.Snapshot(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, s.interrupted(result, ctxErr)
		}
		return result, fmt.Errorf("load scan records: %w", err)
	}

	batches := make([][]Candidate, len(active))
	failures := make([]error, len(active))
	var g errgroup.Group
	for i, ev := range active {
		g.Go(func() error {
			batches[i], failures[i] = runEvaluator(ev, snap, today, cfg)
			return nil
		})
	}
	_ = g.Wait()

	var candidates []Candidate
	for i, ev := range active {
		if failures[i] != nil {
			s.log.Error().Err(failures[i]).Str("evaluator", ev.Name).Msg("evaluator failed, dropping its candidates")
			result.Errors = append(result.Errors, failures[i].Error())
			continue
		}
		candidates = append(candidates, batches[i]...)
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Priority.Rank() > candidates[b].Priority.Rank()
	})

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return result, s.interrupted(result, err)
		}
		created, err := s.deliver(ctx, c, today)
		switch {
		case err != nil:
			s.log.Error().Err(err).
				Uint("user_id", c.UserID).Str("type", string(c.Type)).Uint("related_id", c.RelatedID).
				Msg("failed to store notification")
			result.Errors = append(result.Errors, err.Error())
		case created:
			result.Created++
		default:
			result.Skipped++
		}
	}

	s.log.Info().
		Str("day", today.Format("2006-01-02")).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("notification scan finished")
	return result, nil
}

func (s *Scanner) deliver(ctx context.Context, c Candidate, today time.Time) (bool, error) {
	ok, err := s.filter.Accept(ctx, c, today)
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := s.sink.Create(ctx, c.Notification(today, s.now())); err != nil {
		if errors.Is(err, ErrDuplicateNotification) {
			return false, nil
		}
		return false, fmt.Errorf("create notification: %w", err)
	}
	return true, nil
}

func (s *Scanner) interrupted(result RunResult, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ScanTimeoutError{Partial: result}
	}
	return err
}

// runEvaluator isolates one rule so that an error or a panic only costs its own
// candidates.
func runEvaluator(ev Evaluator, snap *Snapshot, today time.Time, cfg Config) (out []Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &EvaluatorError{Evaluator: ev.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	out, err = ev.Eval(snap, today, cfg)
	if err != nil {
		var evErr *EvaluatorError
		if !errors.As(err, &evErr) {
			err = &EvaluatorError{Evaluator: ev.Name, Err: err}
		}
		return nil, err
	}
	return out, nil
}
