package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"go-project-finance/internal/logger"
)

// Runner is anything that can run a scan for a reference date.
type Runner interface {
	Run(ctx context.Context, referenceDate time.Time) (RunResult, error)
}

// Scheduler fires the scan on every tick. A tick that arrives while the previous
// run is still going is skipped, never queued, and every run gets its own timeout.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	timeout  time.Duration
	running  atomic.Bool
	last     atomic.Pointer[RunStatus]
	wg       sync.WaitGroup
	done     chan struct{}
	log      zerolog.Logger
}

// RunStatus describes the most recent finished scan.
type RunStatus struct {
	ReferenceDate time.Time `json:"reference_date"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Result        RunResult `json:"result"`
	Error         string    `json:"error,omitempty"`
}

func NewScheduler(runner Runner, interval, timeout time.Duration) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		timeout:  timeout,
		done:     make(chan struct{}),
		log:      logger.WithComponent("scheduler"),
	}
}

// Start scans once right away, then on every interval until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		s.fire(ctx, time.Now())
		s.Loop(ctx, ticker.C)
	}()
	s.log.Info().Dur("interval", s.interval).Dur("timeout", s.timeout).Msg("scheduler started")
}

// Loop consumes ticks until ctx is done or ticks is closed, then waits for the
// in-flight run. It must run on the goroutine that fires, and only once.
func (s *Scheduler) Loop(ctx context.Context, ticks <-chan time.Time) {
	defer close(s.done)
	defer s.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-ticks:
			if !ok {
				return
			}
			s.fire(ctx, t)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, t time.Time) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Time("tick", t).Msg("previous scan still running, skipping tick")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		_, _ = s.execute(ctx, t)
	}()
}

// RunNow runs a scan synchronously, unless one is already in flight.
func (s *Scheduler) RunNow(ctx context.Context, referenceDate time.Time) (RunResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return RunResult{}, ErrScanInProgress
	}
	defer s.running.Store(false)
	return s.execute(ctx, referenceDate)
}

// Running reports whether a scan is in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// LastRun returns the status of the latest finished scan, if any.
func (s *Scheduler) LastRun() (RunStatus, bool) {
	st := s.last.Load()
	if st == nil {
		return RunStatus{}, false
	}
	return *st, true
}

// Wait blocks until Loop has returned and its last scan has finished.
func (s *Scheduler) Wait() {
	<-s.done
}

func (s *Scheduler) execute(ctx context.Context, referenceDate time.Time) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.runner.Run(ctx, referenceDate)
	st := &RunStatus{ReferenceDate: referenceDate, StartedAt: start, FinishedAt: time.Now(), Result: result}
	if err != nil {
		st.Error = err.Error()
	}
	s.last.Store(st)
	if err != nil {
		s.log.Error().Err(err).
			Int("created", result.Created).
			Dur("elapsed", time.Since(start)).
			Msg("notification scan failed")
		return result, err
	}
	s.log.Info().
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("notification scan completed")
	return result, nil
}
