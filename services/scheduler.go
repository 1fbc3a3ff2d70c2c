package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is one unit of scheduled work.
type JobFunc func(ctx context.Context) error

// Scheduler runs the pipeline jobs on cron schedules. A job still running when its next
// tick arrives is skipped, and a panicking job is recovered and logged.
type Scheduler struct {
	cron    *cron.Cron
	metrics *Metrics
	log     *zap.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	startup *time.Timer
	wg      sync.WaitGroup
}

func NewScheduler(metrics *Metrics, log *zap.Logger) *Scheduler {
	log = log.With(zap.String("component", "scheduler"))
	cl := cronLogger{log: log.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		metrics: metrics,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers a job under a cron spec such as "@every 2h" or "0 3 * * *".
func (s *Scheduler) Add(name, spec string, job JobFunc) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.log.Info("Job eingeplant", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Start starts the cron loop and, after delay, runs the startup job once.
func (s *Scheduler) Start(delay time.Duration, name string, startup JobFunc) {
	s.cron.Start()
	if startup == nil {
		return
	}
	s.mu.Lock()
	s.wg.Add(1)
	s.startup = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.run(name, startup)
	})
	s.mu.Unlock()
}

// Stop cancels running jobs and waits for them to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.startup != nil && s.startup.Stop() {
		s.wg.Done()
	}
	s.mu.Unlock()

	s.cancel()
	done := make(chan struct{})
	go func() {
		<-s.cron.Stop().Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(name string, job JobFunc) {
	start := time.Now()
	err := job(s.ctx)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RunDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
	switch {
	case err == nil:
		if s.metrics != nil {
			s.metrics.LastRunSuccess.WithLabelValues(name).SetToCurrentTime()
		}
		s.log.Info("Job abgeschlossen", zap.String("job", name), zap.Duration("duration", elapsed))
	case errors.Is(err, ErrRunInProgress):
		s.log.Info("Job übersprungen, Lauf aktiv", zap.String("job", name))
	case errors.Is(err, context.Canceled):
		s.log.Info("Job abgebrochen", zap.String("job", name))
	default:
		s.log.Error("Job fehlgeschlagen", zap.String("job", name), zap.Duration("duration", elapsed), zap.Error(err))
	}
}

// cronLogger routes robfig/cron logs into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
