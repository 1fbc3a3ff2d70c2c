package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"civicwatch/extract"
	"civicwatch/fetch"
	"civicwatch/providers"
	"civicwatch/sources"
	"civicwatch/storage"
)

// ErrRunInProgress is returned when every requested source is already being scraped.
var ErrRunInProgress = errors.New("scraping run already in progress")

// ErrEntityPanic wraps a recovered panic from one source endpoint.
var ErrEntityPanic = errors.New("entity processing panicked")

// RunState is the lifecycle of one orchestrator run.
type RunState string

const (
	RunIdle            RunState = "idle"
	RunRunning         RunState = "running"
	RunCompleted       RunState = "completed"
	RunPartiallyFailed RunState = "partially_failed"
)

// SourceReport is the outcome of one source within a run.
type SourceReport struct {
	Source   string                                     `json:"source"`
	Entities map[sources.EntityType]storage.BatchResult `json:"entities"`
	Failed   []sources.EntityType                       `json:"failed,omitempty"`
}

// RunReport summarises a run.
type RunReport struct {
	StartedAt     time.Time           `json:"started_at"`
	FinishedAt    time.Time           `json:"finished_at"`
	State         RunState            `json:"state"`
	Sources       []SourceReport      `json:"sources"`
	Totals        storage.BatchResult `json:"totals"`
	FailedSources []string            `json:"failed_sources,omitempty"`
	Busy          []string            `json:"busy,omitempty"`
}

// Orchestrator runs the fetch → extract → normalize → write pipeline over the
// registered sources, one source at a time.
type Orchestrator struct {
	registry   *sources.Registry
	pages      *pageFetcher
	writer     *storage.Writer
	candidates map[string]map[sources.EntityType]extract.Candidates
	metrics    *Metrics
	log        *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	busy  map[string]bool
	state RunState
	index int
	last  *RunReport
}

// NewOrchestrator wires the pipeline. archiver may be nil. Rate limits of all registered
// sources are handed to the provider when it supports per-host pacing.
func NewOrchestrator(reg *sources.Registry, provider providers.Provider, retry fetch.Policy, writer *storage.Writer,
	archiver Archiver, metrics *Metrics, log *zap.Logger) *Orchestrator {
	log = log.With(zap.String("component", "orchestrator"))
	o := &Orchestrator{
		registry:   reg,
		writer:     writer,
		candidates: map[string]map[sources.EntityType]extract.Candidates{},
		metrics:    metrics,
		log:        log,
		sleep:      sleepCtx,
		busy:       map[string]bool{},
		state:      RunIdle,
		pages: &pageFetcher{
			provider: provider,
			retry:    retry,
			archiver: archiver,
			log:      log,
			now:      time.Now,
		},
	}
	if retry.OnRetry == nil {
		o.pages.retry.OnRetry = func(err error, delay time.Duration) {
			log.Info("Fetch fehlgeschlagen, neuer Versuch", zap.Duration("delay", delay), zap.Error(err))
		}
	}
	for _, src := range reg.All() {
		o.pages.limit(src)
	}
	return o
}

// UseCandidates overrides the default selector candidates of one source and entity type.
func (o *Orchestrator) UseCandidates(source string, entity sources.EntityType, c extract.Candidates) {
	if o.candidates[source] == nil {
		o.candidates[source] = map[sources.EntityType]extract.Candidates{}
	}
	o.candidates[source][entity] = c
}

func (o *Orchestrator) candidatesFor(source string, entity sources.EntityType) extract.Candidates {
	if c, ok := o.candidates[source][entity]; ok {
		return c
	}
	return extract.DefaultCandidates(entity)
}

// State returns the current run state and, while running, the index of the source
// being processed.
func (o *Orchestrator) State() (RunState, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state, o.index
}

// Running reports whether any source is being scraped.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.busy) > 0
}

// claim marks the sources of list that no other run holds and returns them.
func (o *Orchestrator) claim(list []sources.Source) (free []sources.Source, held []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, src := range list {
		if o.busy[src.Name] {
			held = append(held, src.Name)
			continue
		}
		o.busy[src.Name] = true
		free = append(free, src)
	}
	return free, held
}

func (o *Orchestrator) release(list []sources.Source) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, src := range list {
		delete(o.busy, src.Name)
	}
}

// LastReport returns the report of the most recent finished run.
func (o *Orchestrator) LastReport() (RunReport, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return RunReport{}, false
	}
	return *o.last, true
}

// RunOnce performs one comprehensive scraping run over all government sources.
func (o *Orchestrator) RunOnce(ctx context.Context) (RunReport, error) {
	return o.RunSources(ctx, o.registry.Government())
}

// RunTier runs only the government sources of one crawl-frequency tier.
func (o *Orchestrator) RunTier(ctx context.Context, tier sources.Tier) (RunReport, error) {
	return o.RunSources(ctx, o.registry.GovernmentTier(tier))
}

// RunSources processes list in order. Sources another run is already scraping are left
// to that run and listed under Busy; if that is all of them, ErrRunInProgress is
// returned. A source that fails terminally is recorded and the run moves on. The
// returned error is ErrRunInProgress or ctx.Err() only.
func (o *Orchestrator) RunSources(ctx context.Context, list []sources.Source) (RunReport, error) {
	list, held := o.claim(list)
	defer o.release(list)
	if len(list) == 0 && len(held) > 0 {
		return RunReport{}, ErrRunInProgress
	}

	report := RunReport{StartedAt: time.Now(), State: RunRunning, Busy: held}
	o.setState(RunRunning, 0)
	o.log.Info("Scraping-Lauf gestartet", zap.Int("sources", len(list)), zap.Strings("busy", held))

	var runErr error
	for i, src := range list {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		o.setState(RunRunning, i)

		sr := o.processSource(ctx, src)
		report.Sources = append(report.Sources, sr)
		for _, res := range sr.Entities {
			report.Totals.Add(res)
		}
		if len(sr.Failed) > 0 {
			report.FailedSources = append(report.FailedSources, src.Name)
		}

		if i < len(list)-1 && src.RateLimitPerMinute > 0 {
			if err := o.sleep(ctx, time.Minute/time.Duration(src.RateLimitPerMinute)); err != nil {
				runErr = err
				break
			}
		}
	}

	report.FinishedAt = time.Now()
	report.State = RunCompleted
	if len(report.FailedSources) > 0 {
		report.State = RunPartiallyFailed
	}
	o.mu.Lock()
	o.state = report.State
	o.last = &report
	o.mu.Unlock()

	o.log.Info("Scraping-Lauf beendet",
		zap.String("state", string(report.State)),
		zap.Int("written", report.Totals.Written),
		zap.Int("skipped", report.Totals.Skipped),
		zap.Int("failed", report.Totals.Failed),
		zap.Strings("failed_sources", report.FailedSources),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	return report, runErr
}

func (o *Orchestrator) setState(s RunState, index int) {
	o.mu.Lock()
	o.state = s
	o.index = index
	o.mu.Unlock()
}

// processSource walks the entity types a source provides in EntityOrder, so officials
// are stored before statements try to resolve their speakers.
func (o *Orchestrator) processSource(ctx context.Context, src sources.Source) SourceReport {
	sr := SourceReport{Source: src.Name, Entities: map[sources.EntityType]storage.BatchResult{}}
	log := o.log.With(zap.String("source", src.Name))

	for _, entity := range src.Entities() {
		if entity == sources.EntityNews {
			continue
		}
		res, err := o.processEntity(ctx, src, entity)
		if err != nil {
			sr.Failed = append(sr.Failed, entity)
			if o.metrics != nil {
				o.metrics.FetchFailures.WithLabelValues(src.Name).Inc()
			}
			log.Error("Endpoint endgültig fehlgeschlagen", zap.String("entity", string(entity)), zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		sr.Entities[entity] = res
		if o.metrics != nil {
			o.metrics.observeBatch(string(entity), res.Written, res.Skipped, res.Failed)
		}
		log.Debug("Entity verarbeitet", zap.String("entity", string(entity)),
			zap.Int("written", res.Written), zap.Int("skipped", res.Skipped), zap.Int("failed", res.Failed))
	}
	return sr
}

// processEntity recovers a panic from fetching or parsing into an error for this entity.
func (o *Orchestrator) processEntity(ctx context.Context, src sources.Source, entity sources.EntityType) (res storage.BatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Panik bei der Verarbeitung abgefangen", zap.String("source", src.Name),
				zap.String("entity", string(entity)), zap.Any("panic", r), zap.Stack("stack"))
			res, err = storage.BatchResult{}, fmt.Errorf("%w: %v", ErrEntityPanic, r)
		}
	}()
	url, err := src.EntityURL(entity)
	if err != nil {
		return storage.BatchResult{}, err
	}
	body, err := o.pages.get(ctx, src, entity, url)
	if err != nil {
		return storage.BatchResult{}, err
	}
	recs := extract.Extract(body, entity, o.candidatesFor(src.Name, entity), url)
	if len(recs) == 0 {
		o.log.Warn("Keine Datensätze extrahiert", zap.String("source", src.Name), zap.String("entity", string(entity)), zap.String("url", url))
		return storage.BatchResult{}, nil
	}
	return storeRecords(ctx, o.writer, entity, recs, src), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
