package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"civicwatch/enrich"
	"civicwatch/extract"
	"civicwatch/fetch"
	"civicwatch/normalize"
	"civicwatch/providers"
	"civicwatch/sources"
	"civicwatch/storage"
)

// DefaultTopicWindow is how far back articles count towards topic comparisons.
const DefaultTopicWindow = 7 * 24 * time.Hour

// NewsReport summarises one news ingestion run.
type NewsReport struct {
	Outlets       int      `json:"outlets"`
	Found         int      `json:"found"`
	Stored        int      `json:"stored"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	Enriched      int      `json:"enriched"`
	Fallback      int      `json:"fallback"`
	Topics        int      `json:"topics"`
	FailedOutlets []string `json:"failed_outlets,omitempty"`

	classified int
}

// NewsService scrapes the politics sections of the registered news outlets, stores new
// articles, labels them inline and refreshes the topic comparisons.
type NewsService struct {
	registry    *sources.Registry
	pages       *pageFetcher
	writer      *storage.Writer
	classifier  ArticleClassifier
	metrics     *Metrics
	log         *zap.Logger
	topicWindow time.Duration
	llmDelay    time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time

	running atomic.Bool
}

// NewNewsService wires the news pipeline. classifier may be nil, in which case new
// articles stay pending for the enrichment sweep.
func NewNewsService(reg *sources.Registry, provider providers.Provider, retry fetch.Policy, writer *storage.Writer,
	archiver Archiver, classifier ArticleClassifier, metrics *Metrics, log *zap.Logger) *NewsService {
	log = log.With(zap.String("component", "news"))
	s := &NewsService{
		registry:    reg,
		writer:      writer,
		classifier:  classifier,
		metrics:     metrics,
		log:         log,
		topicWindow: DefaultTopicWindow,
		llmDelay:    enrich.DefaultCallDelay,
		sleep:       sleepCtx,
		now:         time.Now,
		pages: &pageFetcher{
			provider: provider,
			retry:    retry,
			archiver: archiver,
			log:      log,
			now:      time.Now,
		},
	}
	for _, src := range reg.News() {
		s.pages.limit(src)
	}
	return s
}

// SetClassifyDelay sets the pause between the inline classifications of one run.
func (s *NewsService) SetClassifyDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.llmDelay = d
}

// Running reports whether a news run is in flight.
func (s *NewsService) Running() bool {
	return s.running.Load()
}

// Run processes every news outlet once. It returns ErrRunInProgress when a run is
// already active and ctx.Err() when cancelled; outlet failures only show in the report.
func (s *NewsService) Run(ctx context.Context) (NewsReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return NewsReport{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	var rep NewsReport
	outlets := s.registry.News()
	for i, src := range outlets {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Outlets++
		if err := s.processOutlet(ctx, src, &rep); err != nil {
			rep.FailedOutlets = append(rep.FailedOutlets, src.Name)
			if s.metrics != nil {
				s.metrics.FetchFailures.WithLabelValues(src.Name).Inc()
			}
			s.log.Error("Nachrichtenquelle fehlgeschlagen", zap.String("source", src.Name), zap.Error(err))
		}
		if i < len(outlets)-1 && src.RateLimitPerMinute > 0 {
			if err := s.sleep(ctx, time.Minute/time.Duration(src.RateLimitPerMinute)); err != nil {
				return rep, err
			}
		}
	}

	n, err := s.RefreshTopics(ctx)
	if err != nil {
		s.log.Error("Themenvergleich fehlgeschlagen", zap.Error(err))
	}
	rep.Topics = n

	if s.metrics != nil {
		s.metrics.observeBatch(string(sources.EntityNews), rep.Stored, rep.Skipped, rep.Failed)
	}
	s.log.Info("News-Lauf beendet",
		zap.Int("outlets", rep.Outlets), zap.Int("found", rep.Found), zap.Int("stored", rep.Stored),
		zap.Int("enriched", rep.Enriched), zap.Int("fallback", rep.Fallback), zap.Int("topics", rep.Topics))
	return rep, nil
}

func (s *NewsService) processOutlet(ctx context.Context, src sources.Source, rep *NewsReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Panik bei der Verarbeitung abgefangen", zap.String("source", src.Name), zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("%w: %v", ErrEntityPanic, r)
		}
	}()
	listURL, err := src.EntityURL(sources.EntityNews)
	if err != nil {
		return err
	}
	body, err := s.pages.get(ctx, src, sources.EntityNews, listURL)
	if err != nil {
		return err
	}

	recs := extract.Extract(body, sources.EntityNews, extract.DefaultCandidates(sources.EntityNews), listURL)
	rep.Found += len(recs)
	for _, rec := range recs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.ingest(ctx, rec, src, rep)
	}
	return nil
}

func (s *NewsService) ingest(ctx context.Context, rec extract.RawRecord, src sources.Source, rep *NewsReport) {
	art, err := normalize.Article(rec, src)
	if err != nil {
		rep.Skipped++
		return
	}
	if _, err := s.writer.ArticleByURL(ctx, art.URL); err == nil {
		rep.Skipped++
		return
	} else if !storage.IsNotFound(err) {
		rep.Failed++
		s.log.Warn("Artikel-Lookup fehlgeschlagen", zap.String("url", art.URL), zap.Error(err))
		return
	}

	// Volltext ist optional, die Listenansicht reicht als Fallback.
	if page, err := s.pages.provider.Fetch(ctx, art.URL, src.Headers); err == nil {
		if text := normalize.CleanText(extract.ArticleBody(page)); text != "" {
			art.Content = text
			art.Topic = normalize.InferTopic(art.Title, art.Content)
		}
	} else {
		s.log.Debug("Artikeltext nicht geladen", zap.String("url", art.URL), zap.Error(err))
	}

	if err := s.writer.InsertArticleIfAbsent(ctx, &art); err != nil {
		if storage.IsSkip(err) {
			rep.Skipped++
			return
		}
		rep.Failed++
		s.log.Warn("Artikel konnte nicht gespeichert werden", zap.String("url", art.URL), zap.Error(err))
		return
	}
	rep.Stored++

	if s.classifier == nil {
		return
	}
	// Pause zwischen den LLM-Aufrufen aufeinanderfolgender Artikel
	if rep.classified > 0 {
		if err := s.sleep(ctx, s.llmDelay); err != nil {
			return
		}
	}
	rep.classified++
	labels := s.classifier.Classify(ctx, articleInput(art))
	applyLabels(&art, labels)
	if err := s.writer.ApplyEnrichment(ctx, &art); err != nil {
		s.log.Warn("Inline-Anreicherung nicht gespeichert", zap.Uint("article_id", art.ID), zap.Error(err))
		return
	}
	if labels.Fallback {
		rep.Fallback++
	} else {
		rep.Enriched++
	}
	if s.metrics != nil {
		s.metrics.ArticlesEnriched.WithLabelValues(art.EnrichmentStatus).Inc()
	}
}

// RefreshTopics recomputes the topic comparisons over the recent articles and returns
// how many topics were written.
func (s *NewsService) RefreshTopics(ctx context.Context) (int, error) {
	articles, err := s.writer.ArticlesSince(ctx, s.now().Add(-s.topicWindow))
	if err != nil {
		return 0, err
	}
	var errs []error
	n := 0
	for _, tc := range ComputeTopicComparisons(articles) {
		if err := s.writer.UpsertTopicComparison(ctx, &tc); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}
