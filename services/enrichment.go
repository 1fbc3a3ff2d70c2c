package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"civicwatch/enrich"
	"civicwatch/models"
	"civicwatch/storage"
)

// ArticleClassifier labels article text. *enrich.Classifier implements it.
type ArticleClassifier interface {
	Classify(ctx context.Context, in enrich.ArticleInput) enrich.Labels
	ClassifyBatch(ctx context.Context, inputs []enrich.ArticleInput) []enrich.Labels
}

// EnrichmentReport counts the outcome of one sweep.
type EnrichmentReport struct {
	Enriched int `json:"enriched"`
	Fallback int `json:"fallback"`
	Failed   int `json:"failed"`
}

// EnrichmentService labels stored articles that are still pending or fell back to
// default labels on an earlier attempt.
type EnrichmentService struct {
	writer     *storage.Writer
	classifier ArticleClassifier
	batchSize  int
	metrics    *Metrics
	log        *zap.Logger
}

func NewEnrichmentService(writer *storage.Writer, classifier ArticleClassifier, batchSize int, metrics *Metrics, log *zap.Logger) *EnrichmentService {
	if batchSize <= 0 {
		batchSize = 25
	}
	return &EnrichmentService{
		writer:     writer,
		classifier: classifier,
		batchSize:  batchSize,
		metrics:    metrics,
		log:        log.With(zap.String("component", "enrichment")),
	}
}

// Sweep classifies one batch of unenriched articles and stores the labels.
func (s *EnrichmentService) Sweep(ctx context.Context) (EnrichmentReport, error) {
	var rep EnrichmentReport
	articles, err := s.writer.PendingArticles(ctx, s.batchSize)
	if err != nil {
		return rep, fmt.Errorf("load pending articles: %w", err)
	}
	if len(articles) == 0 {
		return rep, nil
	}

	inputs := make([]enrich.ArticleInput, len(articles))
	for i, a := range articles {
		inputs[i] = articleInput(a)
	}
	labels := s.classifier.ClassifyBatch(ctx, inputs)

	for i := range articles {
		a := &articles[i]
		applyLabels(a, labels[i])
		if err := s.writer.ApplyEnrichment(ctx, a); err != nil {
			rep.Failed++
			s.log.Error("Speichern der Anreicherung fehlgeschlagen", zap.Uint("article_id", a.ID), zap.Error(err))
			continue
		}
		if labels[i].Fallback {
			rep.Fallback++
		} else {
			rep.Enriched++
		}
		s.observe(labels[i])
	}

	s.log.Info("Anreicherungslauf beendet",
		zap.Int("enriched", rep.Enriched), zap.Int("fallback", rep.Fallback), zap.Int("failed", rep.Failed))
	return rep, nil
}

func (s *EnrichmentService) observe(l enrich.Labels) {
	if s.metrics == nil {
		return
	}
	status := models.EnrichmentEnriched
	if l.Fallback {
		status = models.EnrichmentFallback
	}
	s.metrics.ArticlesEnriched.WithLabelValues(status).Inc()
}

func articleInput(a models.Article) enrich.ArticleInput {
	return enrich.ArticleInput{Title: a.Title, Source: a.Source, Content: a.Content}
}

// applyLabels copies a classification onto the article and sets its enrichment status.
func applyLabels(a *models.Article, l enrich.Labels) {
	a.CredibilityScore = l.CredibilityScore
	a.SentimentScore = l.SentimentScore
	a.BiasRating = l.BiasRating
	a.KeyTopics = datatypes.JSONSlice[string](nonNil(l.KeyTopics))
	a.PropagandaTechniques = datatypes.JSONSlice[string](nonNil(l.PropagandaTechniques))
	a.Claims = datatypes.JSONSlice[string](nonNil(l.Claims))
	a.FactualityScore = l.FactualityScore
	a.EmotionalTone = l.EmotionalTone
	a.Summary = l.Summary
	a.PoliticalImpact = l.PoliticalImpact
	a.PublicImpact = l.PublicImpact
	a.FactCheck = l.FactCheck

	a.EnrichmentStatus = models.EnrichmentEnriched
	if l.Fallback {
		a.EnrichmentStatus = models.EnrichmentFallback
	}
	now := time.Now().UTC()
	a.EnrichedAt = &now
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
