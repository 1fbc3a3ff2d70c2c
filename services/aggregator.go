package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"civicwatch/models"
	"civicwatch/storage"
)

// Bucket is one row of a grouped count or average.
type Bucket struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// Snapshot is the payload of an AnalyticsSnapshot row.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`

	Counts                map[string]int64 `json:"counts"`
	PartyDistribution     []Bucket         `json:"party_distribution"`
	JurisdictionBreakdown []Bucket         `json:"jurisdiction_breakdown"`
	LevelBreakdown        []Bucket         `json:"level_breakdown"`
	BillCategories        []Bucket         `json:"bill_categories"`
	BiasDistribution      []Bucket         `json:"bias_distribution"`
	TopicFrequency        []Bucket         `json:"topic_frequency"`
	SourceCredibility     []Bucket         `json:"source_credibility"`
	AverageCredibility    float64          `json:"average_credibility"`
	AverageFactuality     float64          `json:"average_factuality"`
	AverageSentiment      float64          `json:"average_sentiment"`
	TrustScoresUpdated    int              `json:"trust_scores_updated"`
	Errors                []string         `json:"errors,omitempty"`
}

var countedTables = []string{
	"officials", "bills", "voting_records", "statements", "committees",
	"election_records", "articles", "topic_comparisons",
}

// Aggregator recomputes analytics from the store. It reads everything and writes only
// the snapshot row and the officials' trust scores.
type Aggregator struct {
	writer *storage.Writer
	trust  *TrustScorer
	log    *zap.Logger
	now    func() time.Time
}

// NewAggregator creates an aggregator. trust may be nil to skip the trust recompute.
func NewAggregator(writer *storage.Writer, trust *TrustScorer, log *zap.Logger) *Aggregator {
	return &Aggregator{
		writer: writer,
		trust:  trust,
		log:    log.With(zap.String("component", "aggregator")),
		now:    time.Now,
	}
}

// Recompute builds and stores a new snapshot. A failing section is logged, listed under
// Errors and left empty; only a failed snapshot write is returned as error.
func (a *Aggregator) Recompute(ctx context.Context) (models.AnalyticsSnapshot, error) {
	snap := Snapshot{GeneratedAt: a.now().UTC(), Counts: map[string]int64{}}
	fail := func(section string, err error) {
		a.log.Warn("Analytics-Abschnitt fehlgeschlagen", zap.String("section", section), zap.Error(err))
		snap.Errors = append(snap.Errors, fmt.Sprintf("%s: %v", section, err))
	}

	for _, table := range countedTables {
		n, err := a.count(ctx, table)
		if err != nil {
			fail("count "+table, err)
			continue
		}
		snap.Counts[table] = n
	}

	sections := []struct {
		name  string
		query sq.SelectBuilder
		into  *[]Bucket
	}{
		{"party_distribution", groupCount("officials", "party"), &snap.PartyDistribution},
		{"jurisdiction_breakdown", groupCount("officials", "jurisdiction"), &snap.JurisdictionBreakdown},
		{"level_breakdown", groupCount("officials", "level"), &snap.LevelBreakdown},
		{"bill_categories", groupCount("bills", "category"), &snap.BillCategories},
		{"bias_distribution", groupCount("articles", "bias_rating").Where(sq.Eq{"enrichment_status": models.EnrichmentEnriched}), &snap.BiasDistribution},
		{"topic_frequency", groupCount("articles", "topic"), &snap.TopicFrequency},
		{"source_credibility", sq.Select("source AS label", "AVG(credibility_score) AS total").
			From("articles").
			Where(sq.Eq{"enrichment_status": models.EnrichmentEnriched}).
			GroupBy("source").
			OrderBy("total DESC"), &snap.SourceCredibility},
	}
	for _, s := range sections {
		buckets, err := a.buckets(ctx, s.query)
		if err != nil {
			fail(s.name, err)
			continue
		}
		*s.into = buckets
	}

	var avg struct {
		Credibility float64
		Factuality  float64
		Sentiment   float64
	}
	avgQuery := sq.Select(
		"COALESCE(AVG(credibility_score), 0) AS credibility",
		"COALESCE(AVG(factuality_score), 0) AS factuality",
		"COALESCE(AVG(sentiment_score), 0) AS sentiment",
	).From("articles").Where(sq.Eq{"enrichment_status": models.EnrichmentEnriched})
	if err := a.scan(ctx, avgQuery, &avg); err != nil {
		fail("averages", err)
	} else {
		snap.AverageCredibility = round2(avg.Credibility)
		snap.AverageFactuality = round2(avg.Factuality)
		snap.AverageSentiment = round2(avg.Sentiment)
	}

	if a.trust != nil {
		n, err := a.trust.Recompute(ctx)
		if err != nil {
			fail("trust_scores", err)
		}
		snap.TrustScoresUpdated = n
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return models.AnalyticsSnapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}
	row := models.AnalyticsSnapshot{GeneratedAt: snap.GeneratedAt, Payload: datatypes.JSON(payload)}
	if err := a.writer.SaveSnapshot(ctx, &row); err != nil {
		return models.AnalyticsSnapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	a.log.Info("Analytics-Snapshot gespeichert", zap.Uint("id", row.ID), zap.Int("errors", len(snap.Errors)))
	return row, nil
}

// groupCount counts rows per non-empty value of col.
func groupCount(table, col string) sq.SelectBuilder {
	return sq.Select(col+" AS label", "COUNT(*) AS total").
		From(table).
		Where(sq.And{sq.NotEq{col: nil}, sq.NotEq{col: ""}}).
		GroupBy(col).
		OrderBy("total DESC", "label")
}

func (a *Aggregator) count(ctx context.Context, table string) (int64, error) {
	var n struct{ Total int64 }
	err := a.scan(ctx, sq.Select("COUNT(*) AS total").From(table), &n)
	return n.Total, err
}

func (a *Aggregator) buckets(ctx context.Context, q sq.SelectBuilder) ([]Bucket, error) {
	out := []Bucket{}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	err = a.writer.DB().WithContext(ctx).Raw(query, args...).Scan(&out).Error
	return out, err
}

func (a *Aggregator) scan(ctx context.Context, q sq.SelectBuilder, into any) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	return a.writer.DB().WithContext(ctx).Raw(query, args...).Scan(into).Error
}
