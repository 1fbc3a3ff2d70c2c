package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"civicwatch/models"
)

// Writer performs idempotent natural-key writes. Concurrent writers converge; nothing
// spans more than one row in a transaction.
type Writer struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewWriter(db *gorm.DB, log *zap.Logger) *Writer {
	return &Writer{db: db, log: log.With(zap.String("component", "writer"))}
}

// DB exposes the underlying handle for read paths.
func (w *Writer) DB() *gorm.DB {
	return w.db
}

// keepText builds assignments that never replace a stored value with an empty one.
func keepText(table string, cols ...string) map[string]any {
	m := make(map[string]any, len(cols)+1)
	for _, c := range cols {
		m[c] = gorm.Expr(fmt.Sprintf("COALESCE(NULLIF(excluded.%s, ''), %s.%s)", c, table, c))
	}
	m["updated_at"] = gorm.Expr("excluded.updated_at")
	return m
}

// keepNullable is keepText for non-text columns where NULL means "not scraped".
func keepNullable(m map[string]any, table string, cols ...string) map[string]any {
	for _, c := range cols {
		m[c] = gorm.Expr(fmt.Sprintf("COALESCE(excluded.%s, %s.%s)", c, table, c))
	}
	return m
}

// keepNonZero is keepText for numeric columns where 0 means "not scraped".
func keepNonZero(m map[string]any, table string, cols ...string) map[string]any {
	for _, c := range cols {
		m[c] = gorm.Expr(fmt.Sprintf("COALESCE(NULLIF(excluded.%s, 0), %s.%s)", c, table, c))
	}
	return m
}

// UpsertOfficial inserts or merges an official keyed by (name, jurisdiction).
// The trust score is never touched by a re-scrape.
func (w *Writer) UpsertOfficial(ctx context.Context, o *models.Official) error {
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}, {Name: "jurisdiction"}},
		DoUpdates: clause.Assignments(keepText("officials",
			"position", "party", "level", "constituency", "email", "phone", "office", "website", "source_url")),
	}).Create(o).Error
}

// UpsertBill inserts or merges a bill keyed by its number.
func (w *Writer) UpsertBill(ctx context.Context, b *models.Bill) error {
	set := keepText("bills", "title", "summary", "status", "category", "jurisdiction", "level", "sponsor", "source_url")
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bill_number"}},
		DoUpdates: clause.Assignments(keepNullable(set, "bills", "introduced_date")),
	}).Create(b).Error
}

// InsertVoteIfAbsent stores a vote unless (bill_number, vote_date) exists. Existing
// votes are never overwritten. The bill does not have to exist.
func (w *Writer) InsertVoteIfAbsent(ctx context.Context, v *models.VotingRecord) error {
	res := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bill_number"}, {Name: "vote_date"}},
		DoNothing: true,
	}).Create(v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyStored
	}
	return nil
}

// ResolveOfficial finds an official by name, preferring the given jurisdiction.
func (w *Writer) ResolveOfficial(ctx context.Context, name, jurisdiction string) (models.Official, error) {
	var o models.Official
	db := w.db.WithContext(ctx)
	err := db.Where("name = ? AND jurisdiction = ?", name, jurisdiction).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Where("name = ?", name).Order("id").First(&o).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return o, ErrUnknownSpeaker
	}
	return o, err
}

// InsertStatementIfSpeakerKnown stores a statement for the named speaker. An unknown
// speaker drops the statement with ErrUnknownSpeaker; a repeat of the same text by the
// same official returns ErrAlreadyStored.
func (w *Writer) InsertStatementIfSpeakerKnown(ctx context.Context, speaker, jurisdiction string, s *models.Statement) error {
	o, err := w.ResolveOfficial(ctx, speaker, jurisdiction)
	if err != nil {
		return err
	}
	s.OfficialID = o.ID
	res := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "official_id"}, {Name: "content_hash"}},
		DoNothing: true,
	}).Create(s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyStored
	}
	return nil
}

// UpsertCommittee inserts or merges a committee keyed by (name, jurisdiction).
func (w *Writer) UpsertCommittee(ctx context.Context, c *models.Committee) error {
	set := keepText("committees", "chair", "source_url")
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "jurisdiction"}},
		DoUpdates: clause.Assignments(keepNonZero(set, "committees", "members_count")),
	}).Create(c).Error
}

// UpsertElection inserts or merges an election keyed by (name, jurisdiction).
func (w *Writer) UpsertElection(ctx context.Context, e *models.ElectionRecord) error {
	set := keepText("election_records", "election_type", "winner", "source_url")
	set = keepNullable(set, "election_records", "election_date")
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "jurisdiction"}},
		DoUpdates: clause.Assignments(keepNonZero(set, "election_records", "turnout")),
	}).Create(e).Error
}

// InsertArticleIfAbsent stores a new article. A known URL is left untouched.
func (w *Writer) InsertArticleIfAbsent(ctx context.Context, a *models.Article) error {
	res := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoNothing: true,
	}).Create(a)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyStored
	}
	return nil
}

var enrichmentColumns = []string{
	"credibility_score", "sentiment_score", "bias_rating", "key_topics", "propaganda_techniques",
	"factuality_score", "emotional_tone", "claims", "summary", "political_impact", "public_impact",
	"fact_check", "enrichment_status", "enriched_at",
}

// ApplyEnrichment writes the enrichment columns of a stored article, zero values included.
func (w *Writer) ApplyEnrichment(ctx context.Context, a *models.Article) error {
	if a.ID == 0 {
		return fmt.Errorf("apply enrichment: article %q has no id", a.URL)
	}
	if a.EnrichedAt == nil {
		now := time.Now().UTC()
		a.EnrichedAt = &now
	}
	return w.db.WithContext(ctx).Model(&models.Article{ID: a.ID}).Select(enrichmentColumns).Updates(a).Error
}

// UpsertTopicComparison replaces the comparison of a topic with a fresh computation.
func (w *Writer) UpsertTopicComparison(ctx context.Context, tc *models.TopicComparison) error {
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "topic"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sources", "consensus_level", "major_discrepancies", "propaganda_patterns",
			"factual_accuracy", "political_bias", "article_count", "updated_at",
		}),
	}).Create(tc).Error
}

// SaveSnapshot appends an analytics snapshot.
func (w *Writer) SaveSnapshot(ctx context.Context, s *models.AnalyticsSnapshot) error {
	return w.db.WithContext(ctx).Create(s).Error
}

// UpdateTrustScore sets the trust score of one official.
func (w *Writer) UpdateTrustScore(ctx context.Context, id uint, score float64) error {
	return w.db.WithContext(ctx).Model(&models.Official{}).Where("id = ?", id).Update("trust_score", score).Error
}

// BatchResult counts the outcome of a batch of writes.
type BatchResult struct {
	Written int `json:"written"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Add merges another result into r.
func (r *BatchResult) Add(o BatchResult) {
	r.Written += o.Written
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

// WriteBatch applies write to every item. Duplicates and unknown speakers count as
// skipped and are not logged; other errors are logged and the batch continues.
func WriteBatch[T any](ctx context.Context, w *Writer, items []T, write func(context.Context, T) error) BatchResult {
	var res BatchResult
	for _, item := range items {
		err := write(ctx, item)
		switch {
		case err == nil:
			res.Written++
		case IsSkip(err):
			res.Skipped++
		default:
			res.Failed++
			w.log.Warn("Write failed, record skipped", zap.Error(err))
		}
	}
	return res
}
