package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"civicwatch/models"
	"civicwatch/storage"
)

// DefaultMentionWindow is how far back articles mentioning an official count.
const DefaultMentionWindow = 30 * 24 * time.Hour

// TrustScorer recomputes officials' trust scores from their contact details, their
// recorded statements and the credibility of the coverage mentioning them.
type TrustScorer struct {
	writer *storage.Writer
	window time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewTrustScorer(writer *storage.Writer, log *zap.Logger) *TrustScorer {
	return &TrustScorer{
		writer: writer,
		window: DefaultMentionWindow,
		log:    log.With(zap.String("component", "trust")),
		now:    time.Now,
	}
}

// TrustScore starts at the baseline, rewards published contact details and statements
// on the record, shifts with the average credibility of articles mentioning the official
// and is kept within [0, 100].
func TrustScore(o models.Official, statements int, mentionCredibility []float64) float64 {
	score := models.DefaultTrustScore
	if o.Email != "" {
		score += 5
	}
	if o.Phone != "" {
		score += 5
	}
	if o.Office != "" || o.Website != "" {
		score += 5
	}
	if o.Email == "" && o.Phone == "" && o.Office == "" && o.Website == "" {
		score -= 10
	}
	score += math.Min(15, 1.5*float64(statements))

	if len(mentionCredibility) > 0 {
		var sum float64
		for _, c := range mentionCredibility {
			sum += c
		}
		score += (sum/float64(len(mentionCredibility)) - 0.5) * 20
	}
	return round2(math.Max(0, math.Min(100, score)))
}

// Recompute updates every official whose score changed and returns how many were written.
func (t *TrustScorer) Recompute(ctx context.Context) (int, error) {
	db := t.writer.DB().WithContext(ctx)

	var officials []models.Official
	if err := db.Find(&officials).Error; err != nil {
		return 0, fmt.Errorf("load officials: %w", err)
	}

	var counts []struct {
		OfficialID uint
		Total      int
	}
	if err := db.Model(&models.Statement{}).Select("official_id, COUNT(*) AS total").Group("official_id").Scan(&counts).Error; err != nil {
		return 0, fmt.Errorf("count statements: %w", err)
	}
	statements := make(map[uint]int, len(counts))
	for _, c := range counts {
		statements[c.OfficialID] = c.Total
	}

	var articles []models.Article
	if err := db.Select("title", "content", "credibility_score").
		Where("enrichment_status = ? AND created_at >= ?", models.EnrichmentEnriched, t.now().Add(-t.window)).
		Find(&articles).Error; err != nil {
		return 0, fmt.Errorf("load articles: %w", err)
	}
	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = strings.ToLower(a.Title + " " + a.Content)
	}

	updated := 0
	for _, o := range officials {
		var mentions []float64
		name := strings.ToLower(o.Name)
		for i, text := range texts {
			if name != "" && strings.Contains(text, name) {
				mentions = append(mentions, articles[i].CredibilityScore)
			}
		}
		score := TrustScore(o, statements[o.ID], mentions)
		if score == o.TrustScore {
			continue
		}
		if err := t.writer.UpdateTrustScore(ctx, o.ID, score); err != nil {
			t.log.Warn("Trust-Score nicht gespeichert", zap.Uint("official_id", o.ID), zap.Error(err))
			continue
		}
		updated++
	}
	t.log.Info("Trust-Scores neu berechnet", zap.Int("officials", len(officials)), zap.Int("updated", updated))
	return updated, nil
}
