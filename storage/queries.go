package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"civicwatch/models"
)

// PendingArticles returns articles still waiting for enrichment, oldest first. Articles
// that fell back to default labels follow, least recently attempted first, so repeated
// sweeps rotate through all of them.
func (w *Writer) PendingArticles(ctx context.Context, limit int) ([]models.Article, error) {
	var out []models.Article
	err := w.db.WithContext(ctx).
		Where("enrichment_status IN ?", []string{models.EnrichmentPending, models.EnrichmentFallback}).
		Order("CASE WHEN enrichment_status = 'pending' THEN 0 ELSE 1 END").
		Order("enriched_at IS NOT NULL, enriched_at, id").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ArticlesSince returns articles created after the given time.
func (w *Writer) ArticlesSince(ctx context.Context, since time.Time) ([]models.Article, error) {
	var out []models.Article
	err := w.db.WithContext(ctx).Where("created_at >= ?", since).Order("id").Find(&out).Error
	return out, err
}

// ArticleByURL loads one article.
func (w *Writer) ArticleByURL(ctx context.Context, url string) (models.Article, error) {
	var a models.Article
	err := w.db.WithContext(ctx).Where("url = ?", url).First(&a).Error
	return a, err
}

// LatestSnapshot returns the newest analytics snapshot, or gorm.ErrRecordNotFound.
func (w *Writer) LatestSnapshot(ctx context.Context) (models.AnalyticsSnapshot, error) {
	var s models.AnalyticsSnapshot
	err := w.db.WithContext(ctx).Order("generated_at DESC").Order("id DESC").First(&s).Error
	return s, err
}

// ListFilter narrows listing queries.
type ListFilter struct {
	Jurisdiction string
	Level        string
	Party        string
	Category     string
	Source       string
	Topic        string
	Limit        int
	Offset       int
}

func (f ListFilter) page(db *gorm.DB) *gorm.DB {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return db.Limit(limit).Offset(f.Offset)
}

// ListOfficials lists officials ordered by name.
func (w *Writer) ListOfficials(ctx context.Context, f ListFilter) ([]models.Official, error) {
	db := w.db.WithContext(ctx).Model(&models.Official{})
	if f.Jurisdiction != "" {
		db = db.Where("jurisdiction = ?", f.Jurisdiction)
	}
	if f.Level != "" {
		db = db.Where("level = ?", f.Level)
	}
	if f.Party != "" {
		db = db.Where("party = ?", f.Party)
	}
	var out []models.Official
	err := f.page(db).Order("name").Find(&out).Error
	return out, err
}

// ListBills lists bills, newest first.
func (w *Writer) ListBills(ctx context.Context, f ListFilter) ([]models.Bill, error) {
	db := w.db.WithContext(ctx).Model(&models.Bill{})
	if f.Jurisdiction != "" {
		db = db.Where("jurisdiction = ?", f.Jurisdiction)
	}
	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}
	var out []models.Bill
	err := f.page(db).Order("id DESC").Find(&out).Error
	return out, err
}

// ListArticles lists articles, newest first.
func (w *Writer) ListArticles(ctx context.Context, f ListFilter) ([]models.Article, error) {
	db := w.db.WithContext(ctx).Model(&models.Article{})
	if f.Source != "" {
		db = db.Where("source = ?", f.Source)
	}
	if f.Topic != "" {
		db = db.Where("topic = ?", f.Topic)
	}
	var out []models.Article
	err := f.page(db).Order("id DESC").Find(&out).Error
	return out, err
}

// Ping checks that the store answers.
func (w *Writer) Ping(ctx context.Context) error {
	sqlDB, err := w.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// IsNotFound wraps gorm.ErrRecordNotFound for callers outside this package.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
