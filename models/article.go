package models

import (
	"time"

	"gorm.io/datatypes"
)

// Enrichment states of an Article.
const (
	EnrichmentPending  = "pending"
	EnrichmentEnriched = "enriched"
	EnrichmentFallback = "fallback"
)

// Article is a scraped news article. The URL is the natural key; a re-scrape of a
// known URL never touches the row. Enrichment fields stay at their defaults until the
// enrichment step has run.
type Article struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	URL         string     `json:"url" gorm:"not null;uniqueIndex"`
	Title       string     `json:"title"`
	Source      string     `json:"source" gorm:"index"`
	Content     string     `json:"content,omitempty" gorm:"type:text"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Topic       string     `json:"topic,omitempty" gorm:"index"`

	// KI-Analyse
	CredibilityScore     float64                     `json:"credibility_score" gorm:"default:0.5"`
	SentimentScore       float64                     `json:"sentiment_score"`
	BiasRating           string                      `json:"bias_rating" gorm:"default:'center'"`
	KeyTopics            datatypes.JSONSlice[string] `json:"key_topics"`
	PropagandaTechniques datatypes.JSONSlice[string] `json:"propaganda_techniques"`
	FactualityScore      float64                     `json:"factuality_score" gorm:"default:0.5"`
	EmotionalTone        string                      `json:"emotional_tone,omitempty"`
	Claims               datatypes.JSONSlice[string] `json:"claims"`
	Summary              string                      `json:"summary,omitempty" gorm:"type:text"`
	PoliticalImpact      string                      `json:"political_impact,omitempty" gorm:"type:text"`
	PublicImpact         string                      `json:"public_impact,omitempty" gorm:"type:text"`
	FactCheck            string                      `json:"fact_check,omitempty" gorm:"type:text"`

	EnrichmentStatus string     `json:"enrichment_status" gorm:"index;default:'pending'"`
	EnrichedAt       *time.Time `json:"enriched_at,omitempty"`
}

func (Article) TableName() string {
	return "articles"
}

// PoliticalBias is the share of covering articles rated left, center and right.
type PoliticalBias struct {
	Left   float64 `json:"left"`
	Center float64 `json:"center"`
	Right  float64 `json:"right"`
}

// TopicComparison compares how several outlets cover the same inferred topic.
type TopicComparison struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Topic              string                            `json:"topic" gorm:"not null;uniqueIndex"`
	Sources            datatypes.JSONSlice[string]       `json:"sources"`
	ConsensusLevel     float64                           `json:"consensus_level"`
	MajorDiscrepancies datatypes.JSONSlice[string]       `json:"major_discrepancies"`
	PropagandaPatterns datatypes.JSONSlice[string]       `json:"propaganda_patterns"`
	FactualAccuracy    float64                           `json:"factual_accuracy"`
	PoliticalBias      datatypes.JSONType[PoliticalBias] `json:"political_bias"`
	ArticleCount       int                               `json:"article_count"`
}

func (TopicComparison) TableName() string {
	return "topic_comparisons"
}
