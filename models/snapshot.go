package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnalyticsSnapshot is an append-only materialised summary written by the aggregator.
type AnalyticsSnapshot struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GeneratedAt time.Time      `json:"generated_at" gorm:"index"`
	Payload     datatypes.JSON `json:"payload"`
}

func (AnalyticsSnapshot) TableName() string {
	return "analytics_snapshots"
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Official{}, &Bill{}, &VotingRecord{}, &Statement{}, &Committee{},
		&ElectionRecord{}, &Article{}, &TopicComparison{}, &AnalyticsSnapshot{},
	}
}
