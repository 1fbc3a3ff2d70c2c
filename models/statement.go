package models

import "time"

// Statement is something an official said on the record. Statements are only stored
// once the speaker resolves to an existing Official.
type Statement struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	OfficialID  uint   `json:"official_id" gorm:"not null;uniqueIndex:idx_statements_official_hash"`
	ContentHash string `json:"content_hash" gorm:"size:64;not null;uniqueIndex:idx_statements_official_hash"`

	Content string     `json:"content" gorm:"type:text"`
	Date    *time.Time `json:"date,omitempty"`
	Context string     `json:"context,omitempty"`
	Source  string     `json:"source,omitempty"`
}

func (Statement) TableName() string {
	return "statements"
}
