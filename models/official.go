package models

import "time"

// Government levels used across officials, bills and sources.
const (
	LevelFederal    = "federal"
	LevelProvincial = "provincial"
	LevelMunicipal  = "municipal"
)

// DefaultTrustScore is the baseline every official starts from.
const DefaultTrustScore = 50.0

// Official is a politician, senator or councillor scraped from a government source.
// (name, jurisdiction) is the natural key.
type Official struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string `json:"name" gorm:"not null;uniqueIndex:idx_officials_name_jurisdiction"`
	Jurisdiction string `json:"jurisdiction" gorm:"not null;uniqueIndex:idx_officials_name_jurisdiction"`

	Position     string `json:"position,omitempty"`
	Party        string `json:"party,omitempty" gorm:"index"`
	Level        string `json:"level" gorm:"index"`
	Constituency string `json:"constituency,omitempty"`

	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Office  string `json:"office,omitempty"`
	Website string `json:"website,omitempty"`

	SourceURL  string  `json:"source_url,omitempty"`
	TrustScore float64 `json:"trust_score" gorm:"default:50"`
}

// TableName gibt explizit den Tabellennamen an.
func (Official) TableName() string {
	return "officials"
}
