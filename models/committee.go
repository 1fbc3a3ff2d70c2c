package models

import "time"

// Committee is a standing or special committee of a legislature or council.
type Committee struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string `json:"name" gorm:"not null;uniqueIndex:idx_committees_name_jurisdiction"`
	Jurisdiction string `json:"jurisdiction" gorm:"not null;uniqueIndex:idx_committees_name_jurisdiction"`

	Chair        string `json:"chair,omitempty"`
	MembersCount int    `json:"members_count"`
	SourceURL    string `json:"source_url,omitempty"`
}

func (Committee) TableName() string {
	return "committees"
}

// ElectionRecord summarises one general election or by-election.
type ElectionRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string `json:"name" gorm:"not null;uniqueIndex:idx_elections_name_jurisdiction"`
	Jurisdiction string `json:"jurisdiction" gorm:"not null;uniqueIndex:idx_elections_name_jurisdiction"`

	ElectionDate *time.Time `json:"election_date,omitempty"`
	ElectionType string     `json:"election_type,omitempty"`
	Turnout      float64    `json:"turnout"`
	Winner       string     `json:"winner,omitempty"`
	SourceURL    string     `json:"source_url,omitempty"`
}

func (ElectionRecord) TableName() string {
	return "election_records"
}
