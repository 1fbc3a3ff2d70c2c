package models

import "time"

// Bill is a piece of legislation keyed by its bill number (e.g. "C-69").
type Bill struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BillNumber string `json:"bill_number" gorm:"not null;uniqueIndex"`
	Title      string `json:"title"`
	Summary    string `json:"summary,omitempty" gorm:"type:text"`
	Status     string `json:"status,omitempty" gorm:"index"`
	Category   string `json:"category" gorm:"index"`

	Jurisdiction   string     `json:"jurisdiction" gorm:"index"`
	Level          string     `json:"level"`
	Sponsor        string     `json:"sponsor,omitempty"`
	IntroducedDate *time.Time `json:"introduced_date,omitempty"`
	SourceURL      string     `json:"source_url,omitempty"`
}

func (Bill) TableName() string {
	return "bills"
}

// VotingRecord is a recorded division on a bill. The bill number is not a foreign key:
// votes and bills come from different pages and may arrive in either order.
type VotingRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	BillNumber string    `json:"bill_number" gorm:"not null;uniqueIndex:idx_votes_bill_date"`
	VoteDate   time.Time `json:"vote_date" gorm:"not null;uniqueIndex:idx_votes_bill_date"`

	VoteType     string `json:"vote_type,omitempty"`
	Result       string `json:"result,omitempty"`
	YesVotes     int    `json:"yes_votes"`
	NoVotes      int    `json:"no_votes"`
	Abstentions  int    `json:"abstentions"`
	Jurisdiction string `json:"jurisdiction" gorm:"index"`
	Chamber      string `json:"chamber,omitempty"`
	SourceURL    string `json:"source_url,omitempty"`
}

func (VotingRecord) TableName() string {
	return "voting_records"
}
