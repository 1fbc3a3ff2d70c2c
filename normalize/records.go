package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"civicwatch/extract"
	"civicwatch/models"
	"civicwatch/sources"
)

// ErrMissingKey marks a record whose natural key is empty after cleaning. Such records
// are skipped, never written.
var ErrMissingKey = errors.New("natural key is empty")

var (
	plainBillPattern = regexp.MustCompile(`(?i)\bbill\s+(\d{1,4})\b`)
	digitsPattern    = regexp.MustCompile(`\d+`)
	decimalPattern   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"2 January 2006",
	"Monday, January 2, 2006",
	"January 2006",
}

// ParseDate accepts the date formats seen on government and news pages. The zero
// time and false are returned for anything else.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func datePtr(s string) *time.Time {
	if t, ok := ParseDate(s); ok {
		return &t
	}
	return nil
}

func firstInt(s string) int {
	n, _ := strconv.Atoi(digitsPattern.FindString(strings.ReplaceAll(s, ",", "")))
	return n
}

// jurisdictionFor prefers the domain table and falls back to what the source declares.
func jurisdictionFor(rec extract.RawRecord, src sources.Source) string {
	j := InferJurisdiction(rec.SourceURL)
	if j == UnknownJurisdiction && src.Jurisdiction != "" {
		return src.Jurisdiction
	}
	return j
}

// Official normalizes an officials record.
func Official(rec extract.RawRecord, src sources.Source) (models.Official, error) {
	name := CleanName(rec.Get("name"))
	if name == "" {
		return models.Official{}, fmt.Errorf("official from %s: %w", rec.SourceURL, ErrMissingKey)
	}

	position := CleanText(rec.Get("position"))
	level, ok := InferLevel(position)
	if !ok && src.Level != "" {
		level = src.Level
	}

	return models.Official{
		Name:         name,
		Jurisdiction: jurisdictionFor(rec, src),
		Position:     position,
		Party:        CleanText(rec.Get("party")),
		Level:        level,
		Constituency: CleanText(rec.Get("constituency")),
		Email:        strings.ToLower(strings.TrimSpace(rec.Get("email"))),
		Phone:        CleanText(rec.Get("phone")),
		Office:       CleanText(rec.Get("office")),
		Website:      strings.TrimSpace(rec.Get("website")),
		SourceURL:    rec.SourceURL,
		TrustScore:   models.DefaultTrustScore,
	}, nil
}

// BillNumber finds a bill number like "C-69" in free text. Plain "Bill 124" numbers
// of provincial legislatures are qualified with the jurisdiction so they stay unique.
func BillNumber(text, jurisdiction string) string {
	if m := extract.BillNumberPattern.FindString(strings.ToUpper(text)); m != "" {
		return m
	}
	if m := plainBillPattern.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s Bill %s", jurisdiction, m[1])
	}
	return ""
}

// Bill normalizes a bills record.
func Bill(rec extract.RawRecord, src sources.Source) (models.Bill, error) {
	jurisdiction := jurisdictionFor(rec, src)
	title := CleanText(rec.Get("title"))

	number := BillNumber(rec.Get("number"), jurisdiction)
	if number == "" {
		number = BillNumber(rec.Get("title"), jurisdiction)
	}
	if number == "" {
		return models.Bill{}, fmt.Errorf("bill %q from %s: %w", title, rec.SourceURL, ErrMissingKey)
	}

	level := src.Level
	if level == "" {
		level = models.LevelFederal
	}

	return models.Bill{
		BillNumber:     number,
		Title:          title,
		Summary:        CleanText(rec.Get("summary")),
		Status:         CleanText(rec.Get("status")),
		Category:       InferBillCategory(title),
		Jurisdiction:   jurisdiction,
		Level:          level,
		Sponsor:        CleanName(rec.Get("sponsor")),
		IntroducedDate: datePtr(rec.Get("introduced")),
		SourceURL:      rec.SourceURL,
	}, nil
}

// Vote normalizes a votes record. Bill number and date form the natural key.
func Vote(rec extract.RawRecord, src sources.Source) (models.VotingRecord, error) {
	jurisdiction := jurisdictionFor(rec, src)
	number := BillNumber(rec.Get("bill_number"), jurisdiction)
	date, ok := ParseDate(rec.Get("date"))
	if number == "" || !ok {
		return models.VotingRecord{}, fmt.Errorf("vote from %s: %w", rec.SourceURL, ErrMissingKey)
	}

	chamber := CleanText(rec.Get("chamber"))
	if chamber == "" {
		chamber = src.Name
	}

	return models.VotingRecord{
		BillNumber:   number,
		VoteDate:     date,
		VoteType:     CleanText(rec.Get("vote_type")),
		Result:       CleanText(rec.Get("result")),
		YesVotes:     firstInt(rec.Get("yes")),
		NoVotes:      firstInt(rec.Get("no")),
		Abstentions:  firstInt(rec.Get("abstentions")),
		Jurisdiction: jurisdiction,
		Chamber:      chamber,
		SourceURL:    rec.SourceURL,
	}, nil
}

// StatementDraft is a statement whose speaker still has to be resolved to an official.
type StatementDraft struct {
	Speaker      string
	Jurisdiction string
	Statement    models.Statement
}

// ContentHash identifies statement text for de-duplication.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(content)))
	return hex.EncodeToString(sum[:])
}

// Statement normalizes a statements record.
func Statement(rec extract.RawRecord, src sources.Source) (StatementDraft, error) {
	speaker := CleanName(rec.Get("speaker"))
	content := CleanText(rec.Get("content"))
	if speaker == "" || content == "" {
		return StatementDraft{}, fmt.Errorf("statement from %s: %w", rec.SourceURL, ErrMissingKey)
	}
	return StatementDraft{
		Speaker:      speaker,
		Jurisdiction: jurisdictionFor(rec, src),
		Statement: models.Statement{
			Content:     content,
			ContentHash: ContentHash(content),
			Date:        datePtr(rec.Get("date")),
			Context:     CleanText(rec.Get("context")),
			Source:      rec.SourceURL,
		},
	}, nil
}

// Committee normalizes a committees record.
func Committee(rec extract.RawRecord, src sources.Source) (models.Committee, error) {
	name := CleanText(rec.Get("name"))
	if name == "" {
		return models.Committee{}, fmt.Errorf("committee from %s: %w", rec.SourceURL, ErrMissingKey)
	}
	return models.Committee{
		Name:         name,
		Jurisdiction: jurisdictionFor(rec, src),
		Chair:        CleanName(rec.Get("chair")),
		MembersCount: firstInt(rec.Get("members")),
		SourceURL:    rec.SourceURL,
	}, nil
}

// Election normalizes an elections record.
func Election(rec extract.RawRecord, src sources.Source) (models.ElectionRecord, error) {
	name := CleanText(rec.Get("name"))
	if name == "" {
		return models.ElectionRecord{}, fmt.Errorf("election from %s: %w", rec.SourceURL, ErrMissingKey)
	}
	turnout, _ := strconv.ParseFloat(strings.ReplaceAll(decimalPattern.FindString(rec.Get("turnout")), ",", "."), 64)
	return models.ElectionRecord{
		Name:         name,
		Jurisdiction: jurisdictionFor(rec, src),
		ElectionDate: datePtr(rec.Get("date")),
		ElectionType: CleanText(rec.Get("type")),
		Turnout:      turnout,
		Winner:       CleanName(rec.Get("winner")),
		SourceURL:    rec.SourceURL,
	}, nil
}

// Article normalizes a news record. Enrichment fields keep their defaults.
func Article(rec extract.RawRecord, src sources.Source) (models.Article, error) {
	link := strings.TrimSpace(rec.Get("url"))
	title := CleanText(rec.Get("title"))
	if link == "" || title == "" {
		return models.Article{}, fmt.Errorf("article from %s: %w", rec.SourceURL, ErrMissingKey)
	}

	content := CleanText(rec.Get("content"))
	if content == "" {
		content = CleanText(rec.Get("summary"))
	}
	author := CleanName(rec.Get("author"))
	if len(author) > 3 && strings.EqualFold(author[:3], "by ") {
		author = author[3:]
	}

	return models.Article{
		URL:              link,
		Title:            title,
		Source:           src.Name,
		Content:          content,
		Author:           author,
		PublishedAt:      datePtr(rec.Get("published")),
		Topic:            InferTopic(title, content),
		CredibilityScore: 0.5,
		BiasRating:       "center",
		FactualityScore:  0.5,
		EnrichmentStatus: models.EnrichmentPending,
	}, nil
}
