package normalize

import (
	"strings"
	"unicode"
)

// DefaultCategory is used when no keyword bucket matches.
const DefaultCategory = "General"

type bucket struct {
	name     string
	keywords []string
}

// Reihenfolge ist relevant: die erste passende Kategorie gewinnt.
var billCategories = []bucket{
	{"Health", []string{"health", "medical", "hospital", "pharma", "drug", "disease", "mental", "long-term care"}},
	{"Environment", []string{"environment", "climate", "emission", "carbon", "pollution", "conservation", "species", "water", "greenhouse"}},
	{"Finance", []string{"tax", "income", "budget", "financ", "fiscal", "appropriation", "bank", "pension", "economic", "excise", "revenue"}},
	{"Justice", []string{"criminal", "justice", "court", "police", "crime", "offence", "correction", "firearm", "victim"}},
	{"Technology", []string{"technolog", "digital", "privacy", "data", "cyber", "telecommunication", "internet", "broadcast", "online", "artificial intelligence"}},
	{"Defence", []string{"defence", "defense", "military", "armed forces", "veteran", "national security"}},
	{"Education", []string{"education", "school", "student", "universit", "college", "learning"}},
	{"Immigration", []string{"immigra", "refugee", "citizenship", "border", "asylum"}},
}

var articleTopics = []bucket{
	{"Economy", []string{"econom", "budget", "inflation", "tax", "interest rate", "jobs", "deficit", "tariff", "trade"}},
	{"Healthcare", []string{"health", "hospital", "pharmacare", "dental", "doctor", "nurse"}},
	{"Climate", []string{"climate", "carbon", "emission", "wildfire", "environment", "pipeline", "energy"}},
	{"Housing", []string{"housing", "rent", "mortgage", "homeless", "affordab"}},
	{"Immigration", []string{"immigra", "refugee", "asylum", "border", "international student"}},
	{"Defence", []string{"defence", "military", "nato", "armed forces", "ukraine"}},
	{"Indigenous Affairs", []string{"indigenous", "first nations", "métis", "inuit", "reconciliation"}},
	{"Elections", []string{"election", "poll", "campaign", "ballot", "byelection", "by-election", "voter"}},
	{"Justice", []string{"court", "crime", "police", "justice", "rcmp", "inquiry"}},
	{"Technology", []string{"technolog", "artificial intelligence", "online harms", "privacy", "cyber"}},
	{"Foreign Affairs", []string{"foreign", "diplomat", "china", "india", "united states", "trump", "embassy"}},
}

// DefaultTopic is the topic of an article that matched no bucket.
const DefaultTopic = "General Politics"

// InferBillCategory returns the first keyword bucket matched by the title.
func InferBillCategory(title string) string {
	return firstBucket(billCategories, title, DefaultCategory)
}

// InferTopic assigns an article to a topic from its title and text.
func InferTopic(title, content string) string {
	if t := firstBucket(articleTopics, title, ""); t != "" {
		return t
	}
	return firstBucket(articleTopics, content, DefaultTopic)
}

// firstBucket matches keywords at word starts, so "tax" hits "taxation" but "data"
// does not hit "metadata".
func firstBucket(buckets []bucket, text, fallback string) string {
	lower := strings.ToLower(text)
	for _, b := range buckets {
		for _, kw := range b.keywords {
			if containsAtWordStart(lower, kw) {
				return b.name
			}
		}
	}
	return fallback
}

func containsAtWordStart(s, kw string) bool {
	from := 0
	for {
		i := strings.Index(s[from:], kw)
		if i < 0 {
			return false
		}
		i += from
		if i == 0 {
			return true
		}
		prev := []rune(s[:i])
		if r := prev[len(prev)-1]; !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
		from = i + 1
	}
}
