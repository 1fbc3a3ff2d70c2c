// Package enrich classifies article text through an LLM and degrades to neutral default
// labels whenever the provider fails or answers with something unusable.
package enrich

import (
	"math"
	"strings"
)

// Labels is the structured classification of one article.
type Labels struct {
	CredibilityScore float64  `json:"credibility_score"`
	SentimentScore   float64  `json:"sentiment_score"`
	BiasRating       string   `json:"bias_rating"`
	KeyTopics        []string `json:"key_topics"`
	FactualityScore  float64  `json:"factuality_score"`
	EmotionalTone    string   `json:"emotional_tone"`
	Summary          string   `json:"summary"`
	PoliticalImpact  string   `json:"political_impact"`
	PublicImpact     string   `json:"public_impact"`
	FactCheck        string   `json:"fact_check"`
	NamedEntities    []string `json:"named_entities"`

	PropagandaTechniques []string `json:"propaganda_techniques"`
	Claims               []string `json:"claims"`

	// Fallback is set when the labels are the defaults, not a classification.
	Fallback bool `json:"-"`
}

// DefaultLabels is the neutral classification used when enrichment fails.
func DefaultLabels() Labels {
	return Labels{
		CredibilityScore:     0.5,
		SentimentScore:       0,
		BiasRating:           "center",
		KeyTopics:            []string{},
		FactualityScore:      0.5,
		EmotionalTone:        "neutral",
		NamedEntities:        []string{},
		PropagandaTechniques: []string{},
		Claims:               []string{},
		Fallback:             true,
	}
}

var biasRatings = map[string]string{
	"left":         "left",
	"center-left":  "center-left",
	"centre-left":  "center-left",
	"center":       "center",
	"centre":       "center",
	"neutral":      "center",
	"center-right": "center-right",
	"centre-right": "center-right",
	"right":        "right",
}

// sanitize clamps scores into range and maps bias spellings onto the known ratings.
func (l *Labels) sanitize() {
	l.CredibilityScore = clamp(l.CredibilityScore, 0, 1, 0.5)
	l.FactualityScore = clamp(l.FactualityScore, 0, 1, 0.5)
	l.SentimentScore = clamp(l.SentimentScore, -1, 1, 0)

	if b, ok := biasRatings[strings.ToLower(strings.TrimSpace(l.BiasRating))]; ok {
		l.BiasRating = b
	} else {
		l.BiasRating = "center"
	}
	if l.EmotionalTone == "" {
		l.EmotionalTone = "neutral"
	}
	l.KeyTopics = nonEmpty(l.KeyTopics)
	l.NamedEntities = nonEmpty(l.NamedEntities)
	l.PropagandaTechniques = nonEmpty(l.PropagandaTechniques)
	l.Claims = nonEmpty(l.Claims)
}

func clamp(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
