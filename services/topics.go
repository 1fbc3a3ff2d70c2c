package services

import (
	"fmt"
	"math"
	"sort"

	"gorm.io/datatypes"

	"civicwatch/models"
)

const (
	sentimentGap   = 0.5
	lowCredibility = 0.4
)

// ComputeTopicComparisons groups articles by inferred topic and compares the outlets
// covering each one. Topics covered by fewer than two distinct sources are left out.
// Scores come from enriched articles; a group without any falls back to all its articles.
func ComputeTopicComparisons(articles []models.Article) []models.TopicComparison {
	groups := map[string][]models.Article{}
	for _, a := range articles {
		if a.Topic == "" {
			continue
		}
		groups[a.Topic] = append(groups[a.Topic], a)
	}

	topics := make([]string, 0, len(groups))
	for t := range groups {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	var out []models.TopicComparison
	for _, topic := range topics {
		group := groups[topic]
		srcs := distinctSources(group)
		if len(srcs) < 2 {
			continue
		}

		scored := enrichedOnly(group)
		if len(scored) == 0 {
			scored = group
		}

		out = append(out, models.TopicComparison{
			Topic:              topic,
			Sources:            datatypes.JSONSlice[string](srcs),
			ConsensusLevel:     consensus(scored),
			MajorDiscrepancies: datatypes.JSONSlice[string](discrepancies(scored)),
			PropagandaPatterns: datatypes.JSONSlice[string](recurringTechniques(scored)),
			FactualAccuracy:    round2(mean(scored, func(a models.Article) float64 { return a.FactualityScore })),
			PoliticalBias:      datatypes.NewJSONType(biasShares(scored)),
			ArticleCount:       len(group),
		})
	}
	return out
}

func distinctSources(group []models.Article) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range group {
		if a.Source != "" && !seen[a.Source] {
			seen[a.Source] = true
			out = append(out, a.Source)
		}
	}
	sort.Strings(out)
	return out
}

func enrichedOnly(group []models.Article) []models.Article {
	var out []models.Article
	for _, a := range group {
		if a.EnrichmentStatus == models.EnrichmentEnriched {
			out = append(out, a)
		}
	}
	return out
}

func mean(group []models.Article, val func(models.Article) float64) float64 {
	if len(group) == 0 {
		return 0
	}
	var sum float64
	for _, a := range group {
		sum += val(a)
	}
	return sum / float64(len(group))
}

// consensus is 1 minus the standard deviation of sentiment, floored at 0.
func consensus(group []models.Article) float64 {
	m := mean(group, func(a models.Article) float64 { return a.SentimentScore })
	var v float64
	for _, a := range group {
		d := a.SentimentScore - m
		v += d * d
	}
	sd := math.Sqrt(v / float64(len(group)))
	return round2(1 - math.Min(1, sd))
}

// discrepancies lists source pairs whose average sentiment differs by more than
// sentimentGap and sources whose average credibility is below lowCredibility.
func discrepancies(group []models.Article) []string {
	bySource := map[string][]models.Article{}
	for _, a := range group {
		bySource[a.Source] = append(bySource[a.Source], a)
	}
	srcs := distinctSources(group)

	sentiment := map[string]float64{}
	out := []string{}
	for _, s := range srcs {
		sentiment[s] = mean(bySource[s], func(a models.Article) float64 { return a.SentimentScore })
	}
	for i := 0; i < len(srcs); i++ {
		for j := i + 1; j < len(srcs); j++ {
			if math.Abs(sentiment[srcs[i]]-sentiment[srcs[j]]) > sentimentGap {
				out = append(out, fmt.Sprintf("%s and %s differ in tone (%.2f vs %.2f)",
					srcs[i], srcs[j], sentiment[srcs[i]], sentiment[srcs[j]]))
			}
		}
	}
	for _, s := range srcs {
		if c := mean(bySource[s], func(a models.Article) float64 { return a.CredibilityScore }); c < lowCredibility {
			out = append(out, fmt.Sprintf("%s coverage has low credibility (%.2f)", s, c))
		}
	}
	return out
}

// recurringTechniques returns propaganda techniques seen in at least two articles.
func recurringTechniques(group []models.Article) []string {
	counts := map[string]int{}
	for _, a := range group {
		seen := map[string]bool{}
		for _, t := range a.PropagandaTechniques {
			if t != "" && !seen[t] {
				seen[t] = true
				counts[t]++
			}
		}
	}
	out := []string{}
	for t, n := range counts {
		if n >= 2 {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func biasShares(group []models.Article) models.PoliticalBias {
	var b models.PoliticalBias
	for _, a := range group {
		switch a.BiasRating {
		case "left", "center-left":
			b.Left++
		case "right", "center-right":
			b.Right++
		default:
			b.Center++
		}
	}
	n := float64(len(group))
	if n == 0 {
		return b
	}
	return models.PoliticalBias{Left: round2(b.Left / n), Center: round2(b.Center / n), Right: round2(b.Right / n)}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
