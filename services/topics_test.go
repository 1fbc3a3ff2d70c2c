package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"civicwatch/models"
)

func enriched(source, topic string, sentiment, credibility, factuality float64, bias string, techniques ...string) models.Article {
	return models.Article{
		Source: source, Topic: topic, SentimentScore: sentiment, CredibilityScore: credibility,
		FactualityScore: factuality, BiasRating: bias, EnrichmentStatus: models.EnrichmentEnriched,
		PropagandaTechniques: datatypes.JSONSlice[string](techniques),
	}
}

func TestComputeTopicComparisons(t *testing.T) {
	articles := []models.Article{
		enriched("CBC News", "Housing", 0.6, 0.8, 0.9, "center-left", "loaded language"),
		enriched("National Post", "Housing", -0.2, 0.3, 0.5, "center-right", "loaded language", "appeal to fear"),
		enriched("CBC News", "Housing", 0.6, 0.8, 0.7, "center"),
		// single-source topic is not compared
		enriched("CBC News", "Defence", 0, 0.5, 0.5, "center"),
		// untagged articles are ignored
		{Source: "CTV News"},
	}

	got := ComputeTopicComparisons(articles)
	require.Len(t, got, 1)

	tc := got[0]
	require.Equal(t, "Housing", tc.Topic)
	require.Equal(t, []string{"CBC News", "National Post"}, []string(tc.Sources))
	require.Equal(t, 3, tc.ArticleCount)
	require.Equal(t, 0.7, tc.FactualAccuracy)
	require.Equal(t, []string{"loaded language"}, []string(tc.PropagandaPatterns))
	require.Equal(t, models.PoliticalBias{Left: 0.33, Center: 0.33, Right: 0.33}, tc.PoliticalBias.Data())

	// sentiment 0.6, 0.6, -0.2: stddev 0.377
	require.Equal(t, 0.62, tc.ConsensusLevel)

	require.Equal(t, []string{
		"CBC News and National Post differ in tone (0.60 vs -0.20)",
		"National Post coverage has low credibility (0.30)",
	}, []string(tc.MajorDiscrepancies))
}

func TestComputeTopicComparisonsFallsBackToUnenriched(t *testing.T) {
	articles := []models.Article{
		{Source: "CBC News", Topic: "Economy", CredibilityScore: 0.5, FactualityScore: 0.5, BiasRating: "center", EnrichmentStatus: models.EnrichmentPending},
		{Source: "CTV News", Topic: "Economy", CredibilityScore: 0.5, FactualityScore: 0.5, BiasRating: "center", EnrichmentStatus: models.EnrichmentFallback},
	}

	got := ComputeTopicComparisons(articles)
	require.Len(t, got, 1)
	require.Equal(t, 1.0, got[0].ConsensusLevel)
	require.Equal(t, 0.5, got[0].FactualAccuracy)
	require.Equal(t, models.PoliticalBias{Center: 1}, got[0].PoliticalBias.Data())
	require.Empty(t, got[0].MajorDiscrepancies)
	require.Empty(t, got[0].PropagandaPatterns)
}

func TestComputeTopicComparisonsEmpty(t *testing.T) {
	require.Empty(t, ComputeTopicComparisons(nil))
}
