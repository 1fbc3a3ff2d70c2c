package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	answer  func(system string) (string, error)
}

func (f *fakeLLM) CompleteJSON(_ context.Context, system, user string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, user)
	f.mu.Unlock()
	return f.answer(system)
}

func answers(news, propaganda string) func(string) (string, error) {
	return func(system string) (string, error) {
		if system == propagandaAnalysisPrompt {
			return propaganda, nil
		}
		return news, nil
	}
}

const minimalNews = `{"credibility_score":0.6,"factuality_score":0.7,"bias_rating":"center"}`

func newTestClassifier(llm Completer) (*Classifier, *[]time.Duration) {
	c := NewClassifier(llm, zap.NewNop(), 2000, time.Second)
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestClassifyParsesBothAnalyses(t *testing.T) {
	llm := &fakeLLM{answer: answers(
		`{"credibility_score":0.8,"sentiment_score":-0.3,"bias_rating":"Centre-Left","key_topics":["housing"],"factuality_score":0.7,"emotional_tone":"concerned","summary":"s"}`,
		"```json\n{\"propaganda_techniques\":[\"loaded language\"],\"claims\":[\"Rents rose 10%\"]}\n```",
	)}
	c, _ := newTestClassifier(llm)

	l := c.Classify(context.Background(), ArticleInput{Title: "Rents", Content: "text"})
	require.False(t, l.Fallback)
	require.Equal(t, 0.8, l.CredibilityScore)
	require.Equal(t, "center-left", l.BiasRating)
	require.Equal(t, []string{"housing"}, l.KeyTopics)
	require.Equal(t, []string{"loaded language"}, l.PropagandaTechniques)
	require.Equal(t, []string{"Rents rose 10%"}, l.Claims)
	require.Len(t, llm.prompts, 2)
}

func TestClassifyProviderErrorYieldsDefaults(t *testing.T) {
	llm := &fakeLLM{answer: func(string) (string, error) { return "", errors.New("502 bad gateway") }}
	c, _ := newTestClassifier(llm)

	l := c.Classify(context.Background(), ArticleInput{Title: "x"})
	require.Equal(t, DefaultLabels(), l)
	require.True(t, l.Fallback)
	require.Len(t, llm.prompts, 1)
}

func TestClassifyMalformedJSONYieldsDefaults(t *testing.T) {
	c, _ := newTestClassifier(&fakeLLM{answer: answers(`{"credibility_score": "high"`, `{}`)})
	l := c.Classify(context.Background(), ArticleInput{Title: "x"})
	require.True(t, l.Fallback)
	require.Equal(t, 0.5, l.CredibilityScore)
	require.Equal(t, "center", l.BiasRating)
	require.Empty(t, l.KeyTopics)
}

func TestClassifyReplyWithoutScoresYieldsDefaults(t *testing.T) {
	for _, reply := range []string{
		`{}`,
		`null`,
		`{"sentiment_score":0.2,"summary":"s"}`,
		`{"credibility_score":0.9,"bias_rating":"left"}`,
	} {
		llm := &fakeLLM{answer: answers(reply, `{}`)}
		c, _ := newTestClassifier(llm)

		l := c.Classify(context.Background(), ArticleInput{Title: "x"})
		require.Equal(t, DefaultLabels(), l, reply)
		require.Len(t, llm.prompts, 1, reply)
	}
}

func TestClassifyClampsOutOfRangeScores(t *testing.T) {
	c, _ := newTestClassifier(&fakeLLM{answer: answers(
		`{"credibility_score":7,"sentiment_score":-4,"bias_rating":"far out","factuality_score":-1}`,
		`not json`,
	)})
	l := c.Classify(context.Background(), ArticleInput{Title: "x"})
	require.False(t, l.Fallback)
	require.Equal(t, 1.0, l.CredibilityScore)
	require.Equal(t, -1.0, l.SentimentScore)
	require.Equal(t, 0.0, l.FactualityScore)
	require.Equal(t, "center", l.BiasRating)
	require.NotNil(t, l.PropagandaTechniques)
	require.Empty(t, l.PropagandaTechniques)
}

func TestClassifyTruncatesInput(t *testing.T) {
	llm := &fakeLLM{answer: answers(minimalNews, `{}`)}
	c, _ := newTestClassifier(llm)

	c.Classify(context.Background(), ArticleInput{Title: "Long", Content: strings.Repeat("é", 5000)})
	require.Len(t, llm.prompts, 2)
	for _, p := range llm.prompts {
		require.Equal(t, 2000, len([]rune(p)))
	}
}

func TestClassifyBatchPausesBetweenArticles(t *testing.T) {
	c, slept := newTestClassifier(&fakeLLM{answer: answers(minimalNews, `{}`)})

	out := c.ClassifyBatch(context.Background(), []ArticleInput{{Title: "a"}, {Title: "b"}, {Title: "c"}})
	require.Len(t, out, 3)
	// one pause between the two analyses of each article, one between articles
	require.Len(t, *slept, 5)
	for _, d := range *slept {
		require.Equal(t, time.Second, d)
	}
}

func TestClassifyBatchCancelled(t *testing.T) {
	c := NewClassifier(&fakeLLM{answer: answers(`{"credibility_score":0.9}`, `{}`)}, zap.NewNop(), 0, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := c.ClassifyBatch(ctx, []ArticleInput{{Title: "a"}, {Title: "b"}})
	require.Len(t, out, 2)
	require.True(t, out[1].Fallback)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "ab", Truncate("abc", 2))
	require.Equal(t, "abc", Truncate("abc", 5))
	require.Equal(t, "éé", Truncate("ééé", 2))
	require.Equal(t, "", Truncate("abc", 0))
}
