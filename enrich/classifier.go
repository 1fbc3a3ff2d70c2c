package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxInputChars = 2000
	DefaultCallDelay     = time.Second
)

const newsAnalysisPrompt = `You analyse Canadian political news articles. Reply with one JSON object with exactly these keys:
"credibility_score" (number 0-1), "sentiment_score" (number -1 to 1),
"bias_rating" (one of "left", "center-left", "center", "center-right", "right"),
"key_topics" (array of short strings), "factuality_score" (number 0-1),
"emotional_tone" (string), "summary" (two sentences), "political_impact" (string),
"public_impact" (string), "fact_check" (string), "named_entities" (array of strings).`

const propagandaAnalysisPrompt = `You detect propaganda techniques in news text. Reply with one JSON object with exactly these keys:
"propaganda_techniques" (array of technique names such as "loaded language", "appeal to fear",
"whataboutism", "bandwagon"; empty when none are present) and
"claims" (array of the factual claims the text makes, each one sentence).`

// ArticleInput is the text sent for classification.
type ArticleInput struct {
	Title   string
	Source  string
	Content string
}

// Classifier wraps a Completer with input truncation, pacing and fallback.
type Classifier struct {
	llm      Completer
	log      *zap.Logger
	maxChars int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewClassifier(llm Completer, log *zap.Logger, maxChars int, delay time.Duration) *Classifier {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	if delay < 0 {
		delay = 0
	}
	return &Classifier{
		llm:      llm,
		log:      log.With(zap.String("component", "enrich")),
		maxChars: maxChars,
		delay:    delay,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func (c *Classifier) prompt(in ArticleInput) string {
	var b strings.Builder
	if in.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", in.Source)
	}
	fmt.Fprintf(&b, "Title: %s\n\n%s", in.Title, in.Content)
	return Truncate(b.String(), c.maxChars)
}

// Classify never fails. A provider error or unparsable answer on the news analysis
// yields DefaultLabels; a failed propaganda analysis only leaves its lists empty.
func (c *Classifier) Classify(ctx context.Context, in ArticleInput) Labels {
	text := c.prompt(in)

	var labels Labels
	var required requiredNewsKeys
	err := c.ask(ctx, newsAnalysisPrompt, text, &labels, &required)
	if err == nil {
		err = required.check()
	}
	if err != nil {
		c.log.Warn("News analysis failed, using default labels", zap.String("title", in.Title), zap.Error(err))
		return DefaultLabels()
	}

	var propaganda struct {
		PropagandaTechniques []string `json:"propaganda_techniques"`
		Claims               []string `json:"claims"`
	}
	if err := c.sleep(ctx, c.delay); err == nil {
		if err := c.ask(ctx, propagandaAnalysisPrompt, text, &propaganda); err != nil {
			c.log.Warn("Propaganda analysis failed", zap.String("title", in.Title), zap.Error(err))
		}
	}
	labels.PropagandaTechniques = propaganda.PropagandaTechniques
	labels.Claims = propaganda.Claims

	labels.sanitize()
	return labels
}

// ClassifyBatch classifies inputs in order, pausing between articles. A cancelled ctx
// fills the remaining results with DefaultLabels.
func (c *Classifier) ClassifyBatch(ctx context.Context, inputs []ArticleInput) []Labels {
	out := make([]Labels, len(inputs))
	for i, in := range inputs {
		if i > 0 {
			if err := c.sleep(ctx, c.delay); err != nil {
				for j := i; j < len(inputs); j++ {
					out[j] = DefaultLabels()
				}
				return out
			}
		}
		out[i] = c.Classify(ctx, in)
	}
	return out
}

// ask decodes one reply into every target.
func (c *Classifier) ask(ctx context.Context, system, user string, into ...any) error {
	raw, err := c.llm.CompleteJSON(ctx, system, user)
	if err != nil {
		return err
	}
	body := []byte(stripFence(raw))
	for _, v := range into {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("malformed classifier response: %w", err)
		}
	}
	return nil
}

// requiredNewsKeys are the news analysis keys without which the reply is unusable.
type requiredNewsKeys struct {
	CredibilityScore *float64 `json:"credibility_score"`
	FactualityScore  *float64 `json:"factuality_score"`
	BiasRating       *string  `json:"bias_rating"`
}

func (r requiredNewsKeys) check() error {
	var missing []string
	if r.CredibilityScore == nil {
		missing = append(missing, "credibility_score")
	}
	if r.FactualityScore == nil {
		missing = append(missing, "factuality_score")
	}
	if r.BiasRating == nil {
		missing = append(missing, "bias_rating")
	}
	if len(missing) > 0 {
		return fmt.Errorf("classifier response lacks %s", strings.Join(missing, ", "))
	}
	return nil
}

// stripFence removes a ```json ... ``` wrapper some models add despite JSON mode.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
