package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"civicwatch/fetch"
	"civicwatch/providers"
	"civicwatch/sources"
)

// Archiver stores a raw copy of fetched pages. storage.Archiver implements it.
type Archiver interface {
	PutPage(ctx context.Context, source, entity string, fetchedAt time.Time, body []byte) (string, error)
}

// pageFetcher kapselt Provider, Retry-Policy und optionales Rohseiten-Archiv.
type pageFetcher struct {
	provider providers.Provider
	retry    fetch.Policy
	archiver Archiver
	log      *zap.Logger
	now      func() time.Time
}

// limit passes the source's rate limit to the provider when it supports pacing.
func (p *pageFetcher) limit(src sources.Source) {
	if rl, ok := p.provider.(providers.RateLimited); ok && src.RateLimitPerMinute > 0 {
		rl.Limit(src.Host(), src.RateLimitPerMinute)
	}
}

// get fetches url with retries. The error is a *fetch.TerminalFailure, a non-transient
// provider error, or ctx.Err().
func (p *pageFetcher) get(ctx context.Context, src sources.Source, entity sources.EntityType, url string) ([]byte, error) {
	var body []byte
	err := p.retry.Do(ctx, func(ctx context.Context) error {
		b, err := p.provider.Fetch(ctx, url, src.Headers)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.archiver != nil {
		if _, err := p.archiver.PutPage(ctx, src.Name, string(entity), p.now(), body); err != nil {
			p.log.Warn("Archivierung der Rohseite fehlgeschlagen", zap.String("source", src.Name), zap.String("url", url), zap.Error(err))
		}
	}
	return body, nil
}
