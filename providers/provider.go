package providers

import "context"

// Provider ist das Interface, über das der Orchestrator Rohseiten bezieht.
// fetch.Fetcher ist die produktive Implementierung; Tests setzen eigene Provider ein.
type Provider interface {
	// Fetch lädt eine Seite und liefert den Body. Transiente Fehler sind *fetch.FetchError.
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// RateLimited is implemented by providers that can pace requests per host.
type RateLimited interface {
	Limit(host string, perMinute int)
}
