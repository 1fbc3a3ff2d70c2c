// Package sources holds the static catalog of government and news websites the collector
// scrapes, together with the per-entity endpoints each one provides.
package sources

import (
	"fmt"
	"net/url"
	"strings"
)

// EntityType names a kind of record a source can supply.
type EntityType string

const (
	EntityOfficials  EntityType = "officials"
	EntityBills      EntityType = "bills"
	EntityVotes      EntityType = "votes"
	EntityStatements EntityType = "statements"
	EntityCommittees EntityType = "committees"
	EntityElections  EntityType = "elections"
	EntityNews       EntityType = "news"
)

// EntityOrder is the order in which a source's endpoints are processed. Officials go
// first so statements scraped later in the same pass can resolve their speaker.
var EntityOrder = []EntityType{
	EntityOfficials, EntityBills, EntityVotes, EntityStatements, EntityCommittees, EntityElections, EntityNews,
}

// Kind separates government sources from news outlets.
type Kind string

const (
	KindGovernment Kind = "government"
	KindNews       Kind = "news"
)

// Tier buckets sources by crawl frequency.
type Tier string

const (
	TierFrequent Tier = "frequent"
	TierDaily    Tier = "daily"
	TierWeekly   Tier = "weekly"
)

// Source describes one website. Values are copied out of the Registry so callers never
// share the maps of the catalog.
type Source struct {
	Name                string                `yaml:"name"`
	Kind                Kind                  `yaml:"kind"`
	BaseURL             string                `yaml:"base_url"`
	Level               string                `yaml:"level"`
	Jurisdiction        string                `yaml:"jurisdiction"`
	Endpoints           map[EntityType]string `yaml:"endpoints"`
	CrawlFrequencyHours int                   `yaml:"crawl_frequency_hours"`
	RateLimitPerMinute  int                   `yaml:"rate_limit_per_minute"`
	Headers             map[string]string     `yaml:"headers,omitempty"`
}

// Provides reports whether the source declares an endpoint for the entity type.
func (s Source) Provides(entity EntityType) bool {
	_, ok := s.Endpoints[entity]
	return ok
}

// Entities returns the declared entity types in processing order.
func (s Source) Entities() []EntityType {
	var out []EntityType
	for _, e := range EntityOrder {
		if s.Provides(e) {
			out = append(out, e)
		}
	}
	return out
}

// EntityURL resolves the endpoint path of an entity type against the base URL.
func (s Source) EntityURL(entity EntityType) (string, error) {
	path, ok := s.Endpoints[entity]
	if !ok {
		return "", fmt.Errorf("source %s does not provide %s", s.Name, entity)
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("source %s: invalid base url: %w", s.Name, err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("source %s: invalid %s path: %w", s.Name, entity, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Host returns the lower-cased host of the base URL.
func (s Source) Host() string {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Tier derives the run tier from the crawl frequency hint.
func (s Source) Tier() Tier {
	switch {
	case s.CrawlFrequencyHours <= 6:
		return TierFrequent
	case s.CrawlFrequencyHours <= 24:
		return TierDaily
	default:
		return TierWeekly
	}
}

func (s Source) clone() Source {
	c := s
	c.Endpoints = make(map[EntityType]string, len(s.Endpoints))
	for k, v := range s.Endpoints {
		c.Endpoints[k] = v
	}
	if s.Headers != nil {
		c.Headers = make(map[string]string, len(s.Headers))
		for k, v := range s.Headers {
			c.Headers[k] = v
		}
	}
	return c
}

func (s Source) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("source without name")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("source %s: base url %q is not absolute", s.Name, s.BaseURL)
	}
	if len(s.Endpoints) == 0 {
		return fmt.Errorf("source %s declares no endpoints", s.Name)
	}
	if s.RateLimitPerMinute < 0 || s.CrawlFrequencyHours < 0 {
		return fmt.Errorf("source %s: negative rate limit or crawl frequency", s.Name)
	}
	return nil
}
