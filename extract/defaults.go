package extract

import (
	"regexp"

	"civicwatch/sources"
)

var (
	BillNumberPattern = regexp.MustCompile(`\b[A-Z]{1,2}-\d{1,4}\b`)
	emailPattern      = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern      = regexp.MustCompile(`\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]\d{4}`)
)

func text(queries ...string) []Selector {
	out := make([]Selector, len(queries))
	for i, q := range queries {
		out[i] = Selector{Query: q}
	}
	return out
}

var defaults = map[sources.EntityType]Candidates{
	sources.EntityOfficials: {
		Containers: []string{".member", ".member-card", ".mp-tile", ".senator", ".councillor", ".mla", "li.person"},
		Fields: []Field{
			{Name: "name", Selectors: text(".name", ".member-name", "h2", "h3", "h4", "")},
			{Name: "party", Selectors: append(text(".party", ".member-party", ".caucus"), Selector{Query: "[data-party]", Attr: "data-party"})},
			{Name: "constituency", Selectors: text(".constituency", ".riding", ".electoral-district", ".district", ".ward")},
			{Name: "position", Selectors: text(".position", ".role", ".member-title")},
			{Name: "email", Selectors: []Selector{{Query: "a[href^='mailto:']", Attr: "href", Strip: "mailto:"}, {Query: ".email"}}, Pattern: emailPattern},
			{Name: "phone", Selectors: []Selector{{Query: "a[href^='tel:']", Attr: "href", Strip: "tel:"}, {Query: ".phone"}, {Query: ".telephone"}}, Pattern: phonePattern},
			{Name: "office", Selectors: text(".office", ".address", "address")},
			{Name: "website", Selectors: []Selector{{Query: "a.website", Attr: "href"}, {Query: "a[rel='external']", Attr: "href"}}, Resolve: true},
		},
		RowColumns: []string{"name", "party", "constituency"},
	},
	sources.EntityBills: {
		Containers: []string{".bill-item", ".bill", "tr.bill", "li.bill"},
		Fields: []Field{
			{Name: "number", Selectors: append(text(".bill-number", ".number"), Selector{Query: "[data-bill-number]", Attr: "data-bill-number"}), Pattern: BillNumberPattern},
			{Name: "title", Selectors: text(".bill-title", ".title", "h3", "h4", "a")},
			{Name: "status", Selectors: text(".status", ".bill-status", ".stage")},
			{Name: "sponsor", Selectors: text(".sponsor", ".bill-sponsor")},
			{Name: "summary", Selectors: text(".summary", ".description")},
			{Name: "introduced", Selectors: []Selector{{Query: "time", Attr: "datetime"}, {Query: ".introduced"}, {Query: ".date"}}},
		},
		RowColumns: []string{"number", "title", "status"},
	},
	sources.EntityVotes: {
		Containers: []string{".vote-record", ".vote", ".division"},
		Fields: []Field{
			{Name: "bill_number", Selectors: text(".bill-number", ".bill"), Pattern: BillNumberPattern},
			{Name: "date", Selectors: []Selector{{Query: "time", Attr: "datetime"}, {Query: ".date"}, {Query: ".vote-date"}}},
			{Name: "vote_type", Selectors: text(".vote-type", ".type")},
			{Name: "result", Selectors: text(".result", ".decision")},
			{Name: "yes", Selectors: text(".yeas", ".yes")},
			{Name: "no", Selectors: text(".nays", ".no")},
			{Name: "abstentions", Selectors: text(".abstentions", ".paired")},
			{Name: "chamber", Selectors: text(".chamber")},
		},
		RowColumns: []string{"date", "bill_number", "result", "yes", "no"},
	},
	sources.EntityStatements: {
		Containers: []string{".statement", ".intervention", ".hansard-statement", "blockquote"},
		Fields: []Field{
			{Name: "speaker", Selectors: text(".speaker", ".member-name", "strong", "cite")},
			{Name: "content", Selectors: text(".content", ".text", "p")},
			{Name: "date", Selectors: []Selector{{Query: "time", Attr: "datetime"}, {Query: ".date"}}},
			{Name: "context", Selectors: text(".context", ".topic", "h4")},
		},
	},
	sources.EntityCommittees: {
		Containers: []string{".committee", ".committee-item", "li.committee"},
		Fields: []Field{
			{Name: "name", Selectors: text(".committee-name", ".name", "h3", "a", "")},
			{Name: "chair", Selectors: text(".chair", ".committee-chair")},
			{Name: "members", Selectors: text(".members", ".member-count")},
		},
		RowColumns: []string{"name", "chair", "members"},
	},
	sources.EntityElections: {
		Containers: []string{".election", ".election-result", "tr.election"},
		Fields: []Field{
			{Name: "name", Selectors: text(".election-name", "h3", "a")},
			{Name: "date", Selectors: []Selector{{Query: "time", Attr: "datetime"}, {Query: ".date"}}},
			{Name: "type", Selectors: text(".election-type", ".type")},
			{Name: "turnout", Selectors: text(".turnout")},
			{Name: "winner", Selectors: text(".winner", ".elected")},
		},
		RowColumns: []string{"name", "date", "turnout", "winner"},
	},
	sources.EntityNews: {
		Containers: []string{"article", ".story", ".card", ".headline-item"},
		Fields: []Field{
			{Name: "title", Selectors: text("h2 a", "h3 a", "h2", "h3", ".headline", ".title")},
			{Name: "url", Selectors: []Selector{{Query: "h2 a", Attr: "href"}, {Query: "h3 a", Attr: "href"}, {Query: "a", Attr: "href"}}, Resolve: true},
			{Name: "author", Selectors: text(".author", ".byline", "[rel='author']")},
			{Name: "published", Selectors: []Selector{{Query: "time", Attr: "datetime"}, {Query: ".date"}, {Query: ".timestamp"}}},
			{Name: "summary", Selectors: text(".summary", ".deck", ".description", "p")},
		},
	},
}

// DefaultCandidates returns the built-in recipe for an entity type.
func DefaultCandidates(entity sources.EntityType) Candidates {
	return defaults[entity]
}
