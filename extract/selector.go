// Package extract pulls structured records out of heterogeneous government and news
// markup. Every field is described by an ordered list of selector candidates; the first
// candidate that yields a non-empty value wins.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selector is one candidate for a field. An empty Query targets the container itself,
// an empty Attr reads the text content. Strip removes a case-insensitive prefix such as
// "mailto:".
type Selector struct {
	Query string `yaml:"query"`
	Attr  string `yaml:"attr,omitempty"`
	Strip string `yaml:"strip,omitempty"`
}

// Field is a named value with its ordered selector candidates.
type Field struct {
	Name      string
	Selectors []Selector
	// Pattern is scanned over the container text once every selector came up empty.
	Pattern *regexp.Regexp
	// Resolve makes relative URLs absolute against the page URL.
	Resolve bool
}

// Candidates is the full extraction recipe for one entity type.
type Candidates struct {
	// Containers are tried in order; the first one matching anything is used.
	Containers []string
	Fields     []Field
	// RowColumns maps table cells positionally when no container matched.
	// Nil disables the table row fallback.
	RowColumns []string
}

// Field returns the named field definition.
func (c Candidates) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Selector) value(container *goquery.Selection) string {
	target := container
	if s.Query != "" {
		target = container.Find(s.Query)
	}

	var out string
	target.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		var v string
		if s.Attr != "" {
			v, _ = el.Attr(s.Attr)
		} else {
			v = el.Text()
		}
		v = strings.TrimSpace(v)
		if s.Strip != "" {
			if len(v) >= len(s.Strip) && strings.EqualFold(v[:len(s.Strip)], s.Strip) {
				v = v[len(s.Strip):]
			}
			// mailto: and tel: links may carry query parameters
			if i := strings.IndexByte(v, '?'); i >= 0 {
				v = v[:i]
			}
		}
		v = collapse(v)
		if v == "" {
			return true
		}
		out = v
		return false
	})
	return out
}

// first walks the candidates of f in order.
func (f Field) first(container *goquery.Selection, base *url.URL) string {
	for _, s := range f.Selectors {
		if v := s.value(container); v != "" {
			return f.finish(v, base)
		}
	}
	if f.Pattern != nil {
		if m := f.Pattern.FindString(container.Text()); m != "" {
			return f.finish(m, base)
		}
	}
	return ""
}

func (f Field) finish(v string, base *url.URL) string {
	if !f.Resolve || base == nil {
		return v
	}
	ref, err := url.Parse(v)
	if err != nil {
		return v
	}
	return base.ResolveReference(ref).String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
