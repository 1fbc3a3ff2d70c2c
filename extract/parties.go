package extract

import (
	"regexp"
	"sort"
	"strings"
)

// KnownParties lists federal, provincial and territorial party names as they appear on
// member listings.
var KnownParties = []string{
	"Liberal",
	"Conservative",
	"Progressive Conservative",
	"New Democratic Party",
	"NDP",
	"Bloc Québécois",
	"Green",
	"Green Party",
	"People's Party",
	"Independent",
	"Coalition Avenir Québec",
	"CAQ",
	"Parti Québécois",
	"Québec solidaire",
	"United Conservative",
	"Saskatchewan Party",
	"BC United",
	"Yukon Party",
	"Non-affiliated",
}

type partyPattern struct {
	name string
	re   *regexp.Regexp
}

// partyPatterns match each party case-insensitively between non-letters, longest
// name first. Group 2 is the party itself.
var partyPatterns = func() []partyPattern {
	p := append([]string(nil), KnownParties...)
	sort.SliceStable(p, func(i, j int) bool { return len(p[i]) > len(p[j]) })
	out := make([]partyPattern, len(p))
	for i, name := range p {
		out[i] = partyPattern{
			name: name,
			re:   regexp.MustCompile(`(?i)(^|[^\pL\pN])(` + regexp.QuoteMeta(name) + `)($|[^\pL\pN])`),
		}
	}
	return out
}()

// SplitAroundParty splits free text like "Jane Doe Liberal Test Riding" into the name
// before the party and the riding after it. Without a known party the whole text is
// returned as the name.
func SplitAroundParty(text string) (name, party, riding string) {
	text = collapse(text)
	for _, p := range partyPatterns {
		m := p.re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		start, end := m[4], m[5]
		return trimSeparators(text[:start]), text[start:end], trimSeparators(text[end:])
	}
	return text, "", ""
}

func trimSeparators(s string) string {
	return strings.Trim(s, " \t-–|,;:()/")
}
