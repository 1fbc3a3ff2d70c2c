package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"civicwatch/sources"
)

// RawRecord is an unnormalized entity scraped from one page.
type RawRecord struct {
	Kind      sources.EntityType
	Fields    map[string]string
	SourceURL string
}

// Get returns a field value or "".
func (r RawRecord) Get(name string) string {
	return r.Fields[name]
}

// Extract returns one record per matched container. No match and unparsable markup
// both give an empty result; extraction never fails.
func Extract(html []byte, entity sources.EntityType, c Candidates, pageURL string) []RawRecord {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	for _, pattern := range c.Containers {
		matched := doc.Find(pattern)
		if matched.Length() == 0 {
			continue
		}
		var out []RawRecord
		matched.Each(func(_ int, el *goquery.Selection) {
			rec := RawRecord{Kind: entity, Fields: map[string]string{}, SourceURL: pageURL}
			for _, f := range c.Fields {
				if v := f.first(el, base); v != "" {
					rec.Fields[f.Name] = v
				}
			}
			if len(rec.Fields) > 0 {
				out = append(out, rec)
			}
		})
		return out
	}

	if c.RowColumns != nil {
		return fromRows(doc, entity, c, base, pageURL)
	}
	return nil
}

// fromRows maps table cells positionally. A row collapsed into a single cell is split
// around a known party name for officials.
func fromRows(doc *goquery.Document, entity sources.EntityType, c Candidates, base *url.URL, pageURL string) []RawRecord {
	var out []RawRecord
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, collapse(td.Text()))
		})
		if len(cells) == 0 {
			if row.Find("th").Length() > 0 {
				return
			}
			cells = []string{collapse(row.Text())}
		}

		rec := RawRecord{Kind: entity, Fields: map[string]string{}, SourceURL: pageURL}
		if len(cells) == 1 && entity == sources.EntityOfficials {
			name, party, riding := SplitAroundParty(cells[0])
			set(rec.Fields, "name", name)
			set(rec.Fields, "party", party)
			set(rec.Fields, "constituency", riding)
		} else {
			for i, col := range c.RowColumns {
				if i < len(cells) {
					set(rec.Fields, col, cells[i])
				}
			}
		}

		for _, f := range c.Fields {
			if rec.Fields[f.Name] != "" || f.Pattern == nil {
				continue
			}
			if m := f.Pattern.FindString(row.Text()); m != "" {
				rec.Fields[f.Name] = f.finish(m, base)
			}
		}
		if len(rec.Fields) > 0 {
			out = append(out, rec)
		}
	})
	return out
}

func set(fields map[string]string, key, value string) {
	value = strings.TrimSpace(value)
	if value != "" {
		fields[key] = value
	}
}
