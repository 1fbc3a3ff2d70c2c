package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var bodyContainers = []string{"article", "[itemprop='articleBody']", ".story-body", ".article-body", "main"}

// ArticleBody returns the paragraph text of a news article page, or "" when none of the
// body containers is present.
func ArticleBody(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, aside, footer, figure").Remove()

	for _, pattern := range bodyContainers {
		var paras []string
		doc.Find(pattern).First().Find("p").Each(func(_ int, p *goquery.Selection) {
			if t := collapse(p.Text()); t != "" {
				paras = append(paras, t)
			}
		})
		if len(paras) > 0 {
			return strings.Join(paras, "\n\n")
		}
	}
	return ""
}
