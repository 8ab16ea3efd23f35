package scanner

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/aretw0/glossa/pkg/core"
)

const (
	// DefaultSearchLimit caps the matches returned by Search.
	DefaultSearchLimit = 10
	// MinQueryLength is the shortest query, in runes after trimming, that is searched.
	MinQueryLength = 2
	// ContextRadius is the number of runes kept on each side of a match.
	ContextRadius = 30
)

// Search finds case-insensitive occurrences of query in the visible text of
// doc, in document order, up to limit. Each match keeps the page's casing and
// a whitespace-collapsed window of surrounding text.
func Search(doc *html.Node, query string, limit int) []core.Match {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	body := Body(doc)
	if body == nil {
		return nil
	}

	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(query))
	matches := []core.Match{}

	for _, n := range visibleText(body) {
		for _, loc := range re.FindAllStringIndex(n.Data, -1) {
			matches = append(matches, core.Match{
				Term:    n.Data[loc[0]:loc[1]],
				Context: contextAround(n.Data, loc[0], loc[1]),
			})
			if len(matches) >= limit {
				return matches
			}
		}
	}
	return matches
}

// visibleText is like textNodes but also descends into tagged spans, whose
// text is still visible on the page.
func visibleText(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped(n) && !hasClass(n, TermClass) {
			return
		}
		if n.Type == html.TextNode {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func contextAround(text string, start, end int) string {
	from := start
	for i := 0; i < ContextRadius && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for i := 0; i < ContextRadius && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	return strings.Join(strings.Fields(text[from:to]), " ")
}
