package scanner

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/aretw0/glossa/pkg/core"
)

const (
	// TermClass marks a tagged occurrence.
	TermClass = "dictionary-term"
	// ContainerClass marks the inline element that replaced a text node.
	ContainerClass = "dictionary-terms"
	// LongDefinition is the rune count above which a definition is flagged
	// with data-definition-length="long" so the tooltip wraps.
	LongDefinition = 60
)

var (
	bodySelector   = cascadia.MustCompile("body")
	taggedSelector = cascadia.MustCompile("span." + TermClass)
	containerSel   = cascadia.MustCompile("span." + ContainerClass)
)

// Body returns the body element, or doc itself for fragments without one.
func Body(doc *html.Node) *html.Node {
	if doc == nil {
		return nil
	}
	if body := bodySelector.MatchFirst(doc); body != nil {
		return body
	}
	return doc
}

// skipped reports elements whose subtree is never scanned.
func skipped(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Textarea, atom.Input, atom.Noscript, atom.Template:
		return true
	}
	return hasClass(n, TermClass)
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool { return a.Key == key })
}

// textNodes collects the scannable text nodes under root in document order.
// Collecting first lets callers replace nodes without disturbing the walk.
func textNodes(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipped(n) {
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

// Apply tags every occurrence of the active terms of d in the body of doc and
// returns the number of tagged spans created. Text already inside a tagged
// span is never rewrapped, so repeated calls are no-ops.
func Apply(doc *html.Node, d core.Dictionary) int {
	return ApplyMatcher(doc, Compile(d))
}

// ApplyMatcher is Apply with a precompiled matcher.
func ApplyMatcher(doc *html.Node, m *Matcher) int {
	if m.Empty() {
		return 0
	}
	body := Body(doc)
	if body == nil {
		return 0
	}

	created := 0
	for _, n := range textNodes(body) {
		spans := m.Find(n.Data)
		if len(spans) == 0 {
			continue
		}
		n.Parent.InsertBefore(wrap(n.Data, spans), n)
		n.Parent.RemoveChild(n)
		created += len(spans)
	}
	return created
}

// wrap builds the container that replaces a text node.
func wrap(text string, spans []Span) *html.Node {
	container := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: ContainerClass}},
	}

	last := 0
	for _, s := range spans {
		if s.Start > last {
			container.AppendChild(&html.Node{Type: html.TextNode, Data: text[last:s.Start]})
		}
		container.AppendChild(tagged(s.Text, s.Definition))
		last = s.End
	}
	if last < len(text) {
		container.AppendChild(&html.Node{Type: html.TextNode, Data: text[last:]})
	}
	return container
}

func tagged(match, definition string) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: TermClass},
			{Key: "data-term", Val: match},
			{Key: "data-definition", Val: definition},
		},
	}
	if utf8.RuneCountInString(definition) > LongDefinition {
		span.Attr = append(span.Attr, html.Attribute{Key: "data-definition-length", Val: "long"})
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: match})
	return span
}

// Refresh reconciles spans tagged under an older dictionary with d: spans
// whose term is still active get the current definition, the others are
// unwrapped back to text. Containers left without tagged spans collapse
// into plain text again. It returns the number of updated and removed spans.
func Refresh(doc *html.Node, d core.Dictionary) (updated, removed int) {
	body := Body(doc)
	if body == nil {
		return 0, 0
	}

	for _, span := range taggedSelector.MatchAll(body) {
		if !hasClass(span, TermClass) {
			continue
		}
		t, ok := d.Lookup(attr(span, "data-term"))
		if !ok {
			unwrap(span)
			removed++
			continue
		}

		def := strings.TrimSpace(t.Comment)
		if attr(span, "data-definition") != def {
			setAttr(span, "data-definition", def)
			updated++
		}
		if utf8.RuneCountInString(def) > LongDefinition {
			setAttr(span, "data-definition-length", "long")
		} else {
			removeAttr(span, "data-definition-length")
		}
	}

	if removed == 0 {
		return updated, removed
	}

	for _, c := range containerSel.MatchAll(body) {
		if taggedSelector.MatchFirst(c) == nil {
			unwrap(c)
		}
	}
	mergeText(body)
	return updated, removed
}

// Clear unwraps every tagged span and container in the body of doc and
// rejoins the text they split. It returns the number of spans removed.
func Clear(doc *html.Node) int {
	body := Body(doc)
	if body == nil {
		return 0
	}

	spans := taggedSelector.MatchAll(body)
	for _, span := range spans {
		unwrap(span)
	}
	for _, c := range containerSel.MatchAll(body) {
		unwrap(c)
	}
	mergeText(body)
	return len(spans)
}

// unwrap replaces n with its children.
func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

// mergeText joins adjacent text siblings so unwrapped matches can be found
// again as a whole.
func mergeText(root *html.Node) {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			for c.NextSibling != nil && c.NextSibling.Type == html.TextNode {
				next := c.NextSibling
				c.Data += next.Data
				root.RemoveChild(next)
			}
			continue
		}
		mergeText(c)
	}
}

// Count returns the number of tagged spans in the body of doc.
func Count(doc *html.Node) int {
	body := Body(doc)
	if body == nil {
		return 0
	}
	return len(taggedSelector.MatchAll(body))
}
