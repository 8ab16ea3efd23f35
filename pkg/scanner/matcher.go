// Package scanner finds dictionary terms in page text, tags them in the
// document tree, and searches visible text.
package scanner

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/glossa/pkg/core"
)

// Span is one tagged occurrence inside a piece of text. Start and End are
// byte offsets; Text keeps the casing found in the page.
type Span struct {
	Start      int
	End        int
	Text       string
	Definition string
	Term       core.Term
}

// Segment is a slice of text that is either plain or a tagged match.
type Segment struct {
	Text       string
	Definition string
	Matched    bool
}

type rule struct {
	re    *regexp.Regexp
	term  core.Term
	lead  bool // term starts with a word character
	trail bool // term ends with a word character
	order int
}

// Matcher finds whole-word, case-insensitive occurrences of active terms.
// Overlaps resolve to the leftmost start, then the longest match, then the
// earliest term in dictionary order; returned spans never overlap.
type Matcher struct {
	rules []rule
}

// Compile builds a Matcher over the active terms of d.
func Compile(d core.Dictionary) *Matcher {
	m := &Matcher{}
	for i, t := range d.Active() {
		literal := strings.TrimSpace(t.Term)
		if literal == "" {
			continue
		}
		first, _ := utf8.DecodeRuneInString(literal)
		last, _ := utf8.DecodeLastRuneInString(literal)
		m.rules = append(m.rules, rule{
			re:    regexp.MustCompile(`(?i)` + regexp.QuoteMeta(literal)),
			term:  t,
			lead:  isWordRune(first),
			trail: isWordRune(last),
			order: i,
		})
	}
	return m
}

// Empty reports whether the matcher has no terms.
func (m *Matcher) Empty() bool {
	return m == nil || len(m.rules) == 0
}

// Len is the number of compiled terms.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// Find returns the non-overlapping spans of text, in order.
func (m *Matcher) Find(text string) []Span {
	if m.Empty() || text == "" {
		return nil
	}

	type hit struct {
		start, end int
	}
	// Next valid hit per rule at or after the cursor; recomputed lazily.
	next := make([]hit, len(m.rules))
	done := make([]bool, len(m.rules))
	for i := range next {
		next[i] = hit{-1, -1}
	}

	var spans []Span
	cursor := 0
	for cursor < len(text) {
		best := -1
		for i := range m.rules {
			if done[i] {
				continue
			}
			if next[i].start < cursor {
				s, e, ok := m.rules[i].next(text, cursor)
				if !ok {
					done[i] = true
					continue
				}
				next[i] = hit{s, e}
			}
			if best == -1 || better(next[i].start, next[i].end, m.rules[i].order,
				next[best].start, next[best].end, m.rules[best].order) {
				best = i
			}
		}
		if best == -1 {
			break
		}

		h := next[best]
		r := m.rules[best]
		spans = append(spans, Span{
			Start:      h.start,
			End:        h.end,
			Text:       text[h.start:h.end],
			Definition: strings.TrimSpace(r.term.Comment),
			Term:       r.term,
		})
		cursor = h.end
	}
	return spans
}

func better(s1, e1, o1, s2, e2, o2 int) bool {
	if s1 != s2 {
		return s1 < s2
	}
	if e1-s1 != e2-s2 {
		return e1-s1 > e2-s2
	}
	return o1 < o2
}

// next finds the first occurrence at or after pos whose edges sit on word
// boundaries in the full text.
func (r *rule) next(text string, pos int) (int, int, bool) {
	for pos < len(text) {
		loc := r.re.FindStringIndex(text[pos:])
		if loc == nil {
			return 0, 0, false
		}
		start, end := pos+loc[0], pos+loc[1]
		if end > start && r.bounded(text, start, end) {
			return start, end, true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		if size == 0 {
			size = 1
		}
		pos = start + size
	}
	return 0, 0, false
}

// bounded applies \b semantics on the edges that start or end with a word
// character, so terms such as "C++" still match before punctuation.
func (r *rule) bounded(text string, start, end int) bool {
	if r.lead && start > 0 && isWordByte(text[start-1]) {
		return false
	}
	if r.trail && end < len(text) && isWordByte(text[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func isWordRune(r rune) bool {
	return r < utf8.RuneSelf && isWordByte(byte(r))
}

// Segments splits text into plain and matched pieces.
func (m *Matcher) Segments(text string) []Segment {
	spans := m.Find(text)
	if len(spans) == 0 {
		if text == "" {
			return nil
		}
		return []Segment{{Text: text}}
	}

	var out []Segment
	last := 0
	for _, s := range spans {
		if s.Start > last {
			out = append(out, Segment{Text: text[last:s.Start]})
		}
		out = append(out, Segment{Text: s.Text, Definition: s.Definition, Matched: true})
		last = s.End
	}
	if last < len(text) {
		out = append(out, Segment{Text: text[last:]})
	}
	return out
}

// Highlight is Compile(d).Segments(text).
func Highlight(text string, d core.Dictionary) []Segment {
	return Compile(d).Segments(text)
}

// Terms lists the compiled terms in dictionary order.
func (m *Matcher) Terms() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r.term.Term)
	}
	return out
}
