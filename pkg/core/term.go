// Package core holds the glossary domain: term records, the dictionary they
// form, the storage contract and the settings service that mutates it.
package core

import (
	"strings"
	"time"
)

// DictionaryKey is the single storage key the dictionary lives under.
const DictionaryKey = "dictionary"

// Term is a user-defined glossary entry.
// A Term with an empty Comment is inactive: it is listed but never highlighted.
type Term struct {
	ID        int64     `json:"id" yaml:"id"`
	Term      string    `json:"term" yaml:"term"`
	Comment   string    `json:"comment" yaml:"comment"`
	DateAdded time.Time `json:"dateAdded" yaml:"dateAdded"`
}

// Active reports whether the term participates in page highlighting.
func (t Term) Active() bool {
	return strings.TrimSpace(t.Comment) != ""
}

// Dictionary is the ordered sequence of terms. Insertion order is display order.
type Dictionary []Term

// Stats summarizes a dictionary.
type Stats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// Clone returns a copy that shares no backing array with d.
// A nil dictionary clones to an empty, non-nil one.
func (d Dictionary) Clone() Dictionary {
	out := make(Dictionary, len(d))
	copy(out, d)
	return out
}

// Equal reports whether d and o hold the same records in the same order.
func (d Dictionary) Equal(o Dictionary) bool {
	if len(d) != len(o) {
		return false
	}
	for i := range d {
		a, b := d[i], o[i]
		if a.ID != b.ID || a.Term != b.Term || a.Comment != b.Comment || !a.DateAdded.Equal(b.DateAdded) {
			return false
		}
	}
	return true
}

// Active returns the terms with a non-empty definition, in stored order.
func (d Dictionary) Active() Dictionary {
	var out Dictionary
	for _, t := range d {
		if t.Active() {
			out = append(out, t)
		}
	}
	return out
}

// Stats counts total and active records.
func (d Dictionary) Stats() Stats {
	s := Stats{Total: len(d)}
	for _, t := range d {
		if t.Active() {
			s.Active++
		}
	}
	return s
}

// IndexOf returns the position of the record with the given id, or -1.
func (d Dictionary) IndexOf(id int64) int {
	for i, t := range d {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether a record with the same term exists, ignoring case.
func (d Dictionary) Contains(term string) bool {
	term = strings.TrimSpace(term)
	for _, t := range d {
		if strings.EqualFold(t.Term, term) {
			return true
		}
	}
	return false
}

// Lookup finds the active record whose term equals s, ignoring case.
func (d Dictionary) Lookup(s string) (Term, bool) {
	for _, t := range d {
		if t.Active() && strings.EqualFold(t.Term, s) {
			return t, true
		}
	}
	return Term{}, false
}

// Filter keeps records whose term or comment contains query, ignoring case.
// An empty query returns d unchanged.
func (d Dictionary) Filter(query string) Dictionary {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return d
	}
	var out Dictionary
	for _, t := range d {
		if strings.Contains(strings.ToLower(t.Term), query) ||
			strings.Contains(strings.ToLower(t.Comment), query) {
			out = append(out, t)
		}
	}
	return out
}

// Match is a single in-page search hit.
type Match struct {
	Term    string `json:"term"`
	Context string `json:"context"`
}
