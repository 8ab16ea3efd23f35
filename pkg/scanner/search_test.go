package scanner

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/glossa/pkg/core"
)

func TestSearch(t *testing.T) {
	t.Run("Finds All Occurrences With Context", func(t *testing.T) {
		doc := parse(t, `<p>The quick API call uses API keys</p>`)

		matches := Search(doc, "api", 0)

		require.Len(t, matches, 2)
		for _, m := range matches {
			assert.Equal(t, "API", m.Term)
			assert.Equal(t, "The quick API call uses API keys", m.Context)
		}
	})

	t.Run("Short Queries Return Nothing", func(t *testing.T) {
		doc := parse(t, `<p>a b c</p>`)
		assert.Nil(t, Search(doc, "a", 0))
		assert.Nil(t, Search(doc, "  a  ", 0))
		assert.Nil(t, Search(doc, "", 0))
	})

	t.Run("No Match Is Empty Not Nil", func(t *testing.T) {
		doc := parse(t, `<p>nothing here</p>`)
		matches := Search(doc, "cache", 0)
		assert.NotNil(t, matches)
		assert.Empty(t, matches)
	})

	t.Run("Caps Results", func(t *testing.T) {
		doc := parse(t, "<p>"+strings.Repeat("api ", 25)+"</p>")
		assert.Len(t, Search(doc, "api", 0), DefaultSearchLimit)
		assert.Len(t, Search(doc, "api", 3), 3)
	})

	t.Run("Collapses Whitespace", func(t *testing.T) {
		doc := parse(t, "<p>foo\n\n   api   \t bar</p>")
		matches := Search(doc, "api", 0)
		require.Len(t, matches, 1)
		assert.Equal(t, "foo api bar", matches[0].Context)
	})

	t.Run("Windows Around Long Text", func(t *testing.T) {
		text := strings.Repeat("é", 50) + "cache" + strings.Repeat("ü", 50)
		doc := parse(t, "<p>"+text+"</p>")

		matches := Search(doc, "cache", 0)

		require.Len(t, matches, 1)
		ctx := matches[0].Context
		assert.True(t, utf8.ValidString(ctx))
		assert.Equal(t, strings.Repeat("é", ContextRadius)+"cache"+strings.Repeat("ü", ContextRadius), ctx)
	})

	t.Run("Ignores Scripts And Styles", func(t *testing.T) {
		doc := parse(t, `<html><head><style>.api{}</style></head><body><script>api()</script><p>the api</p></body></html>`)
		assert.Equal(t, []core.Match{{Term: "api", Context: "the api"}}, Search(doc, "api", 0))
	})

	t.Run("Sees Text Inside Tagged Spans", func(t *testing.T) {
		doc := parse(t, `<p>The cache is warm.</p>`)
		Apply(doc, terms("cache", "stored data"))

		matches := Search(doc, "cache", 0)
		require.Len(t, matches, 1)
		assert.Equal(t, "cache", matches[0].Term)
		assert.Equal(t, "cache", matches[0].Context)
	})

	t.Run("Query Metacharacters Are Literal", func(t *testing.T) {
		doc := parse(t, `<p>C++ and Cxx</p>`)
		matches := Search(doc, "c++", 0)
		require.Len(t, matches, 1)
		assert.Equal(t, "C++", matches[0].Term)
	})
}
