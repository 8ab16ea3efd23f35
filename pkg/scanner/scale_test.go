package scanner

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/aretw0/glossa/pkg/core"
)

func scaleFixture(terms, paragraphs int) (core.Dictionary, string) {
	d := make(core.Dictionary, 0, terms)
	for i := 0; i < terms; i++ {
		d = append(d, core.Term{ID: int64(i + 1), Term: fmt.Sprintf("term%d", i), Comment: fmt.Sprintf("definition %d", i)})
	}
	var b strings.Builder
	b.WriteString("<html><head></head><body>")
	for i := 0; i < paragraphs; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d mentions term%d in passing.</p>", i, i%terms)
	}
	b.WriteString("</body></html>")
	return d, b.String()
}

// BenchmarkApply_1k_Terms measures one cold replacement pass.
// Run with: go test -bench=Apply -benchmem -run=^$ ./pkg/scanner/...
func BenchmarkApply_1k_Terms(b *testing.B) {
	d, src := scaleFixture(1000, 1000)
	m := Compile(d)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		b.StopTimer()
		doc, err := html.Parse(strings.NewReader(src))
		require.NoError(b, err)
		b.StartTimer()

		if created := ApplyMatcher(doc, m); created != 1000 {
			b.Fatalf("expected 1000 tags, got %d", created)
		}
	}
}

// BenchmarkApply_Warm measures a pass over an already tagged page.
func BenchmarkApply_Warm(b *testing.B) {
	d, src := scaleFixture(1000, 1000)
	m := Compile(d)
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(b, err)
	ApplyMatcher(doc, m)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if created := ApplyMatcher(doc, m); created != 0 {
			b.Fatalf("expected no new tags, got %d", created)
		}
	}
}

// TestScale_ColdVsWarm prints timings instead of a benchmark loop so the
// first and second pass can be compared directly.
func TestScale_ColdVsWarm(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping scale test in short mode")
	}
	d, src := scaleFixture(500, 2000)
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)

	start := time.Now()
	created := Apply(doc, d)
	cold := time.Since(start)

	start = time.Now()
	again := Apply(doc, d)
	warm := time.Since(start)

	require.Equal(t, 2000, created)
	require.Zero(t, again)
	t.Logf("cold: %v (%d tags), warm: %v", cold, created, warm)
}
