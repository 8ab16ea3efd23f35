package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/aretw0/glossa/pkg/adapters/fs"
	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/scanner"
)

func main() {
	count := flag.Int("terms", 1000, "Number of terms to generate")
	paragraphs := flag.Int("paragraphs", 2000, "Number of paragraphs in the page")
	keep := flag.Bool("keep", false, "Keep the benchmark glossary after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "glossa_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	// 1. Dictionary
	fmt.Printf("Generating %d terms in %s...\n", *count, benchDir)
	startGen := time.Now()
	d := make(core.Dictionary, 0, *count)
	for i := 0; i < *count; i++ {
		d = append(d, core.Term{
			ID:        int64(i + 1),
			Term:      fmt.Sprintf("term%d", i),
			Comment:   fmt.Sprintf("definition of term %d", i),
			DateAdded: time.Now().UTC(),
		})
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	repo := fs.NewRepository(fs.Config{Path: benchDir, AutoInit: true, Logger: logger})
	ctx := context.TODO()
	if err := repo.Initialize(ctx); err != nil {
		panic(err)
	}
	if err := repo.Set(ctx, core.DictionaryKey, d); err != nil {
		panic(err)
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	startLoad := time.Now()
	loaded, _, err := repo.Get(ctx, core.DictionaryKey)
	if err != nil {
		panic(err)
	}
	load := time.Since(startLoad)

	// 2. Page
	var b strings.Builder
	b.WriteString("<html><head></head><body>")
	for i := 0; i < *paragraphs; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d mentions term%d and term%d in passing.</p>", i, i%*count, (i*7)%*count)
	}
	b.WriteString("</body></html>")
	src := b.String()

	// Run 1: Cold (every occurrence is new)
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		panic(err)
	}
	startCompile := time.Now()
	m := scanner.Compile(loaded)
	compile := time.Since(startCompile)

	startCold := time.Now()
	created := scanner.ApplyMatcher(doc, m)
	cold := time.Since(startCold)

	// Run 2: Warm (everything is tagged already)
	startWarm := time.Now()
	again := scanner.ApplyMatcher(doc, m)
	warm := time.Since(startWarm)

	// Run 3: Refresh after every definition changed
	for i := range loaded {
		loaded[i].Comment += " (revised)"
	}
	startRefresh := time.Now()
	updated, removed := scanner.Refresh(doc, loaded)
	refresh := time.Since(startRefresh)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d terms, %d paragraphs):\n", *count, *paragraphs)
	fmt.Printf("  Load:    %v\n", load)
	fmt.Printf("  Compile: %v\n", compile)
	fmt.Printf("  Cold:    %v (tagged %d)\n", cold, created)
	fmt.Printf("  Warm:    %v (tagged %d)\n", warm, again)
	fmt.Printf("  Refresh: %v (updated %d, removed %d)\n", refresh, updated, removed)
	fmt.Printf("--------------------------------------------------\n")
}
