package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/aretw0/glossa/pkg/scanner"
)

var (
	highlightOut      string
	highlightText     bool
	highlightSanitize bool
)

var highlightCmd = &cobra.Command{
	Use:   "highlight [file]",
	Short: "Tag dictionary terms in an HTML document",
	Long: `Read an HTML document (or stdin) and write it back with every active
term wrapped in a tooltip span and the tooltip stylesheet added to <head>.
With --text the input is plain text and matches are printed as [term: definition].
With --sanitize scripts, handlers and other unsafe markup are removed from the
input before tagging, so an untrusted page can be republished.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		src, err := readInput(name)
		if err != nil {
			fatal("Failed to read input", err)
		}

		rt := openRuntime()
		defer rt.Close()

		d, err := rt.Service.Dictionary(context.Background())
		if err != nil {
			fatal("Failed to load dictionary", err)
		}

		if highlightText {
			var b strings.Builder
			for _, seg := range scanner.Highlight(string(src), d) {
				if seg.Matched {
					fmt.Fprintf(&b, "[%s: %s]", seg.Text, seg.Definition)
					continue
				}
				b.WriteString(seg.Text)
			}
			if err := writeOutput(highlightOut, []byte(b.String())); err != nil {
				fatal("Failed to write output", err)
			}
			return
		}

		if highlightSanitize {
			src = bluemonday.UGCPolicy().SanitizeBytes(src)
		}
		doc, err := html.Parse(bytes.NewReader(src))
		if err != nil {
			fatal("Failed to parse HTML", err)
		}
		created := scanner.Apply(doc, d)
		if created > 0 {
			scanner.EnsureStyles(doc)
		}

		var buf bytes.Buffer
		if err := html.Render(&buf, doc); err != nil {
			fatal("Failed to render HTML", err)
		}
		if err := writeOutput(highlightOut, buf.Bytes()); err != nil {
			fatal("Failed to write output", err)
		}
		fmt.Fprintf(os.Stderr, "%d occurrences tagged\n", created)
	},
}

func init() {
	rootCmd.AddCommand(highlightCmd)
	highlightCmd.Flags().StringVarP(&highlightOut, "out", "o", "", "Output file (default stdout)")
	highlightCmd.Flags().BoolVar(&highlightText, "text", false, "Treat input as plain text")
	highlightCmd.Flags().BoolVar(&highlightSanitize, "sanitize", false, "Strip unsafe markup from the input before tagging")
}
