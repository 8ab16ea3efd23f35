package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/scanner"
)

var (
	searchFile  string
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the visible text of an HTML document",
	Long: `Find case-insensitive occurrences of query in the visible text of a
document, in document order, each with the text around it.
Queries shorter than two characters find nothing.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src, err := readInput(searchFile)
		if err != nil {
			fatal("Failed to read input", err)
		}
		doc, err := html.Parse(bytes.NewReader(src))
		if err != nil {
			fatal("Failed to parse HTML", err)
		}

		matches := scanner.Search(doc, args[0], searchLimit)

		if searchJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if matches == nil {
				matches = []core.Match{}
			}
			if err := encoder.Encode(matches); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		if len(matches) == 0 {
			fmt.Println("No matches")
			return
		}
		for _, m := range matches {
			fmt.Printf("%s\t%s\n", m.Term, m.Context)
		}
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchFile, "file", "f", "", "HTML file (default stdin)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", scanner.DefaultSearchLimit, "Maximum matches")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")
}
