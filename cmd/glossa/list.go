package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	listJSON bool
	listPage int
)

var listCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List dictionary terms",
	Long:  `List terms page by page. An optional query filters by term or definition, ignoring case.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rt := openRuntime()
		defer rt.Close()

		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		view, err := rt.Settings.List(context.Background(), query, listPage)
		if err != nil {
			fmt.Printf("Error listing terms: %v\n", err)
			os.Exit(1)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(view); err != nil {
				fmt.Printf("Error encoding JSON: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if len(view.Items) == 0 {
			fmt.Println("Dictionary is empty")
			return
		}
		for _, t := range view.Items {
			def := t.Comment
			if strings.TrimSpace(def) == "" {
				def = "(inactive)"
			}
			fmt.Printf("%d\t%s\t%s\n", t.ID, t.Term, def)
		}
		if view.TotalPages > 1 {
			fmt.Printf("page %d/%d\n", view.Page, view.TotalPages)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
}
