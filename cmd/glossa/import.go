package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/glossa/pkg/adapters/fs"
	"github.com/aretw0/glossa/pkg/core"
)

var (
	importFormat string
	importReason string
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Merge terms from a JSON, YAML or CSV file",
	Long: `Merge terms from a file into the dictionary. Terms already present
(ignoring case) are skipped. The format follows the file extension unless --as is given.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ext := importFormat
		if ext == "" {
			ext = filepath.Ext(args[0])
		}
		ser, err := fs.SerializerFor(ext)
		if err != nil {
			fatal("Invalid format", err)
		}

		src, err := readInput(args[0])
		if err != nil {
			fatal("Failed to read input", err)
		}
		terms, err := ser.Parse(bytes.NewReader(src))
		if err != nil {
			fatal("Failed to parse input", err)
		}

		rt := openRuntime()
		defer rt.Close()

		ctx := context.Background()
		reason := importReason
		if reason == "" {
			reason = fmt.Sprintf("import %s", filepath.Base(args[0]))
		}
		ctx = context.WithValue(ctx, core.ChangeReasonKey, reason)

		n, err := rt.Service.ImportTerms(ctx, terms)
		if err != nil {
			fatal("Failed to import terms", err)
		}
		fmt.Printf("Imported %d of %d terms\n", n, len(terms))
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importFormat, "as", "", "Input format (json, yaml, csv)")
	importCmd.Flags().StringVarP(&importReason, "message", "m", "", "Change reason (commit message)")
}
