package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/glossa/pkg/core"
)

var addReason string

var addCmd = &cobra.Command{
	Use:   "add [term] [definition...]",
	Short: "Add a term to the dictionary",
	Long: `Add a term with its definition. Terms are unique ignoring case and
definitions are stored exactly as typed, trimmed of surrounding space.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		rt := openRuntime()
		defer rt.Close()

		ctx := context.Background()
		if addReason != "" {
			ctx = context.WithValue(ctx, core.ChangeReasonKey, addReason)
		}

		term, err := rt.Settings.AddTerm(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding term: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Term added: %s (%d)\n", term.Term, term.ID)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addReason, "message", "m", "", "Change reason (commit message)")
}
