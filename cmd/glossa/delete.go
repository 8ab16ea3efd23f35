package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a term from the dictionary",
	Long:  `Delete removes the term with the given id. Unknown ids are reported but not an error.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Printf("Error: invalid id %q\n", args[0])
			os.Exit(1)
		}

		rt := openRuntime()
		defer rt.Close()

		ok, err := rt.Settings.DeleteTerm(context.Background(), id)
		if err != nil {
			fmt.Printf("Error deleting term: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Printf("No term with id %d\n", id)
			return
		}
		fmt.Printf("Term deleted: %d\n", id)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
