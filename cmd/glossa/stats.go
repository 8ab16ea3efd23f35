package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dictionary statistics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rt := openRuntime()
		defer rt.Close()

		s, err := rt.Service.Stats(context.Background())
		if err != nil {
			fmt.Printf("Error reading stats: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("total: %d\nactive: %d\n", s.Total, s.Active)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
