package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/glossa/pkg/core"
)

var historyLimit int

// historian is implemented by versioned stores.
type historian interface {
	History(ctx context.Context, key string, limit int) ([]string, error)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the change log of the dictionary",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rt := openRuntime()
		defer rt.Close()

		h, ok := rt.Store.(historian)
		if !ok {
			fatal("History unavailable", fmt.Errorf("the %s adapter keeps no history", adapterName()))
		}

		entries, err := h.History(context.Background(), core.DictionaryKey, historyLimit)
		if err != nil {
			fatal("Failed to read history", err)
		}
		if len(entries) == 0 {
			fmt.Println("No history")
			return
		}
		for _, e := range entries {
			fmt.Println(e)
		}
	},
}

func adapterName() string {
	if adapter != "" {
		return adapter
	}
	if fileConfig.Adapter != "" {
		return fileConfig.Adapter
	}
	return "fs"
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum entries")
}
