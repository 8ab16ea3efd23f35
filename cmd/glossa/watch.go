package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	lifecycleadapter "github.com/aretw0/glossa/pkg/adapters/lifecycle"
	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/tabs"
)

var (
	watchOut    string
	watchSettle time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Keep a highlighted copy of a page in sync with the dictionary",
	Long: `Open an HTML file as a tab and rewrite --out every time the dictionary
changes, whether through glossa itself or by editing the store directly.
Stops on interrupt.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src, err := os.ReadFile(args[0])
		if err != nil {
			fatal("Failed to read input", err)
		}
		abs, err := filepath.Abs(args[0])
		if err != nil {
			fatal("Failed to resolve path", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt := openRuntime()
		defer rt.Close()

		if err := rt.Start(ctx); err != nil {
			fatal("Failed to start relay", err)
		}
		tab, err := rt.Open(ctx, "file://"+filepath.ToSlash(abs), string(src))
		if err != nil {
			fatal("Failed to open page", err)
		}

		changes, err := rt.Service.Watch(ctx)
		if err != nil {
			fatal("Failed to watch dictionary", err)
		}
		source := lifecycleadapter.NewSource(changes)
		if err := source.Start(ctx); err != nil {
			fatal("Failed to start change source", err)
		}

		if err := render(rt.Tabs, tab.ID); err != nil {
			fatal("Failed to write output", err)
		}
		fmt.Printf("Watching %s (Ctrl+C to stop)\n", args[0])

		for ev := range source.Events() {
			change, ok := ev.(core.Change)
			if !ok {
				continue
			}
			slog.Debug("dictionary changed", "event", change.String())
			if !settle(ctx, rt.Tabs, tab.ID, change.NewValue) {
				slog.Warn("page did not catch up with the change", "tab", tab.ID)
			}
			if err := render(rt.Tabs, tab.ID); err != nil {
				slog.Error("failed to write output", "error", err)
			}
		}
		fmt.Println("Stopped")
	},
}

// settle waits until the tab's snapshot matches want, or watchSettle passes.
func settle(ctx context.Context, reg *tabs.Registry, id int, want core.Dictionary) bool {
	deadline := time.NewTimer(watchSettle)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		if page, ok := reg.Page(id); ok && page.Snapshot().Equal(want) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-tick.C:
		}
	}
}

func render(reg *tabs.Registry, id int) error {
	out, err := reg.HTML(id)
	if err != nil {
		return err
	}
	return writeOutput(watchOut, []byte(out))
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "Output file (default stdout)")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 2*time.Second, "How long to wait for the page to catch up with a change")
}
