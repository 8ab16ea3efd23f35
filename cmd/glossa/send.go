package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/glossa/pkg/message"
)

var (
	sendTab  int
	sendOpen []string
)

var sendCmd = &cobra.Command{
	Use:   "send [request]",
	Short: "Send a raw JSON message and print the JSON answer",
	Long: `Start the runtime, optionally open HTML files as tabs, and send one
request in its wire form, e.g. {"action":"getStats"}. The request is read from
the argument or stdin. It goes to the relay unless --tab names an open tab.`,
	Example: `  glossa send '{"action":"getDictionary"}'
  glossa send --open page.html --tab 1 '{"action":"searchOnPage","term":"cache"}'`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var raw []byte
		if len(args) == 1 {
			raw = []byte(args[0])
		} else {
			data, err := readInput("")
			if err != nil {
				fatal("Failed to read request", err)
			}
			raw = data
		}

		req, err := message.DecodeRequest([]byte(strings.TrimSpace(string(raw))))
		if err != nil {
			fatal("Failed to decode request", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rt := openRuntime()
		defer rt.Close()

		if err := rt.Start(ctx); err != nil {
			fatal("Failed to start relay", err)
		}
		for _, name := range sendOpen {
			src, err := os.ReadFile(name)
			if err != nil {
				fatal("Failed to read page", err)
			}
			if _, err := rt.Open(ctx, "file://"+name, string(src)); err != nil {
				fatal("Failed to open page", err)
			}
		}

		to := message.Background
		if sendTab > 0 {
			to = message.Tab(sendTab)
		}
		resp := rt.Bus.Send(ctx, to, req)

		out, err := message.EncodeResponse(resp)
		if err != nil {
			fatal("Failed to encode response", err)
		}
		fmt.Println(string(out))
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVar(&sendTab, "tab", 0, "Target tab id (default: the relay)")
	sendCmd.Flags().StringSliceVar(&sendOpen, "open", nil, "HTML files to open as tabs first")
}
