package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/glossa"
	"github.com/aretw0/glossa/pkg/relay"
	"github.com/aretw0/glossa/pkg/tabs"
)

var (
	stateDiagram bool
	stateOpen    []string
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the state of every runtime component",
	Long: `Start the runtime, optionally open HTML files as tabs, and print the
introspection state of the store, the relay, the bus and the tabs.
With --diagram the topology is printed as a Mermaid diagram instead.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rt := openRuntime()
		defer rt.Close()

		if err := rt.Start(ctx); err != nil {
			fatal("Failed to start relay", err)
		}
		for _, name := range stateOpen {
			src, err := os.ReadFile(name)
			if err != nil {
				fatal("Failed to read page", err)
			}
			if _, err := rt.Open(ctx, "file://"+name, string(src)); err != nil {
				fatal("Failed to open page", err)
			}
		}

		if stateDiagram {
			config := introspection.DefaultDiagramConfig()
			config.SecondaryID = "glossa"
			config.SecondaryLabel = "Runtime Topology"
			fmt.Println(introspection.TreeDiagram(buildRuntimeTree(rt), config))
			return
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(rt.State()); err != nil {
			fatal("Failed to encode JSON", err)
		}
	},
}

type stateNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []stateNode
}

// buildRuntimeTree maps component state onto diagram nodes.
// Status values must match the classes in introspection.DefaultStyles().
func buildRuntimeTree(rt *glossa.Runtime) stateNode {
	rs := rt.Relay.State().(relay.RelayState)
	relayStatus := "stopped"
	if rs.Running {
		relayStatus = "running"
	}

	ts := rt.Tabs.State().(tabs.RegistryState)
	var pages []stateNode
	for _, p := range ts.Pages {
		status := "suspended"
		if p.Attached {
			status = "running"
		}
		pages = append(pages, stateNode{
			Name:   fmt.Sprintf("Tab %d", p.TabID),
			Status: status,
			Metadata: map[string]string{
				"type":   "process",
				"tagged": fmt.Sprintf("%d", p.Tagged),
				"terms":  fmt.Sprintf("%d", p.ActiveTerms),
			},
		})
	}

	return stateNode{
		Name:   "Runtime",
		Status: "running",
		Metadata: map[string]string{
			"type": "container",
		},
		Children: []stateNode{
			{
				Name:   "Store",
				Status: "running",
				Metadata: map[string]string{
					"type":    "process",
					"adapter": adapterName(),
				},
			},
			{
				Name:   "Relay",
				Status: relayStatus,
				Metadata: map[string]string{
					"type":      "goroutine",
					"entries":   fmt.Sprintf("%d", rs.Entries),
					"delivered": fmt.Sprintf("%d", rs.Delivered),
				},
			},
			{
				Name:   "Tabs",
				Status: "running",
				Metadata: map[string]string{
					"type":     "container",
					"attached": fmt.Sprintf("%d", ts.Attached),
				},
				Children: pages,
			},
		},
	}
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().BoolVar(&stateDiagram, "diagram", false, "Print a Mermaid diagram")
	stateCmd.Flags().StringSliceVar(&stateOpen, "open", nil, "HTML files to open as tabs")
}
