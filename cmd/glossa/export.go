package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/glossa/pkg/adapters/fs"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the dictionary as JSON, YAML or CSV",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ser, err := fs.SerializerFor(exportFormat)
		if err != nil {
			fatal("Invalid format", err)
		}

		rt := openRuntime()
		defer rt.Close()

		d, err := rt.Service.Dictionary(context.Background())
		if err != nil {
			fatal("Failed to load dictionary", err)
		}
		data, err := ser.Serialize(d)
		if err != nil {
			fatal("Failed to serialize dictionary", err)
		}
		if err := writeOutput(exportOut, data); err != nil {
			fatal("Failed to write output", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "as", "json", "Output format (json, yaml, csv)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
}
