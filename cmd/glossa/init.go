package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/glossa"
	"github.com/aretw0/glossa/pkg/core"
	"github.com/aretw0/glossa/pkg/git"
	"github.com/aretw0/glossa/pkg/relay"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a glossary",
	Long: `Initialize a glossary in the current directory (or --path).
A fresh glossary starts with an empty dictionary; an existing one is left as is.
With the fs adapter the directory is also versioned with git when git is available.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var opts []glossa.Option
		if fileConfig.Versioning == nil && git.IsInstalled() {
			opts = append(opts, glossa.WithVersioning(true))
		}
		opts = append(opts, options(glossa.WithAutoInit(true))...)

		rt, err := glossa.New(target(), opts...)
		if err != nil {
			fatal("Failed to initialize glossary", err)
		}
		defer rt.Close()

		ctx := context.Background()
		_, found, err := rt.Store.Get(ctx, core.DictionaryKey)
		if err != nil {
			fatal("Failed to read dictionary", err)
		}

		reason := relay.ReasonInstall
		if found {
			reason = relay.ReasonUpdate
		}
		if err := rt.Relay.Install(ctx, reason); err != nil {
			fatal("Failed to initialize dictionary", err)
		}

		if found {
			fmt.Println("Glossary already initialized in", target())
			return
		}
		fmt.Println("Initialized empty glossary in", target())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
