package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/glossa"
)

var (
	verbose      bool
	adapter      string
	storePath    string
	format       string
	noVersioning bool
	logJSON      bool

	// fileConfig is the glossa.yaml/glossa.toml found at the store root.
	fileConfig glossa.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "glossa",
	Short: "A personal glossary that highlights its terms inside HTML pages",
	Long: `glossa keeps a dictionary of terms and definitions and tags every
occurrence of those terms in HTML documents with hover tooltips.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		root := resolveRoot()
		cfg, path, err := glossa.LoadConfig(root)
		if err != nil {
			fatal("Failed to load config", err)
		}
		fileConfig = cfg

		level := slog.LevelInfo
		if strings.EqualFold(cfg.Logging.Level, "debug") || verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{Level: level}

		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if logJSON || cfg.Logging.Format == "json" {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))

		if path != "" {
			slog.Debug("config loaded", "path", path)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter (fs, sqlite, memory)")
	rootCmd.PersistentFlags().StringVarP(&storePath, "path", "p", "", "Glossary directory (default: nearest root or CWD)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "File format of the fs store (json, yaml, csv)")
	rootCmd.PersistentFlags().BoolVar(&noVersioning, "no-versioning", false, "Do not commit writes with git")
}

// resolveRoot picks the glossary directory: --path, else the nearest root
// above the working directory, else the working directory.
func resolveRoot() string {
	if storePath != "" {
		return storePath
	}
	wd, err := os.Getwd()
	if err != nil {
		fatal("Failed to get CWD", err)
	}
	if root, err := glossa.FindRoot(wd); err == nil {
		return root
	}
	return wd
}

// options merges the config file with flags; flags win.
func options(extra ...glossa.Option) []glossa.Option {
	opts, err := fileConfig.Options()
	if err != nil {
		fatal("Invalid config", err)
	}
	opts = append(opts, glossa.WithLogger(slog.Default()), glossa.WithDevSafety(false))
	if adapter != "" {
		opts = append(opts, glossa.WithAdapter(adapter))
	}
	if format != "" {
		opts = append(opts, glossa.WithFormat(format))
	}
	if noVersioning {
		opts = append(opts, glossa.WithVersioning(false))
	}
	return append(opts, extra...)
}

// target is the store uri: the config path when set, else the root.
func target() string {
	root := resolveRoot()
	if fileConfig.Path != "" && storePath == "" {
		if filepath.IsAbs(fileConfig.Path) {
			return fileConfig.Path
		}
		return filepath.Join(root, fileConfig.Path)
	}
	return root
}

func openRuntime(extra ...glossa.Option) *glossa.Runtime {
	rt, err := glossa.New(target(), options(append([]glossa.Option{glossa.WithMustExist(true)}, extra...)...)...)
	if err != nil {
		fatal("Failed to open glossary", err)
	}
	return rt
}
