package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gnosis/internal/config"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var (
	configPath string
	rootDir    string
	dbPath     string
	backend    string
	verbose    int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gnosis",
	Short: "Wiki-link tooling for a markdown workspace",
	Long: `gnosis inspects a markdown workspace the way the gnosis language server does:
reference counts, link parsing, document metadata and headings.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commonlog.Configure(verbose, nil)
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
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "Workspace root (default $WORKSPACE_ROOT or the working directory)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Metadata database (default $MARKDOWN_LSP_DB_PATH or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Search backend: auto, ripgrep or scan")
	rootCmd.PersistentFlags().IntVarP(&verbose, "verbose", "v", 0, "Log verbosity")
}

// loadConfig reads the config file and applies flags and environment on top.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return config.Config{}, err
		}
	}
	if rootDir != "" {
		cfg.WorkspaceRoot = rootDir
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if backend != "" {
		cfg.Backend = backend
	}
	cfg = cfg.ApplyEnv()
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = "."
	}
	if abs, err := filepath.Abs(cfg.WorkspaceRoot); err == nil {
		cfg.WorkspaceRoot = abs
	}
	return cfg, cfg.Validate()
}
