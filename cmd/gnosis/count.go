package main

import (
	"context"
	"fmt"
	"runtime"

	"gnosis/internal/refindex"
	"gnosis/internal/search"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count <virtual-path>...",
	Short: "Count the wiki-links to each target in the workspace",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading config", err)
		}

		b, err := search.New(cfg.Backend, search.Options{
			RipgrepPath: cfg.RipgrepPath,
			Include:     cfg.Include,
			Workers:     runtime.GOMAXPROCS(0),
		})
		if err != nil {
			fatal("Error creating search backend", err)
		}
		index := refindex.New(cfg.WorkspaceRoot, cfg.Freshness.Std(), b,
			refindex.WithTimeout(cfg.SearchTimeout.Std()))

		for _, target := range args {
			fmt.Printf("%d\t%s\n", index.Count(context.Background(), target), target)
		}
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
