package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gnosis/internal/headings"

	"github.com/spf13/cobra"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>...",
	Short: "Print the markdown headings of each file",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pool := headings.NewPool(1)
		defer pool.Close()

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				fatal("Error reading file", err)
			}
			found, err := pool.Extract(context.Background(), data)
			if err != nil {
				fatal("Error parsing file", err)
			}
			for _, h := range found {
				fmt.Printf("%s:%d\t%s%s\n", path, h.Line+1, strings.Repeat("  ", h.Level-1), h.Text)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(symbolsCmd)
}
