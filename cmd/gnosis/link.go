package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gnosis/internal/wikilink"

	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link <line> <cursor>",
	Short: "Print the wiki-link around a byte offset of a line as JSON",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cursor, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("Invalid cursor", err)
		}

		link, ok := wikilink.Parse(args[0], cursor)
		if !ok {
			fatal("No link", errors.New("cursor is not inside a wiki-link"))
		}

		out := struct {
			Start  int     `json:"start"`
			End    int     `json:"end"`
			Target string  `json:"target"`
			Alias  *string `json:"alias,omitempty"`
		}{link.Start, link.End, link.Target, link.Alias}

		encoder := json.NewEncoder(os.Stdout)
		if err := encoder.Encode(out); err != nil {
			fmt.Printf("Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
}
