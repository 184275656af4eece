package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gnosis/internal/database"

	"github.com/spf13/cobra"
)

var docsJSON bool

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Inspect or edit the document metadata database",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every document known to the metadata database",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading config", err)
		}

		db := database.OpenReadonly(database.ResolvePath(cfg.DBPath), 5000)
		defer db.Close()

		docs, err := db.ListDocuments(context.Background())
		if err != nil {
			fatal("Error listing documents", err)
		}

		if docsJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(docs); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}
		for _, doc := range docs {
			fmt.Printf("%s\t%s\t%s\n", doc.VirtualPath, doc.Title, doc.Path)
		}
	},
}

var docsAddCmd = &cobra.Command{
	Use:   "add <virtual-path> <title> <path>",
	Short: "Add or replace a document in the metadata database",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading config", err)
		}

		path := database.ResolvePath(cfg.DBPath)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fatal("Error creating database directory", err)
		}
		db, err := database.NewDB(path)
		if err != nil {
			fatal("Error opening database", err)
		}
		defer db.Close()

		local, err := filepath.Abs(args[2])
		if err != nil {
			fatal("Invalid path", err)
		}
		doc := database.Document{VirtualPath: args[0], Title: args[1], Path: local}
		if err := db.UpsertDocument(context.Background(), doc); err != nil {
			fatal("Error saving document", err)
		}
		fmt.Printf("%s -> %s\n", doc.VirtualPath, doc.Path)
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd, docsAddCmd)
	docsListCmd.Flags().BoolVar(&docsJSON, "json", false, "Output in JSON format")
}
