// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/serg-kovalev/go-dbscan-filter/server"
	"github.com/serg-kovalev/go-dbscan-filter/store"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the clustering HTTP API",
	Long: `Serves POST /api/cluster and, when --db is set, the history of stored
runs under /api/runs.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		var repo store.RunRepository

		if filterOptions.DbPath != "" {
			db, r, err := openRepository(filterOptions.DbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			repo = r
		} else {
			log.Print("No --db given, runs will not be stored")
		}

		return server.NewServer(repo).Run(serveAddr)
	},
}

// openRepository opens the run store at path and makes sure its schema exists.
func openRepository(path string) (*sql.DB, store.RunRepository, error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}

	repo := store.NewRunRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, repo, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(
		&serveAddr,
		"addr",
		"localhost:8080",
		"Address to listen on",
	)
}
