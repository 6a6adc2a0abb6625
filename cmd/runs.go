// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/serg-kovalev/go-dbscan-filter/store"
	"github.com/serg-kovalev/go-dbscan-filter/utils/textutils"
	"github.com/spf13/cobra"
)

var runsOptions struct {
	limit  int
	offset int
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the runs stored with --db",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if filterOptions.DbPath == "" {
			return errors.New("no database: set --db or " + envDB)
		}

		return nil
	},
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, repo, err := openRepository(filterOptions.DbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := repo.ListRuns(runsOptions.limit, runsOptions.offset)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}

		printRuns(cmd.OutOrStdout(), runs)

		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored run and its clusters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}

		db, repo, err := openRepository(filterOptions.DbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := repo.GetRun(id)
		if err != nil {
			return err
		}

		clusters, err := repo.Clusters(id)
		if err != nil {
			return fmt.Errorf("loading clusters: %w", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Run %d (%s)\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "  source:     %s\n", run.Source)
		fmt.Fprintf(w, "  eps:        %g km\n", run.EpsKm)
		fmt.Fprintf(w, "  min points: %d\n", run.MinPoints)
		fmt.Fprintf(w, "  points:     %s\n", textutils.FormatInt(int64(run.NumPoints)))
		fmt.Fprintf(w, "  clusters:   %s\n", textutils.FormatInt(int64(run.NumClusters)))
		fmt.Fprintf(w, "  noise:      %s\n", textutils.FormatInt(int64(run.NumNoise)))

		for _, c := range clusters {
			fmt.Fprintf(w, "  #%-5d %8s points  center %s  h3 %x\n",
				c.ID, textutils.FormatInt(int64(c.Size)), c.Center, c.H3Cell)
		}

		return nil
	},
}

func printRuns(w io.Writer, runs []*store.Run) {
	a, b, c, d := strings.Repeat("─", 6), strings.Repeat("─", 19), strings.Repeat("─", 10), strings.Repeat("─", 30)
	fmt.Fprintf(w, "╭─%6s─┬─%-19s─┬─%10s─┬─%10s─┬─%-30s╮\n", a, b, c, c, d)
	fmt.Fprintf(w, "│ %6s │ %-19s │ %10s │ %10s │ %-30s│\n", "Id", "Created", "Points", "Clusters", "Source")
	fmt.Fprintf(w, "├─%6s─┼─%-19s─┼─%10s─┼─%10s─┼─%-30s┤\n", a, b, c, c, d)

	for _, r := range runs {
		fmt.Fprintf(w, "│ %6d │ %-19s │ %10s │ %10s │ %-30s│\n",
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			textutils.FormatInt(int64(r.NumPoints)),
			textutils.FormatInt(int64(r.NumClusters)),
			r.Source,
		)
	}

	fmt.Fprintf(w, "╰─%6s─┴─%-19s─┴─%10s─┴─%10s─┴─%-30s╯\n", a, b, c, c, d)
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsListCmd.Flags().IntVar(&runsOptions.limit, "limit", 20, "Maximum number of runs to list")
	runsListCmd.Flags().IntVar(&runsOptions.offset, "offset", 0, "Number of runs to skip")
}
