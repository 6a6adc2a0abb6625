// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/serg-kovalev/go-dbscan-filter/filter"
	"github.com/spf13/cobra"
)

// envDB names the environment variable holding the default --db value.
const envDB = "DBSCAN_FILTER_DB"

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var filterOptions = filter.DefaultOptions()

var rootCmd = &cobra.Command{
	Use:   "dbscan-filter",
	Short: "thin out geographic points with DBSCAN",
	Long: `
dbscan-filter reads latitude,longitude points from a CSV file, groups them with
DBSCAN and keeps every outlier plus the first point of each cluster.

Without --output the kept points are printed as latitude,longitude lines;
with it, the kept CSV rows are written verbatim, header included.
`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := filter.Run(filterOptions, cmd.OutOrStdout())

		return err
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(
		&filterOptions.Input,
		"input",
		"i",
		filter.DefaultInput,
		"Input CSV file with latitude,longitude columns",
	)
	rootCmd.Flags().StringVarP(
		&filterOptions.Output,
		"output",
		"o",
		"",
		"Output CSV file with filtered points (default: stdout)",
	)
	rootCmd.Flags().Float64VarP(
		&filterOptions.Eps,
		"eps",
		"e",
		filter.DefaultEps,
		"DBSCAN epsilon parameter (clustering radius in km)",
	)
	rootCmd.Flags().IntVarP(
		&filterOptions.MinPoints,
		"min-points",
		"m",
		filter.DefaultMinPoints,
		"DBSCAN minPoints parameter (minimum points in cluster)",
	)
	rootCmd.Flags().BoolVarP(
		&filterOptions.Debug,
		"debug",
		"d",
		false,
		"Enable debug output",
	)
	rootCmd.Flags().IntVar(
		&filterOptions.H3Resolution,
		"h3-res",
		filter.DefaultH3Resolution,
		"H3 resolution of the cells tagging cluster centroids",
	)
	rootCmd.Flags().StringVar(
		&filterOptions.Source,
		"source",
		"",
		"Name of the run when stored (default: the input path)",
	)
	rootCmd.PersistentFlags().StringVar(
		&filterOptions.DbPath,
		"db",
		os.Getenv(envDB),
		"DuckDB file where runs are recorded (env "+envDB+")",
	)
}
