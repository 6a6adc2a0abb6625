// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/serg-kovalev/go-dbscan-filter/cluster"
	"github.com/serg-kovalev/go-dbscan-filter/dataset"
	"github.com/serg-kovalev/go-dbscan-filter/spatial"
	"github.com/spf13/cobra"
)

// isTerminal reports whether f is a character device. On error
// we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugDistanceCmd = &cobra.Command{
	Use:   "distance <lng1> <lat1> <lng2> <lat2>",
	Short: "Compare the distance metrics between two points",
	Long: `Prints the distance in kilometers between two points as computed by the
equirectangular approximation, by the fast approximation used for clustering
(rescaled to kilometers) and by the haversine formula.

$ dbscan-filter debug distance 30.244759 59.955982 30.258387 59.951557
spherical   0.904317 km
fast        0.904321 km
haversine   0.904317 km`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		var c [4]float64

		for i, arg := range args {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("argument %d: %w", i+1, err)
			}

			c[i] = v
		}

		p1, p2 := spatial.NewPoint(c[0], c[1]), spatial.NewPoint(c[2], c[3])
		for _, p := range []spatial.Point{p1, p2} {
			if err := p.Validate(); err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
		}

		printDistances(cmd.OutOrStdout(), p1, p2)

		return nil
	},
}

func printDistances(w io.Writer, p1, p2 spatial.Point) {
	fmt.Fprintf(w, "spherical   %.6f km\n", spatial.DistanceSpherical(p1, p2))
	fmt.Fprintf(w, "fast        %.6f km\n", spatial.UnitsToKm(math.Sqrt(spatial.DistanceSphericalFast(p1, p2))))
	fmt.Fprintf(w, "haversine   %.6f km\n", p1.HaversineDistance(p2))
}

var debugTreeInput string

var debugTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Build the spatial index over a CSV file and print its shape",
	Long: `Reads points like the root command does and prints how many were loaded
and the height of the 2-D tree built over them. Use --input - to read from
stdin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			ds  *dataset.Dataset
			err error
		)

		if debugTreeInput == "-" {
			if isTerminal(os.Stdin) {
				fmt.Fprintln(os.Stderr, "Enter latitude,longitude points, one per line…")
			}

			ds, err = dataset.Read(os.Stdin)
		} else {
			ds, err = dataset.ReadFile(debugTreeInput)
		}

		if err != nil {
			return err
		}

		tree := cluster.NewKDTree(ds.Points)

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "points   %d\n", tree.Len())
		fmt.Fprintf(w, "skipped  %d\n", ds.Skipped)
		fmt.Fprintf(w, "height   %d\n", tree.Height())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugDistanceCmd)
	debugCmd.AddCommand(debugTreeCmd)
	debugTreeCmd.Flags().StringVarP(&debugTreeInput, "input", "i", "points.csv", "Input CSV file, - for stdin")
}
