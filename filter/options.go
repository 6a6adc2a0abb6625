// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"math"
)

// Default parameters.
const (
	DefaultInput        = "points.csv"
	DefaultEps          = 0.1
	DefaultMinPoints    = 3
	DefaultH3Resolution = 8

	maxH3Resolution = 15
)

// Options configure a filter run.
type Options struct {
	// Input is the CSV file to read.
	Input string
	// Output is the CSV file to write. When empty, "lat,lon" lines are
	// written to the standard output instead.
	Output string
	// Eps is the clustering radius in kilometers.
	Eps float64
	// MinPoints is the minimum neighborhood size of a core point.
	MinPoints int
	Debug     bool
	// DbPath is the DuckDB file where runs are recorded. Empty disables it.
	DbPath string
	// H3Resolution is the resolution of the cells tagging cluster centroids.
	H3Resolution int
	// Source names the run in the store. Defaults to Input.
	Source string
}

// DefaultOptions returns the options used by the command line when no flag
// is given.
func DefaultOptions() *Options {
	return &Options{
		Input:        DefaultInput,
		Eps:          DefaultEps,
		MinPoints:    DefaultMinPoints,
		H3Resolution: DefaultH3Resolution,
	}
}

// Validate checks the clustering parameters. It does not look at Input or
// Output.
func (o *Options) Validate() error {
	if math.IsNaN(o.Eps) || math.IsInf(o.Eps, 0) || o.Eps <= 0 {
		return &ValidationError{Field: "eps", Message: "must be a positive number of kilometers"}
	}

	if o.MinPoints < 1 {
		return &ValidationError{Field: "min-points", Message: "must be at least 1"}
	}

	if o.H3Resolution < 0 || o.H3Resolution > maxH3Resolution {
		return &ValidationError{Field: "h3-res", Message: "must be between 0 and 15"}
	}

	return nil
}
