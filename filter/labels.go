// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"github.com/serg-kovalev/go-dbscan-filter/cluster"
)

// Outlier is the label of points that belong to no cluster.
const Outlier = -1

// BuildLabels returns, for each of the numPoints points, the id of its
// cluster or Outlier.
//
// Only cluster membership is looked at: a point that DBSCAN logged as noise
// and later absorbed as a border point gets its cluster label.
func BuildLabels(clusters []cluster.Cluster, numPoints int) []int {
	labels := make([]int, numPoints)
	for i := range labels {
		labels[i] = Outlier
	}

	for _, c := range clusters {
		for _, i := range c.Points {
			labels[i] = c.C
		}
	}

	return labels
}

// FilterPoints returns the indices of the points to keep, ascending: every
// outlier, and every point whose label differs from the previous point's.
// The first point is always kept.
//
// Points of a cluster that are not contiguous in the input keep one
// representative per run of equal labels.
func FilterPoints(labels []int) []int {
	filtered := []int{}

	for i, label := range labels {
		if label == Outlier || i == 0 || label != labels[i-1] {
			filtered = append(filtered, i)
		}
	}

	return filtered
}
