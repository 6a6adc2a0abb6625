// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"fmt"

	"github.com/serg-kovalev/go-dbscan-filter/spatial"
	"github.com/uber/h3-go/v4"
)

// Cluster is a result of DBScan.
type Cluster struct {
	// C is the cluster ID, assigned sequentially from 0 in discovery order.
	C int `json:"id"`
	// Points are indices into the clustered PointList, in discovery order.
	Points []int `json:"points"`
}

// CentroidAndBounds returns the center of the cluster and its bounds, the
// bottom-left (min) and top-right (max) corners.
//
// It panics if the cluster is empty.
func (c Cluster) CentroidAndBounds(points spatial.PointList) (center, minPt, maxPt spatial.Point) {
	if len(c.Points) == 0 {
		panic("empty cluster")
	}

	minPt = spatial.Point{180, 90}
	maxPt = spatial.Point{-180, -90}

	for _, i := range c.Points {
		pt := points[i]

		for j := range 2 {
			center[j] += pt[j]

			if pt[j] < minPt[j] {
				minPt[j] = pt[j]
			}

			if pt[j] > maxPt[j] {
				maxPt[j] = pt[j]
			}
		}
	}

	for j := range 2 {
		center[j] /= float64(len(c.Points))
	}

	return center, minPt, maxPt
}

// Inside checks if the (innerMin, innerMax) rectangle is inside the
// (outerMin, outerMax) rectangle.
func Inside(innerMin, innerMax, outerMin, outerMax spatial.Point) bool {
	return innerMin.GreaterEq(outerMin) && innerMax.LessEq(outerMax)
}

// Summary describes the geometry of a cluster.
type Summary struct {
	ID     int           `json:"id"`
	Size   int           `json:"size"`
	Center spatial.Point `json:"center"`
	Min    spatial.Point `json:"min"`
	Max    spatial.Point `json:"max"`
	H3Cell int64         `json:"h3_cell"`
}

// Summarize computes the Summary of c, tagging its centroid with the H3 cell
// at resolution res.
func Summarize(c Cluster, points spatial.PointList, res int) (Summary, error) {
	center, minPt, maxPt := c.CentroidAndBounds(points)

	cell, err := h3.LatLngToCell(h3.NewLatLng(center.Lat(), center.Lng()), res)
	if err != nil {
		return Summary{}, fmt.Errorf("converting cluster %d centroid to h3 cell at res %d: %w", c.C, res, err)
	}

	return Summary{
		ID:     c.C,
		Size:   len(c.Points),
		Center: center,
		Min:    minPt,
		Max:    maxPt,
		H3Cell: int64(cell),
	}, nil
}

// SummarizeAll summarizes every cluster.
func SummarizeAll(clusters []Cluster, points spatial.PointList, res int) ([]Summary, error) {
	summaries := make([]Summary, 0, len(clusters))

	for _, c := range clusters {
		s, err := Summarize(c, points, res)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, s)
	}

	return summaries, nil
}
