// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"github.com/serg-kovalev/go-dbscan-filter/spatial"
)

// DBSCAN algorithm pseudocode (from http://en.wikipedia.org/wiki/DBSCAN):
//
//	DBSCAN(D, eps, MinPts)
//	   C = 0
//	   for each unvisited point P in dataset D
//	      mark P as visited
//	      NeighborPts = regionQuery(P, eps)
//	      if sizeof(NeighborPts) < MinPts
//	         mark P as NOISE
//	      else
//	         C = next cluster
//	         expandCluster(P, NeighborPts, C, eps, MinPts)
//
//	expandCluster(P, NeighborPts, C, eps, MinPts)
//	   add P to cluster C
//	   for each point P' in NeighborPts
//	      if P' is not visited
//	         mark P' as visited
//	         NeighborPts' = regionQuery(P', eps)
//	         if sizeof(NeighborPts') >= MinPts
//	            NeighborPts = NeighborPts joined with NeighborPts'
//	      if P' is not yet member of any cluster
//	         add P' to cluster C
//
//	regionQuery(P, eps)
//	   return all points within P's eps-neighborhood (including P)

// DBScan clusters points using DBSCAN.
//
// eps is the clustering radius in kilometers and minPoints the minimum size
// of an eps-neighborhood, the point itself included, for a point to be a
// core point.
//
// It returns the clusters in discovery order and the indices of the points
// that were below the density threshold when first visited. The noise list
// is a discovery log: a point logged as noise may later be absorbed into a
// cluster as a border point, and then appears in both results.
func DBScan(points spatial.PointList, eps float64, minPoints int) ([]Cluster, []int) {
	return DBScanWithProgress(points, eps, minPoints, nil)
}

// DBScanWithProgress is DBScan with a callback invoked, on the calling
// goroutine, every time a point is marked as visited. visited is the number
// of points visited so far. progress may be nil.
func DBScanWithProgress(
	points spatial.PointList,
	eps float64,
	minPoints int,
	progress func(visited int),
) ([]Cluster, []int) {
	var (
		visited  = make([]bool, len(points))
		members  = make([]bool, len(points))
		unique   = make([]bool, len(points))
		clusters []Cluster
		noise    []int
		scratch  []int
		count    int
		c        int
	)

	markVisited := func(i int) {
		visited[i] = true
		count++

		if progress != nil {
			progress(count)
		}
	}

	kdTree := NewKDTree(points)

	// DistanceSphericalFast is not multiplied by EarthR * DegreeRad,
	// adjust eps accordingly.
	eps = spatial.KmToUnits(eps)

	for i := range points {
		if visited[i] {
			continue
		}

		markVisited(i)

		neighborPts := kdTree.InRange(points[i], eps, nil)
		if len(neighborPts) < minPoints {
			noise = append(noise, i)

			continue
		}

		cluster := Cluster{C: c, Points: []int{i}}
		members[i] = true
		c++

		for _, j := range neighborPts {
			unique[j] = true
		}

		// neighborPts grows while it is being walked.
		for j := 0; j < len(neighborPts); j++ {
			k := neighborPts[j]
			if !visited[k] {
				markVisited(k)

				scratch = kdTree.InRange(points[k], eps, scratch[:0])
				if len(scratch) >= minPoints {
					for _, p := range scratch {
						if !unique[p] {
							neighborPts = append(neighborPts, p)
							unique[p] = true
						}
					}
				}
			}

			if !members[k] {
				cluster.Points = append(cluster.Points, k)
				members[k] = true
			}
		}

		for _, j := range neighborPts {
			unique[j] = false
		}

		clusters = append(clusters, cluster)
	}

	return clusters, noise
}

// RegionQuery returns the indices of all points within eps of p by scanning
// the whole list. It is the O(n) equivalent of KDTree.InRange; eps is in
// spatial.KmToUnits units.
func RegionQuery(points spatial.PointList, p spatial.Point, eps float64) []int {
	var result []int

	for i, pt := range points {
		if pt.SqDist(p) < eps*eps {
			result = append(result, i)
		}
	}

	return result
}
