// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

// Package cluster implements DBSCAN clustering of (lon, lat) points on top
// of a 2-D tree.
//
// The tree and the clustering use spatial.DistanceSphericalFast, which skips
// the square root and the Earth radius scaling. DBScan converts its eps,
// given in kilometers, once with spatial.KmToUnits; callers of
// KDTree.InRange and RegionQuery must do the same.
//
// Basic usage:
//
//	clusters, noise := cluster.DBScan(points, 0.8, 3)
//	for _, c := range clusters {
//		center, minPt, maxPt := c.CentroidAndBounds(points)
//		...
//	}
//
// Nothing in this package is safe for concurrent mutation; a KDTree may be
// queried concurrently as long as Insert is not called.
package cluster
