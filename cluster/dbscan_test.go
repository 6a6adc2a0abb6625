// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/serg-kovalev/go-dbscan-filter/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoBlobs returns two dense 3x3 blobs ~60 km apart with an isolated point
// (index 9) between them.
func twoBlobs() spatial.PointList {
	var points spatial.PointList

	for i := range 3 {
		for j := range 3 {
			points = append(points, spatial.Point{30.24 + float64(i)*0.0001, 59.95 + float64(j)*0.0001})
		}
	}

	points = append(points, spatial.Point{35, 65})

	for i := range 3 {
		for j := range 3 {
			points = append(points, spatial.Point{31 + float64(i)*0.0001, 60.1 + float64(j)*0.0001})
		}
	}

	return points
}

func randomPoints(n int, seed uint64) spatial.PointList {
	r := rand.New(rand.NewPCG(seed, seed+1))
	points := make(spatial.PointList, n)

	for i := range points {
		points[i] = spatial.Point{30.2 + r.Float64()*0.1, 59.9 + r.Float64()*0.05}
		if i > 0 && r.IntN(10) == 0 {
			points[i] = points[r.IntN(i)]
		}
	}

	return points
}

// checkInvariants verifies coverage, cluster exclusivity, sequential ids and
// ascending noise.
func checkInvariants(t *testing.T, n int, clusters []Cluster, noise []int) {
	t.Helper()

	covered := make([]bool, n)
	owner := make(map[int]int)

	for _, i := range noise {
		covered[i] = true
	}

	for id, c := range clusters {
		assert.Equal(t, id, c.C, "cluster ids must be sequential")
		assert.NotEmpty(t, c.Points)

		for _, i := range c.Points {
			prev, seen := owner[i]
			assert.False(t, seen, "point %d in clusters %d and %d", i, prev, c.C)

			owner[i] = c.C
			covered[i] = true
		}
	}

	for i, ok := range covered {
		assert.True(t, ok, "point %d is neither noise nor clustered", i)
	}

	assert.True(t, slices.IsSorted(noise), "noise must be ascending")
}

func TestDBScanBasic(t *testing.T) {
	clusters, noise := DBScan(samplePoints, 0.8, 2)

	checkInvariants(t, len(samplePoints), clusters, noise)

	want := []Cluster{{C: 0, Points: []int{0, 1}}}
	if diff := cmp.Diff(want, clusters); diff != "" {
		t.Errorf("clusters mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []int{2, 3, 4}, noise)
}

func TestDBScanTwoBlobs(t *testing.T) {
	points := twoBlobs()

	clusters, noise := DBScan(points, 0.05, 4)

	checkInvariants(t, len(points), clusters, noise)
	require.Len(t, clusters, 2)
	assert.Equal(t, []int{9}, noise)

	assert.Equal(t, 0, clusters[0].Points[0])
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, clusters[0].Points)
	assert.Equal(t, 10, clusters[1].Points[0])
	assert.ElementsMatch(t, []int{10, 11, 12, 13, 14, 15, 16, 17, 18}, clusters[1].Points)
}

func TestDBScanBorderPointStaysInNoise(t *testing.T) {
	// Four points on the equator, 0.001° apart; eps covers only the
	// immediate neighbors. Point 0 has two neighbors when visited first
	// (noise), then is absorbed as a border point of point 1's cluster.
	points := spatial.PointList{{0, 0}, {0.001, 0}, {0.002, 0}, {0.003, 0}}
	eps := spatial.UnitsToKm(0.0015)

	clusters, noise := DBScan(points, eps, 3)

	assert.Equal(t, []int{0}, noise)
	require.Len(t, clusters, 1)
	assert.Equal(t, 1, clusters[0].Points[0], "seed comes first")
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, clusters[0].Points)
}

func TestDBScanMinPointsOne(t *testing.T) {
	points := twoBlobs()

	clusters, noise := DBScan(points, 0.05, 1)

	checkInvariants(t, len(points), clusters, noise)
	assert.Empty(t, noise)
	assert.Len(t, clusters, 3)
}

func TestDBScanDuplicates(t *testing.T) {
	pt := spatial.Point{-56.1529602, -34.8822366}
	points := spatial.PointList{pt, pt, pt, pt}

	clusters, noise := DBScan(points, 0.001, 4)

	assert.Empty(t, noise)
	require.Len(t, clusters, 1)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, clusters[0].Points)

	clusters, noise = DBScan(points, 0.001, 5)
	assert.Empty(t, clusters)
	assert.Equal(t, []int{0, 1, 2, 3}, noise)
}

func TestDBScanEmpty(t *testing.T) {
	clusters, noise := DBScan(nil, 0.1, 3)

	assert.Empty(t, clusters)
	assert.Empty(t, noise)
}

func TestDBScanInvariantsRandom(t *testing.T) {
	for _, tc := range []struct {
		eps       float64
		minPoints int
	}{
		{0.05, 2},
		{0.2, 3},
		{0.5, 5},
		{1, 10},
	} {
		points := randomPoints(400, 7)

		clusters, noise := DBScan(points, tc.eps, tc.minPoints)
		checkInvariants(t, len(points), clusters, noise)
	}
}

func TestDBScanDeterministic(t *testing.T) {
	points := randomPoints(300, 42)

	c1, n1 := DBScan(points, 0.3, 4)
	c2, n2 := DBScan(points, 0.3, 4)

	assert.Equal(t, c1, c2)
	assert.Equal(t, n1, n2)
}

func TestDBScanWithProgress(t *testing.T) {
	points := twoBlobs()

	var calls []int

	_, _ = DBScanWithProgress(points, 0.05, 4, func(visited int) {
		calls = append(calls, visited)
	})

	require.Len(t, calls, len(points), "every point is visited exactly once")

	for i, v := range calls {
		assert.Equal(t, i+1, v)
	}
}

func TestRegionQuery(t *testing.T) {
	eps := spatial.KmToUnits(0.8)

	assert.Equal(t, []int{0, 1}, RegionQuery(samplePoints, samplePoints[1], eps))
	assert.Equal(t, []int{2}, RegionQuery(samplePoints, samplePoints[2], eps))
	assert.Empty(t, RegionQuery(samplePoints, samplePoints[2], 0))
}
