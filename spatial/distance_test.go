// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	p1 = Point{30.244759, 59.955982}
	p2 = Point{30.24472, 59.955975}
)

func TestFastCos(t *testing.T) {
	for _, x := range []float64{0, 0.1, -0.1, 1, -1, 1.5, -1.5} {
		assert.InDelta(t, math.Cos(x), FastCos(x), 0.001, "x=%v", x)
	}
}

func TestFastSine(t *testing.T) {
	for _, x := range []float64{-math.Pi, -2, -1, 0, 0.5, 1, 2, math.Pi} {
		assert.InDelta(t, math.Sin(x), FastSine(x), 0.001, "x=%v", x)
	}
}

func TestFastSineOutOfRange(t *testing.T) {
	assert.Panics(t, func() { FastSine(math.Pi + 0.01) })
	assert.Panics(t, func() { FastSine(-math.Pi - 0.01) })
	assert.NotPanics(t, func() { FastCos(math.Pi) })
}

func TestDistanceSpherical(t *testing.T) {
	const expected = 0.0023064907653812116

	assert.InDelta(t, expected, DistanceSpherical(p1, p2), 1e-10)
	assert.InDelta(t, expected, DistanceSpherical(p2, p1), 1e-10)
	assert.Equal(t, 0.0, DistanceSpherical(p1, p1))
	assert.Equal(t, 0.0, DistanceSpherical(p2, p2))
}

func TestDistanceSphericalFast(t *testing.T) {
	const expected = 4.3026720164084415e-10

	assert.InDelta(t, expected, DistanceSphericalFast(p1, p2), 1e-15)
	assert.InDelta(t, expected, DistanceSphericalFast(p2, p1), 1e-15)
	assert.Equal(t, 0.0, DistanceSphericalFast(p1, p1))
	assert.Equal(t, 0.0, DistanceSphericalFast(p2, p2))

	km := math.Sqrt(DistanceSphericalFast(p1, p2)) * DegreeRad * EarthR
	assert.InDelta(t, DistanceSpherical(p1, p2), km, 1e-6)
}

func TestDistanceSymmetry(t *testing.T) {
	points := PointList{
		{30.244759, 59.955982},
		{30.244358, 59.96698},
		{30.258387, 59.951557},
		{-56.1529602, -34.8822366},
		{0, 0},
		{179.5, -89},
	}

	for _, a := range points {
		for _, b := range points {
			assert.Equal(t, DistanceSpherical(a, b), DistanceSpherical(b, a))
			assert.Equal(t, DistanceSphericalFast(a, b), DistanceSphericalFast(b, a))
		}

		assert.Equal(t, 0.0, a.SqDist(a))
	}
}

func TestHaversineAgreesForShortDistances(t *testing.T) {
	assert.InDelta(t, DistanceSpherical(p1, p2), p1.HaversineDistance(p2), 1e-6)

	p3 := Point{30.258387, 59.951557}
	assert.InDelta(t, p1.HaversineDistance(p3), DistanceSpherical(p1, p3), 1e-3)
}

func TestKmToUnits(t *testing.T) {
	units := KmToUnits(0.8)
	assert.InDelta(t, 0.8, UnitsToKm(units), 1e-12)
	assert.InDelta(t, 0.8/6371.0/(math.Pi/180), units, 1e-15)
}
