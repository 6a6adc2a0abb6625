// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"
	"math"
)

const (
	// DegreeRad translates degrees to radians.
	DegreeRad = math.Pi / 180
	// EarthR is the Earth radius in kilometers.
	EarthR = 6371.0
)

// DistanceSpherical returns the distance between two points in kilometers
// using the equirectangular approximation scaled at the average latitude.
func DistanceSpherical(p1, p2 Point) float64 {
	v1 := (p1[1] - p2[1]) * DegreeRad
	v1 *= v1

	v2 := (p1[0] - p2[0]) * DegreeRad * math.Cos((p1[1]+p2[1])/2*DegreeRad)
	v2 *= v2

	return EarthR * math.Sqrt(v1+v2)
}

// FastSine approximates sine with a parabola.
// See http://forum.devmaster.net/t/fast-and-accurate-sine-cosine/9648
//
// x must be within [-π, π]; FastSine panics otherwise.
func FastSine(x float64) float64 {
	const (
		b = 4 / math.Pi
		c = -4 / (math.Pi * math.Pi)
		p = 0.225
	)

	if x < -math.Pi || x > math.Pi {
		panic(fmt.Sprintf("spatial: FastSine argument %v out of range [-π, π]", x))
	}

	y := b*x + c*x*math.Abs(x)

	return p*(y*math.Abs(y)-y) + y
}

// FastCos approximates cosine by shifting x into FastSine's domain.
func FastCos(x float64) float64 {
	x += math.Pi / 2
	for x > math.Pi {
		x -= 2 * math.Pi
	}

	return FastSine(x)
}

// DistanceSphericalFast returns the squared spherical distance using FastCos,
// without sqrt and without the EarthR * DegreeRad scaling.
//
// The result is only meaningful when compared against a radius converted
// with KmToUnits and squared. To get kilometers, take the square root and
// multiply by EarthR * DegreeRad.
func DistanceSphericalFast(p1, p2 Point) float64 {
	v1 := p1[1] - p2[1]
	v2 := (p1[0] - p2[0]) * FastCos((p1[1]+p2[1])/2*DegreeRad)

	return v1*v1 + v2*v2
}

// KmToUnits converts a distance in kilometers into the linear units of
// DistanceSphericalFast.
func KmToUnits(km float64) float64 {
	return km / EarthR / DegreeRad
}

// UnitsToKm is the inverse of KmToUnits.
func UnitsToKm(units float64) float64 {
	return units * EarthR * DegreeRad
}
