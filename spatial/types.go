// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the point type and the distance metrics used to
// cluster geographic coordinates.
package spatial

import (
	"fmt"
	"math"
)

// Point represents a geographical point stored as [longitude, latitude].
//
// Points are plain values: two points are equal when both coordinates are
// exactly equal.
type Point [2]float64

// PointList is an ordered list of points. The position of a point in the
// list is its identity for every index built on top of it.
type PointList []Point

// NewPoint builds a Point from longitude and latitude.
func NewPoint(lng, lat float64) Point {
	return Point{lng, lat}
}

// Lng returns the longitude.
func (p Point) Lng() float64 {
	return p[0]
}

// Lat returns the latitude.
func (p Point) Lat() float64 {
	return p[1]
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p[0], p[1])
}

// SqDist returns the squared fast distance (no sqrt, no normalization) to b.
func (p Point) SqDist(b Point) float64 {
	return DistanceSphericalFast(p, b)
}

// LessEq reports whether p <= b on both axes.
func (p Point) LessEq(b Point) bool {
	return p[0] <= b[0] && p[1] <= b[1]
}

// GreaterEq reports whether p >= b on both axes.
func (p Point) GreaterEq(b Point) bool {
	return p[0] >= b[0] && p[1] >= b[1]
}

// HaversineDistance calculates the great-circle distance between two points in kilometers.
func (p Point) HaversineDistance(other Point) float64 {
	lat1 := p.Lat() * DegreeRad
	lat2 := other.Lat() * DegreeRad
	dLat := (other.Lat() - p.Lat()) * DegreeRad
	dLng := (other.Lng() - p.Lng()) * DegreeRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthR * c
}

// Validate checks that p is a finite coordinate within the WGS84 bounds.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat()) || math.IsInf(p.Lat(), 0) || p.Lat() < -90 || p.Lat() > 90 {
		return fmt.Errorf("latitude must be between -90 and 90 (got %v)", p.Lat())
	}

	if math.IsNaN(p.Lng()) || math.IsInf(p.Lng(), 0) || p.Lng() < -180 || p.Lng() > 180 {
		return fmt.Errorf("longitude must be between -180 and 180 (got %v)", p.Lng())
	}

	return nil
}
