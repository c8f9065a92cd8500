// Package geom provides the unit-sphere vector math used by the
// tessellation grid: normalization, edge midpoints, angular distance,
// geographic coordinate conversion and spherical triangle area.
//
// All vectors are gonum r3.Vec values assumed to lie on (or be normalized
// onto) the unit sphere.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Unit returns v scaled to unit length. The zero vector is returned
// unchanged; callers that care must check for it separately.
func Unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return v
	}
	return r3.Scale(1/n, v)
}

// Midpoint returns the unit-length midpoint of the great-circle arc
// between a and b. This is the subdivision rule for triangle quartering:
// the Euclidean midpoint of two unit vectors, renormalized onto the
// sphere.
func Midpoint(a, b r3.Vec) r3.Vec {
	return Unit(r3.Scale(0.5, r3.Add(a, b)))
}

// AngularDistance returns the angle in radians between two unit vectors.
// Computed with atan2 of cross and dot so it stays accurate for very
// small separations, which is what vertex deduplication cares about.
func AngularDistance(a, b r3.Vec) float64 {
	return math.Atan2(r3.Norm(r3.Cross(a, b)), r3.Dot(a, b))
}

// FromLonLatDeg converts geographic coordinates in degrees to a unit
// vector. Longitude is measured east from the +X axis, latitude north
// from the equator.
func FromLonLatDeg(lonDeg, latDeg float64) r3.Vec {
	lon := lonDeg * math.Pi / 180
	lat := latDeg * math.Pi / 180
	cosLat := math.Cos(lat)
	return r3.Vec{
		X: cosLat * math.Cos(lon),
		Y: cosLat * math.Sin(lon),
		Z: math.Sin(lat),
	}
}

// ToLonLatDeg converts a unit vector to (longitude, latitude) in degrees.
func ToLonLatDeg(v r3.Vec) (lonDeg, latDeg float64) {
	lonDeg = math.Atan2(v.Y, v.X) * 180 / math.Pi
	latDeg = math.Asin(math.Max(-1, math.Min(1, v.Z))) * 180 / math.Pi
	return lonDeg, latDeg
}

// TriangleArea returns the area of the spherical triangle (a, b, c) on
// the unit sphere, using the Van Oosterom & Strackee solid-angle formula.
// The result is independent of winding.
func TriangleArea(a, b, c r3.Vec) float64 {
	num := math.Abs(r3.Dot(a, r3.Cross(b, c)))
	den := 1 + r3.Dot(a, b) + r3.Dot(b, c) + r3.Dot(c, a)
	return math.Abs(2 * math.Atan2(num, den))
}

// CCW reports whether the triangle (a, b, c) winds counter-clockwise as
// seen from outside the sphere. For unit vectors this is the sign of the
// scalar triple product.
func CCW(a, b, c r3.Vec) bool {
	return r3.Dot(a, r3.Cross(b, c)) > 0
}
