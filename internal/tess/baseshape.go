package tess

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// BaseShape selects the level-0 polyhedron of a tessellation.
type BaseShape string

const (
	Icosahedron BaseShape = "icosahedron"
	Octahedron  BaseShape = "octahedron"
	Tetrahedron BaseShape = "tetrahedron"
)

// ParseBaseShape validates a base shape name.
func ParseBaseShape(name string) (BaseShape, error) {
	switch BaseShape(name) {
	case Icosahedron, Octahedron, Tetrahedron:
		return BaseShape(name), nil
	}
	return "", &ConfigError{Param: "baseShape", Value: name, Reason: "unknown base shape"}
}

// baseVertices and baseFaces return the canonical polyhedron for a shape.
// Vertices are not yet normalized; faces wind counter-clockwise as seen
// from outside the sphere.
func baseGeometry(shape BaseShape) (verts []r3.Vec, faces [][3]int) {
	switch shape {
	case Icosahedron:
		t := (1 + math.Sqrt(5)) / 2
		verts = []r3.Vec{
			{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
			{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
			{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
		}
		faces = [][3]int{
			{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
			{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
			{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
			{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
		}
	case Octahedron:
		verts = []r3.Vec{
			{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
		}
		faces = [][3]int{
			{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
			{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
		}
	case Tetrahedron:
		verts = []r3.Vec{
			{X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: -1},
			{X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: 1},
		}
		faces = [][3]int{
			{0, 1, 2}, {0, 2, 3}, {0, 3, 1}, {1, 3, 2},
		}
	}
	return verts, faces
}
