package tess

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/geogrid/internal/geom"
)

// DefaultDedupEpsilon is the angular tolerance (radians) under which two
// computed vertex coordinates are treated as the same vertex. Midpoints
// computed independently from either side of a shared edge agree to
// ~1e-15, so 1e-12 is comfortably above the floating-point noise floor
// while staying far below the shortest edge of any practical level.
const DefaultDedupEpsilon = 1e-12

// VertexStore holds deduplicated unit-sphere vertex coordinates.
// Deduplication uses a spatial hash: coordinates are quantized into cubic
// cells a few epsilon wide and candidate matches are probed in the
// surrounding cells, so insertion stays O(1) per vertex.
type VertexStore struct {
	coords  []r3.Vec
	epsilon float64
	cell    float64
	buckets map[[3]int64][]int
}

// NewVertexStore creates a store with the given dedup epsilon in radians.
// An epsilon of 0 selects DefaultDedupEpsilon.
func NewVertexStore(epsilon float64) *VertexStore {
	if epsilon == 0 {
		epsilon = DefaultDedupEpsilon
	}
	// Chord length for a small angle equals the angle to first order, so
	// cells sized 2*epsilon guarantee any match lands in a probed cell.
	return &VertexStore{
		epsilon: epsilon,
		cell:    2 * epsilon,
		buckets: make(map[[3]int64][]int),
	}
}

// Epsilon returns the dedup tolerance the store was created with.
func (s *VertexStore) Epsilon() float64 { return s.epsilon }

// Count returns the number of distinct vertices.
func (s *VertexStore) Count() int { return len(s.coords) }

// Vertex returns the coordinate at index i.
func (s *VertexStore) Vertex(i int) (r3.Vec, error) {
	if i < 0 || i >= len(s.coords) {
		return r3.Vec{}, &OutOfRangeError{Kind: "vertex", Index: i, Count: len(s.coords)}
	}
	return s.coords[i], nil
}

// Add inserts v (normalized onto the unit sphere) and returns its index.
// If an existing vertex lies within the dedup epsilon the existing index
// is returned instead.
func (s *VertexStore) Add(v r3.Vec) int {
	v = geom.Unit(v)

	key := s.key(v)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				probe := [3]int64{key[0] + dx, key[1] + dy, key[2] + dz}
				for _, idx := range s.buckets[probe] {
					if geom.AngularDistance(s.coords[idx], v) <= s.epsilon {
						return idx
					}
				}
			}
		}
	}

	idx := len(s.coords)
	s.coords = append(s.coords, v)
	s.buckets[key] = append(s.buckets[key], idx)
	return idx
}

func (s *VertexStore) key(v r3.Vec) [3]int64 {
	return [3]int64{
		int64(math.Floor(v.X / s.cell)),
		int64(math.Floor(v.Y / s.cell)),
		int64(math.Floor(v.Z / s.cell)),
	}
}

// rebuild reconstructs the spatial hash from the coordinate slice. Used
// when a store is restored from a serialized grid.
func (s *VertexStore) rebuild() {
	s.buckets = make(map[[3]int64][]int, len(s.coords))
	for i, v := range s.coords {
		k := s.key(v)
		s.buckets[k] = append(s.buckets[k], i)
	}
}
