package tess

// noIndex marks an absent neighbor or child slot inside the store. It
// never escapes the package: accessors report absence through OptIndex
// or (int, bool) returns.
const noIndex = -1

// OptIndex is an optional triangle index. Valid is false when the slot
// is absent (no neighbor across that edge, or no recorded descendant).
type OptIndex struct {
	Index int
	Valid bool
}

func someIndex(i int) OptIndex {
	if i < 0 {
		return OptIndex{}
	}
	return OptIndex{Index: i, Valid: true}
}

// Triangle is one spherical triangle of a tessellation level. Vertices
// are indices into the grid's VertexStore, ordered counter-clockwise as
// seen from outside the sphere. Neighbors[k] is the triangle across the
// edge (Vertices[k], Vertices[(k+1)%3]). Child is the canonical
// descendant at the next finer level: the center triangle of the
// quartering, absent for leaf triangles.
type Triangle struct {
	Vertices  [3]int
	Neighbors [3]OptIndex
	Child     OptIndex
	Level     int
	TessID    int
}

// TriangleStore holds triangle records appended in build order, which is
// what keeps each (tessellation, level) block contiguous.
type TriangleStore struct {
	tris []triRecord
}

// triRecord is the compact in-store form; noIndex marks absent links.
type triRecord struct {
	v      [3]int
	n      [3]int
	child  int
	level  int
	tessID int
}

// NewTriangleStore creates an empty store.
func NewTriangleStore() *TriangleStore {
	return &TriangleStore{}
}

// Count returns the number of triangles.
func (s *TriangleStore) Count() int { return len(s.tris) }

// Add appends a triangle with no links set and returns its index.
func (s *TriangleStore) Add(v0, v1, v2, level, tessID int) int {
	idx := len(s.tris)
	s.tris = append(s.tris, triRecord{
		v:      [3]int{v0, v1, v2},
		n:      [3]int{noIndex, noIndex, noIndex},
		child:  noIndex,
		level:  level,
		tessID: tessID,
	})
	return idx
}

// SetNeighbor records the triangle across edge k of triangle t.
func (s *TriangleStore) SetNeighbor(t, edge, neighbor int) error {
	if t < 0 || t >= len(s.tris) {
		return &OutOfRangeError{Kind: "triangle", Index: t, Count: len(s.tris)}
	}
	s.tris[t].n[edge] = neighbor
	return nil
}

// SetNeighbors records all three neighbor links of triangle t at once.
func (s *TriangleStore) SetNeighbors(t, n0, n1, n2 int) error {
	if t < 0 || t >= len(s.tris) {
		return &OutOfRangeError{Kind: "triangle", Index: t, Count: len(s.tris)}
	}
	s.tris[t].n = [3]int{n0, n1, n2}
	return nil
}

// SetChild records the canonical descendant of triangle t.
func (s *TriangleStore) SetChild(t, child int) error {
	if t < 0 || t >= len(s.tris) {
		return &OutOfRangeError{Kind: "triangle", Index: t, Count: len(s.tris)}
	}
	if child < 0 || child >= len(s.tris) {
		return &OutOfRangeError{Kind: "triangle", Index: child, Count: len(s.tris)}
	}
	s.tris[t].child = child
	return nil
}

// Triangle returns the record at index i.
func (s *TriangleStore) Triangle(i int) (Triangle, error) {
	if i < 0 || i >= len(s.tris) {
		return Triangle{}, &OutOfRangeError{Kind: "triangle", Index: i, Count: len(s.tris)}
	}
	r := s.tris[i]
	return Triangle{
		Vertices:  r.v,
		Neighbors: [3]OptIndex{someIndex(r.n[0]), someIndex(r.n[1]), someIndex(r.n[2])},
		Child:     someIndex(r.child),
		Level:     r.level,
		TessID:    r.tessID,
	}, nil
}
