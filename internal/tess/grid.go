package tess

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/geogrid/internal/geom"
)

// TessRef names a tessellation either by integer id or by name. The two
// forms are explicit; there is no runtime probing of "is this an int or
// a string".
type TessRef struct {
	id     int
	name   string
	byName bool
}

// ByID references a tessellation by its integer id.
func ByID(id int) TessRef { return TessRef{id: id} }

// ByName references a tessellation by its name.
func ByName(name string) TessRef { return TessRef{name: name, byName: true} }

func (r TessRef) String() string {
	if r.byName {
		return r.name
	}
	return fmt.Sprintf("%d", r.id)
}

// Grid is the aggregate root: vertex store, triangle store, level index
// and tessellation names. It is immutable once a Builder returns it, so
// any number of goroutines may query it concurrently.
type Grid struct {
	vertices  *VertexStore
	triangles *TriangleStore
	levels    *LevelIndex
	names     []string
}

// Resolve maps a TessRef to a tessellation id.
func (g *Grid) Resolve(ref TessRef) (int, error) {
	if ref.byName {
		for id, n := range g.names {
			if n == ref.name {
				return id, nil
			}
		}
		return 0, &NotFoundError{Tess: ref.name, Level: -1}
	}
	if ref.id < 0 || ref.id >= len(g.names) {
		return 0, &NotFoundError{Tess: ref.String(), Level: -1}
	}
	return ref.id, nil
}

// TessCount returns the number of tessellations.
func (g *Grid) TessCount() int { return len(g.names) }

// TessName returns the name of tessellation id.
func (g *Grid) TessName(id int) (string, error) {
	if id < 0 || id >= len(g.names) {
		return "", &NotFoundError{Tess: fmt.Sprintf("%d", id), Level: -1}
	}
	return g.names[id], nil
}

// Levels returns the number of levels of a tessellation (maxLevel+1).
func (g *Grid) Levels(ref TessRef) (int, error) {
	id, err := g.Resolve(ref)
	if err != nil {
		return 0, err
	}
	return g.levels.Levels(id), nil
}

// VertexCount returns the number of distinct vertices in the grid.
func (g *Grid) VertexCount() int { return g.vertices.Count() }

// TriangleCount returns the total number of triangles across all
// tessellations and levels.
func (g *Grid) TriangleCount() int { return g.triangles.Count() }

// Vertex returns the unit-sphere coordinate at index i.
func (g *Grid) Vertex(i int) (r3.Vec, error) { return g.vertices.Vertex(i) }

// Triangle returns the triangle record at index i.
func (g *Grid) Triangle(i int) (Triangle, error) { return g.triangles.Triangle(i) }

// TriangleRange returns the contiguous block [first, lastExclusive) of
// triangle indices for (ref, level).
func (g *Grid) TriangleRange(ref TessRef, level int) (first, lastExclusive int, err error) {
	id, err := g.Resolve(ref)
	if err != nil {
		return 0, 0, err
	}
	first, lastExclusive, err = g.levels.Range(id, level)
	if err != nil {
		return 0, 0, &NotFoundError{Tess: ref.String(), Level: level}
	}
	return first, lastExclusive, nil
}

// Triangles returns the vertex-index triples of every triangle at
// (ref, level), in triangle-index order. The result is deterministic:
// two calls return identical sequences.
func (g *Grid) Triangles(ref TessRef, level int) ([][3]int, error) {
	first, last, err := g.TriangleRange(ref, level)
	if err != nil {
		return nil, err
	}
	out := make([][3]int, 0, last-first)
	for t := first; t < last; t++ {
		out = append(out, g.triangles.tris[t].v)
	}
	return out, nil
}

// VertexIndices returns the sorted distinct vertex indices referenced by
// the triangles of (ref, level).
func (g *Grid) VertexIndices(ref TessRef, level int) ([]int, error) {
	first, last, err := g.TriangleRange(ref, level)
	if err != nil {
		return nil, err
	}
	used := make(map[int]struct{}, 3*(last-first))
	for t := first; t < last; t++ {
		for _, v := range g.triangles.tris[t].v {
			used[v] = struct{}{}
		}
	}
	// Ascending index order keeps the result stable across calls.
	out := make([]int, 0, len(used))
	for v := 0; v < g.vertices.Count(); v++ {
		if _, ok := used[v]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Vertices returns the coordinates of the vertices of (ref, level). With
// connectedOnly true only vertices referenced by that level's triangles
// are returned; with connectedOnly false every vertex in the store is
// returned, including ones that only finer levels reference.
func (g *Grid) Vertices(ref TessRef, level int, connectedOnly bool) ([]r3.Vec, error) {
	if !connectedOnly {
		// Validate the (tess, level) pair even though the result does not
		// depend on it.
		if _, _, err := g.TriangleRange(ref, level); err != nil {
			return nil, err
		}
		return g.AllVertices(), nil
	}
	idx, err := g.VertexIndices(ref, level)
	if err != nil {
		return nil, err
	}
	out := make([]r3.Vec, len(idx))
	for i, v := range idx {
		out[i], _ = g.vertices.Vertex(v)
	}
	return out, nil
}

// AllVertices returns a copy of every vertex coordinate in the store.
func (g *Grid) AllVertices() []r3.Vec {
	out := make([]r3.Vec, g.vertices.Count())
	copy(out, g.vertices.coords)
	return out
}

// NeighborsOf returns the indices of the up-to-3 triangles sharing an
// edge with triangle t.
func (g *Grid) NeighborsOf(t int) ([]int, error) {
	tri, err := g.triangles.Triangle(t)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, 3)
	for _, n := range tri.Neighbors {
		if n.Valid {
			out = append(out, n.Index)
		}
	}
	return out, nil
}

// ChildOf returns the canonical descendant of triangle t at the next
// finer level. ok is false for leaf triangles.
func (g *Grid) ChildOf(t int) (child int, ok bool, err error) {
	tri, err := g.triangles.Triangle(t)
	if err != nil {
		return 0, false, err
	}
	return tri.Child.Index, tri.Child.Valid, nil
}

// LevelArea returns the summed spherical area of the triangles at
// (ref, level). For a well-formed level this is 4*pi within numeric
// tolerance.
func (g *Grid) LevelArea(ref TessRef, level int) (float64, error) {
	first, last, err := g.TriangleRange(ref, level)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for t := first; t < last; t++ {
		v := g.triangles.tris[t].v
		a, _ := g.vertices.Vertex(v[0])
		b, _ := g.vertices.Vertex(v[1])
		c, _ := g.vertices.Vertex(v[2])
		total += geom.TriangleArea(a, b, c)
	}
	return total, nil
}

// String summarizes the grid: tessellations, levels and per-level counts.
func (g *Grid) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "grid: %d tessellation(s), %d vertices, %d triangles\n",
		g.TessCount(), g.VertexCount(), g.TriangleCount())
	for id, name := range g.names {
		levels := g.levels.Levels(id)
		fmt.Fprintf(&sb, "  [%d] %s: %d level(s)\n", id, name, levels)
		for lv := 0; lv < levels; lv++ {
			first, last, _ := g.levels.Range(id, lv)
			nv, _ := g.VertexIndices(ByID(id), lv)
			fmt.Fprintf(&sb, "    level %d: %d triangles [%d,%d), %d vertices\n",
				lv, last-first, first, last, len(nv))
		}
	}
	return sb.String()
}
