package tess

import (
	"fmt"
	"strconv"

	"github.com/banshee-data/geogrid/internal/geom"
)

// degenerateArea is the spherical-area floor below which a triangle is
// considered degenerate and the build aborts.
const degenerateArea = 1e-15

// Config describes one tessellation to build.
type Config struct {
	// Name is the tessellation name; empty defaults to "tess-<id>".
	Name string
	// BaseShape is the level-0 polyhedron; empty defaults to Icosahedron.
	BaseShape BaseShape
	// MaxLevel is the finest refinement level. 0 builds only the base
	// shape.
	MaxLevel int
	// DedupEpsilon is the vertex dedup tolerance in radians; 0 selects
	// DefaultDedupEpsilon.
	DedupEpsilon float64
}

func (c Config) validate() error {
	if c.MaxLevel < 0 {
		return &ConfigError{Param: "maxLevel", Value: strconv.Itoa(c.MaxLevel), Reason: "must be >= 0"}
	}
	if c.DedupEpsilon < 0 {
		return &ConfigError{Param: "dedupEpsilon", Value: fmt.Sprintf("%g", c.DedupEpsilon), Reason: "must be >= 0"}
	}
	if c.BaseShape != "" {
		if _, err := ParseBaseShape(string(c.BaseShape)); err != nil {
			return err
		}
	}
	return nil
}

// Builder constructs a Grid. Tessellations added to the same builder
// share one VertexStore and one TriangleStore; triangle blocks stay
// contiguous per (tessellation, level) because each level is appended in
// full before the next begins.
type Builder struct {
	vertices  *VertexStore
	triangles *TriangleStore
	levels    *LevelIndex
	names     []string
	done      bool
}

// NewBuilder creates a builder whose vertex dedup uses the given epsilon
// in radians (0 selects DefaultDedupEpsilon).
func NewBuilder(dedupEpsilon float64) *Builder {
	return &Builder{
		vertices:  NewVertexStore(dedupEpsilon),
		triangles: NewTriangleStore(),
		levels:    NewLevelIndex(),
	}
}

// Build constructs a grid holding a single tessellation.
func Build(cfg Config) (*Grid, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	b := NewBuilder(cfg.DedupEpsilon)
	if _, err := b.AddTessellation(cfg); err != nil {
		return nil, err
	}
	return b.Grid()
}

// AddTessellation builds one tessellation into the grid under
// construction and returns its id.
func (b *Builder) AddTessellation(cfg Config) (int, error) {
	if b.done {
		return 0, fmt.Errorf("builder already finished")
	}
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	if cfg.DedupEpsilon != 0 && cfg.DedupEpsilon != b.vertices.Epsilon() {
		return 0, &ConfigError{
			Param:  "dedupEpsilon",
			Value:  fmt.Sprintf("%g", cfg.DedupEpsilon),
			Reason: fmt.Sprintf("builder uses %g; tessellations sharing a builder share one epsilon", b.vertices.Epsilon()),
		}
	}

	shape := cfg.BaseShape
	if shape == "" {
		shape = Icosahedron
	}
	tessID := len(b.names)
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("tess-%d", tessID)
	}
	for _, existing := range b.names {
		if existing == name {
			return 0, &ConfigError{Param: "name", Value: name, Reason: "duplicate tessellation name"}
		}
	}

	if err := b.buildBase(shape, tessID); err != nil {
		return 0, err
	}
	for level := 0; level < cfg.MaxLevel; level++ {
		if err := b.refineLevel(tessID, level); err != nil {
			return 0, err
		}
	}

	b.names = append(b.names, name)
	logf("[Builder] built tessellation %q: shape=%s levels=%d vertices=%d triangles=%d",
		name, shape, cfg.MaxLevel+1, b.vertices.Count(), b.triangles.Count())
	return tessID, nil
}

// Grid finalizes construction and returns the immutable grid. The
// builder must not be used afterwards.
func (b *Builder) Grid() (*Grid, error) {
	if b.done {
		return nil, fmt.Errorf("builder already finished")
	}
	b.done = true
	return &Grid{
		vertices:  b.vertices,
		triangles: b.triangles,
		levels:    b.levels,
		names:     b.names,
	}, nil
}

// buildBase instantiates the base polyhedron as level 0.
func (b *Builder) buildBase(shape BaseShape, tessID int) error {
	baseVerts, faces := baseGeometry(shape)

	vidx := make([]int, len(baseVerts))
	for i, v := range baseVerts {
		vidx[i] = b.vertices.Add(v)
	}

	first := b.triangles.Count()
	for _, f := range faces {
		v0, v1, v2 := vidx[f[0]], vidx[f[1]], vidx[f[2]]
		if err := b.checkTriangle(v0, v1, v2, tessID, 0); err != nil {
			return err
		}
		b.triangles.Add(v0, v1, v2, 0, tessID)
	}
	last := b.triangles.Count()

	if err := b.linkNeighbors(first, last, tessID, 0); err != nil {
		return err
	}
	b.levels.RegisterRange(tessID, 0, first, last)
	return nil
}

// refineLevel quarters every triangle of (tessID, level) into 4 children
// at level+1. The center child is recorded as the parent's canonical
// descendant. Neighbor links for the new level are computed only after
// all of its triangles exist.
func (b *Builder) refineLevel(tessID, level int) error {
	first, last, err := b.levels.Range(tessID, level)
	if err != nil {
		return err
	}

	childFirst := b.triangles.Count()
	for p := first; p < last; p++ {
		rec := b.triangles.tris[p]
		va, _ := b.vertices.Vertex(rec.v[0])
		vb, _ := b.vertices.Vertex(rec.v[1])
		vc, _ := b.vertices.Vertex(rec.v[2])

		// Midpoints dedup against the copies computed from the triangle
		// on the other side of each edge.
		mab := b.vertices.Add(geom.Midpoint(va, vb))
		mbc := b.vertices.Add(geom.Midpoint(vb, vc))
		mca := b.vertices.Add(geom.Midpoint(vc, va))
		if mab == mbc || mbc == mca || mca == mab {
			return &GeometryError{TessID: tessID, Level: level + 1,
				Reason: fmt.Sprintf("edge midpoints of triangle %d collapsed", p)}
		}

		// Winding of every child follows the parent: corner triangles
		// keep the parent vertex first, the center triangle walks the
		// midpoints in parent order.
		children := [4][3]int{
			{rec.v[0], mab, mca},
			{rec.v[1], mbc, mab},
			{rec.v[2], mca, mbc},
			{mab, mbc, mca},
		}
		var center int
		for ci, c := range children {
			if err := b.checkTriangle(c[0], c[1], c[2], tessID, level+1); err != nil {
				return err
			}
			idx := b.triangles.Add(c[0], c[1], c[2], level+1, tessID)
			if ci == 3 {
				center = idx
			}
		}
		if err := b.triangles.SetChild(p, center); err != nil {
			return err
		}
	}
	childLast := b.triangles.Count()

	if err := b.linkNeighbors(childFirst, childLast, tessID, level+1); err != nil {
		return err
	}
	b.levels.RegisterRange(tessID, level+1, childFirst, childLast)
	logf("[Builder] tess=%d level=%d: %d triangles, %d vertices total",
		tessID, level+1, childLast-childFirst, b.vertices.Count())
	return nil
}

// checkTriangle rejects degenerate triangles before they enter the store.
func (b *Builder) checkTriangle(v0, v1, v2, tessID, level int) error {
	if v0 == v1 || v1 == v2 || v2 == v0 {
		return &GeometryError{TessID: tessID, Level: level,
			Reason: fmt.Sprintf("repeated vertex in triangle (%d,%d,%d)", v0, v1, v2)}
	}
	a, _ := b.vertices.Vertex(v0)
	bb, _ := b.vertices.Vertex(v1)
	c, _ := b.vertices.Vertex(v2)
	if geom.TriangleArea(a, bb, c) < degenerateArea {
		return &GeometryError{TessID: tessID, Level: level,
			Reason: fmt.Sprintf("zero-area triangle (%d,%d,%d)", v0, v1, v2)}
	}
	return nil
}

// linkNeighbors computes the neighbor graph for the triangle block
// [first, last) by shared-edge matching: two triangles are neighbors iff
// they share exactly one edge (two vertex indices). On a closed surface
// every edge is shared by exactly two triangles of the same level.
func (b *Builder) linkNeighbors(first, last, tessID, level int) error {
	type edgeSlot struct {
		tri  int
		edge int
	}
	seen := make(map[[2]int]edgeSlot, 3*(last-first)/2)

	for t := first; t < last; t++ {
		v := b.triangles.tris[t].v
		for e := 0; e < 3; e++ {
			a, c := v[e], v[(e+1)%3]
			if a > c {
				a, c = c, a
			}
			key := [2]int{a, c}
			if prev, ok := seen[key]; ok {
				if b.triangles.tris[prev.tri].n[prev.edge] != noIndex {
					return &GeometryError{TessID: tessID, Level: level,
						Reason: fmt.Sprintf("edge (%d,%d) shared by more than two triangles", a, c)}
				}
				b.triangles.tris[prev.tri].n[prev.edge] = t
				b.triangles.tris[t].n[e] = prev.tri
			} else {
				seen[key] = edgeSlot{tri: t, edge: e}
			}
		}
	}
	return nil
}
