package tess

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/geogrid/internal/geom"
)

func buildIcosahedron(t *testing.T, maxLevel int) *Grid {
	t.Helper()
	g, err := Build(Config{BaseShape: Icosahedron, MaxLevel: maxLevel})
	require.NoError(t, err)
	return g
}

// Standard icosahedral geodesic subdivision counts.
func TestBuild_IcosahedronCounts(t *testing.T) {
	g := buildIcosahedron(t, 2)

	wantTris := []int{20, 80, 320}
	wantVerts := []int{12, 42, 162}
	for level := 0; level <= 2; level++ {
		tris, err := g.Triangles(ByID(0), level)
		require.NoError(t, err)
		assert.Len(t, tris, wantTris[level], "level %d triangle count", level)

		verts, err := g.Vertices(ByID(0), level, true)
		require.NoError(t, err)
		assert.Len(t, verts, wantVerts[level], "level %d vertex count", level)
	}
	assert.Equal(t, 162, g.VertexCount())
	assert.Equal(t, 20+80+320, g.TriangleCount())
}

func TestBuild_OtherBaseShapes(t *testing.T) {
	tests := []struct {
		shape     BaseShape
		wantVerts int
		wantTris  int
	}{
		{Octahedron, 6, 8},
		{Tetrahedron, 4, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.shape), func(t *testing.T) {
			g, err := Build(Config{BaseShape: tt.shape, MaxLevel: 1})
			require.NoError(t, err)

			tris, err := g.Triangles(ByID(0), 0)
			require.NoError(t, err)
			assert.Len(t, tris, tt.wantTris)

			verts, err := g.Vertices(ByID(0), 0, true)
			require.NoError(t, err)
			assert.Len(t, verts, tt.wantVerts)

			// Quartering multiplies triangle count by 4.
			fine, err := g.Triangles(ByID(0), 1)
			require.NoError(t, err)
			assert.Len(t, fine, 4*tt.wantTris)
		})
	}
}

func TestBuild_MaxLevelZero(t *testing.T) {
	g := buildIcosahedron(t, 0)
	levels, err := g.Levels(ByID(0))
	require.NoError(t, err)
	assert.Equal(t, 1, levels)

	// Every triangle is a leaf.
	for i := 0; i < g.TriangleCount(); i++ {
		_, ok, err := g.ChildOf(i)
		require.NoError(t, err)
		assert.False(t, ok, "triangle %d should be a leaf", i)
	}
}

func TestBuild_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative maxLevel", Config{MaxLevel: -1}},
		{"negative epsilon", Config{DedupEpsilon: -1e-9}},
		{"unknown base shape", Config{BaseShape: "dodecahedron"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.cfg)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
		})
	}
}

// Union of triangle areas at every level covers the sphere exactly.
func TestBuild_AreaCoversSphere(t *testing.T) {
	g := buildIcosahedron(t, 3)
	for level := 0; level <= 3; level++ {
		area, err := g.LevelArea(ByID(0), level)
		require.NoError(t, err)
		assert.InDelta(t, 4*math.Pi, area, 1e-9, "level %d area", level)
	}
}

func TestBuild_NeighborSymmetry(t *testing.T) {
	g := buildIcosahedron(t, 2)
	for ti := 0; ti < g.TriangleCount(); ti++ {
		neighbors, err := g.NeighborsOf(ti)
		require.NoError(t, err)
		assert.Len(t, neighbors, 3, "closed surface: triangle %d must have 3 neighbors", ti)

		for _, n := range neighbors {
			back, err := g.NeighborsOf(n)
			require.NoError(t, err)
			assert.Contains(t, back, ti, "neighbor %d of %d does not link back", n, ti)

			// Neighbors live on the same tessellation level.
			a, _ := g.Triangle(ti)
			b, _ := g.Triangle(n)
			assert.Equal(t, a.Level, b.Level)
		}
	}
}

func TestBuild_NeighborsShareOneEdge(t *testing.T) {
	g := buildIcosahedron(t, 1)
	for ti := 0; ti < g.TriangleCount(); ti++ {
		tri, _ := g.Triangle(ti)
		for _, n := range tri.Neighbors {
			if !n.Valid {
				continue
			}
			other, _ := g.Triangle(n.Index)
			shared := 0
			for _, v := range tri.Vertices {
				for _, w := range other.Vertices {
					if v == w {
						shared++
					}
				}
			}
			assert.Equal(t, 2, shared, "triangles %d and %d must share exactly one edge", ti, n.Index)
		}
	}
}

// The child triangle's vertices are drawn from the parent's vertices and
// the parent's edge midpoints.
func TestBuild_ParentChildConsistency(t *testing.T) {
	g := buildIcosahedron(t, 2)
	for ti := 0; ti < g.TriangleCount(); ti++ {
		parent, _ := g.Triangle(ti)
		child, ok, err := g.ChildOf(ti)
		require.NoError(t, err)
		if !ok {
			assert.Equal(t, 2, parent.Level, "only finest-level triangles may be leaves")
			continue
		}

		ctri, err := g.Triangle(child)
		require.NoError(t, err)
		assert.Equal(t, parent.Level+1, ctri.Level)
		assert.Equal(t, parent.TessID, ctri.TessID)

		// Allowed vertex set: parent corners plus edge midpoints.
		allowed := make(map[int]struct{})
		var corners [3]r3.Vec
		for i, v := range parent.Vertices {
			allowed[v] = struct{}{}
			corners[i], _ = g.Vertex(v)
		}
		vs := g.vertices
		for i := 0; i < 3; i++ {
			m := geom.Midpoint(corners[i], corners[(i+1)%3])
			allowed[vs.Add(m)] = struct{}{} // Add dedups to the existing index
		}
		for _, v := range ctri.Vertices {
			_, ok := allowed[v]
			assert.True(t, ok, "child %d of %d uses vertex %d outside parent corners+midpoints", child, ti, v)
		}
	}
}

func TestBuild_LevelRangesContiguous(t *testing.T) {
	g := buildIcosahedron(t, 2)

	next := 0
	for level := 0; level <= 2; level++ {
		first, last, err := g.TriangleRange(ByID(0), level)
		require.NoError(t, err)
		assert.Equal(t, next, first, "level %d must start where level %d ended", level, level-1)
		assert.Greater(t, last, first)
		next = last

		// Every triangle in the range carries the level it was indexed
		// under.
		for ti := first; ti < last; ti++ {
			tri, _ := g.Triangle(ti)
			assert.Equal(t, level, tri.Level)
		}
	}
	assert.Equal(t, g.TriangleCount(), next)
}

func TestBuild_WindingPreserved(t *testing.T) {
	g := buildIcosahedron(t, 2)
	for ti := 0; ti < g.TriangleCount(); ti++ {
		tri, _ := g.Triangle(ti)
		a, _ := g.Vertex(tri.Vertices[0])
		b, _ := g.Vertex(tri.Vertices[1])
		c, _ := g.Vertex(tri.Vertices[2])
		assert.True(t, geom.CCW(a, b, c), "triangle %d not CCW from outside", ti)
	}
}

func TestBuilder_MultipleTessellations(t *testing.T) {
	b := NewBuilder(0)
	ico, err := b.AddTessellation(Config{Name: "surface", BaseShape: Icosahedron, MaxLevel: 1})
	require.NoError(t, err)
	oct, err := b.AddTessellation(Config{Name: "coarse", BaseShape: Octahedron, MaxLevel: 0})
	require.NoError(t, err)
	g, err := b.Grid()
	require.NoError(t, err)

	assert.Equal(t, 0, ico)
	assert.Equal(t, 1, oct)
	assert.Equal(t, 2, g.TessCount())

	// Ranges of different tessellations never overlap.
	_, icoLast, err := g.TriangleRange(ByID(ico), 1)
	require.NoError(t, err)
	octFirst, octLast, err := g.TriangleRange(ByID(oct), 0)
	require.NoError(t, err)
	assert.Equal(t, icoLast, octFirst)
	assert.Equal(t, g.TriangleCount(), octLast)

	// Both tessellations still cover the sphere at their finest level.
	area, err := g.LevelArea(ByName("coarse"), 0)
	require.NoError(t, err)
	assert.InDelta(t, 4*math.Pi, area, 1e-9)
}

func TestBuilder_DuplicateName(t *testing.T) {
	b := NewBuilder(0)
	_, err := b.AddTessellation(Config{Name: "a"})
	require.NoError(t, err)
	_, err = b.AddTessellation(Config{Name: "a"})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "name", ce.Param)
}

func TestBuilder_EpsilonMismatch(t *testing.T) {
	b := NewBuilder(1e-9)
	_, err := b.AddTessellation(Config{DedupEpsilon: 1e-6})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestBuilder_FinishedIsFinal(t *testing.T) {
	b := NewBuilder(0)
	_, err := b.AddTessellation(Config{})
	require.NoError(t, err)
	_, err = b.Grid()
	require.NoError(t, err)

	_, err = b.AddTessellation(Config{Name: "late"})
	assert.Error(t, err)
	_, err = b.Grid()
	assert.Error(t, err)
}
