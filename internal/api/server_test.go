package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/geogrid/internal/griddb"
	"github.com/banshee-data/geogrid/internal/tess"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	db, err := griddb.NewGridDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	g, err := tess.Build(tess.Config{Name: "surface", MaxLevel: 2})
	require.NoError(t, err)
	id, err := db.StoreGrid("earth", g, "")
	require.NoError(t, err)

	return NewServer(db), id
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.ServeMux().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(into))
}

func TestListGrids(t *testing.T) {
	s, id := newTestServer(t)

	rec := get(t, s, "/api/grids")
	require.Equal(t, http.StatusOK, rec.Code)

	var grids []griddb.GridRecord
	decode(t, rec, &grids)
	require.Len(t, grids, 1)
	assert.Equal(t, id, grids[0].GridID)
	assert.Equal(t, "earth", grids[0].Name)
	assert.Equal(t, 420, grids[0].TriangleCount)
}

func TestShowGrid(t *testing.T) {
	s, id := newTestServer(t)

	for _, key := range []string{id, "earth"} {
		rec := get(t, s, "/api/grids/"+key)
		require.Equal(t, http.StatusOK, rec.Code, "lookup by %q", key)

		var sum struct {
			Name          string `json:"name"`
			Tessellations []struct {
				Name   string `json:"name"`
				Levels []struct {
					Level         int `json:"level"`
					TriangleCount int `json:"triangle_count"`
				} `json:"levels"`
			} `json:"tessellations"`
		}
		decode(t, rec, &sum)
		assert.Equal(t, "earth", sum.Name)
		require.Len(t, sum.Tessellations, 1)
		assert.Equal(t, "surface", sum.Tessellations[0].Name)
		require.Len(t, sum.Tessellations[0].Levels, 3)
		assert.Equal(t, 20, sum.Tessellations[0].Levels[0].TriangleCount)
		assert.Equal(t, 320, sum.Tessellations[0].Levels[2].TriangleCount)
	}
}

func TestShowGrid_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/api/grids/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTriangles(t *testing.T) {
	s, id := newTestServer(t)

	rec := get(t, s, fmt.Sprintf("/api/grids/%s/triangles?tess=surface&level=1", id))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tess      string `json:"tess"`
		Level     int    `json:"level"`
		Count     int    `json:"count"`
		Triangles []struct {
			Index    int    `json:"index"`
			Vertices [3]int `json:"vertices"`
		} `json:"triangles"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "surface", resp.Tess)
	assert.Equal(t, 1, resp.Level)
	assert.Equal(t, 80, resp.Count)
	require.Len(t, resp.Triangles, 80)
	// Indices are the contiguous level-1 block, right after level 0.
	assert.Equal(t, 20, resp.Triangles[0].Index)
	assert.Equal(t, 99, resp.Triangles[79].Index)
}

func TestListTriangles_Errors(t *testing.T) {
	s, id := newTestServer(t)

	t.Run("unknown level", func(t *testing.T) {
		rec := get(t, s, fmt.Sprintf("/api/grids/%s/triangles?level=9", id))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("unknown tess name", func(t *testing.T) {
		rec := get(t, s, fmt.Sprintf("/api/grids/%s/triangles?tess=mantle", id))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("bad level param", func(t *testing.T) {
		rec := get(t, s, fmt.Sprintf("/api/grids/%s/triangles?level=abc", id))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListVertices(t *testing.T) {
	s, id := newTestServer(t)

	rec := get(t, s, fmt.Sprintf("/api/grids/%s/vertices?level=0", id))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count    int `json:"count"`
		Vertices []struct {
			X, Y, Z  float64
			Lon, Lat float64
		} `json:"vertices"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 12, resp.Count)

	// connected=false returns the full vertex table.
	rec = get(t, s, fmt.Sprintf("/api/grids/%s/vertices?level=0&connected=false", id))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, 162, resp.Count)

	rec = get(t, s, fmt.Sprintf("/api/grids/%s/vertices?connected=maybe", id))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShowNeighbors(t *testing.T) {
	s, id := newTestServer(t)

	rec := get(t, s, fmt.Sprintf("/api/grids/%s/triangles/0/neighbors", id))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Triangle  int   `json:"triangle"`
		Neighbors []int `json:"neighbors"`
		Child     *int  `json:"child"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 0, resp.Triangle)
	assert.Len(t, resp.Neighbors, 3)
	require.NotNil(t, resp.Child, "base triangle has a descendant")

	// A finest-level triangle has no child field.
	rec = get(t, s, fmt.Sprintf("/api/grids/%s/triangles/419/neighbors", id))
	require.Equal(t, http.StatusOK, rec.Code)
	resp.Child = nil
	decode(t, rec, &resp)
	assert.Nil(t, resp.Child)

	t.Run("out of range", func(t *testing.T) {
		rec := get(t, s, fmt.Sprintf("/api/grids/%s/triangles/99999/neighbors", id))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("non-integer index", func(t *testing.T) {
		rec := get(t, s, fmt.Sprintf("/api/grids/%s/triangles/abc/neighbors", id))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGridCacheReuse(t *testing.T) {
	s, id := newTestServer(t)

	// First hit populates the cache, second uses it.
	rec := get(t, s, fmt.Sprintf("/api/grids/%s/triangles?level=0", id))
	require.Equal(t, http.StatusOK, rec.Code)

	s.mu.RLock()
	_, cached := s.cache[id]
	s.mu.RUnlock()
	assert.True(t, cached, "decoded grid should be cached")

	rec = get(t, s, fmt.Sprintf("/api/grids/%s/triangles?level=0", id))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMain(m *testing.M) {
	tess.SetLogger(nil)
	os.Exit(m.Run())
}
