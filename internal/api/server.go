// Package api exposes a read-only HTTP query surface over stored
// tessellation grids: catalog listing, grid metadata, and triangle /
// vertex / neighbor queries per tessellation level.
package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/banshee-data/geogrid/internal/geom"
	"github.com/banshee-data/geogrid/internal/griddb"
	"github.com/banshee-data/geogrid/internal/httputil"
	"github.com/banshee-data/geogrid/internal/tess"
)

// GridStore is the catalog surface the server needs. Implemented by
// *griddb.GridDB.
type GridStore interface {
	ListGrids() ([]griddb.GridRecord, error)
	GetGrid(id string) (*griddb.GridRecord, error)
	GetGridByName(name string) (*griddb.GridRecord, error)
	LoadGrid(id string) (*tess.Grid, error)
}

// Server answers grid queries. Decoded grids are cached per id; stored
// grids are immutable so the cache never needs invalidation.
type Server struct {
	store GridStore

	mu    sync.RWMutex
	cache map[string]*tess.Grid
}

func NewServer(store GridStore) *Server {
	return &Server{
		store: store,
		cache: make(map[string]*tess.Grid),
	}
}

// ServeMux returns the route table for the server.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/grids", s.listGrids)
	mux.HandleFunc("GET /api/grids/{id}", s.showGrid)
	mux.HandleFunc("GET /api/grids/{id}/triangles", s.listTriangles)
	mux.HandleFunc("GET /api/grids/{id}/vertices", s.listVertices)
	mux.HandleFunc("GET /api/grids/{id}/triangles/{tri}/neighbors", s.showNeighbors)
	return mux
}

func (s *Server) listGrids(w http.ResponseWriter, r *http.Request) {
	grids, err := s.store.ListGrids()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list grids: %v", err))
		return
	}
	if grids == nil {
		grids = []griddb.GridRecord{}
	}
	httputil.WriteJSONOK(w, grids)
}

// lookup resolves the {id} path element, accepting either a grid uuid
// or a grid name, and returns the decoded grid.
func (s *Server) lookup(id string) (*tess.Grid, *griddb.GridRecord, error) {
	rec, err := s.store.GetGrid(id)
	if errors.Is(err, sql.ErrNoRows) {
		rec, err = s.store.GetGridByName(id)
	}
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	g, ok := s.cache[rec.GridID]
	s.mu.RUnlock()
	if ok {
		return g, rec, nil
	}

	g, err = s.store.LoadGrid(rec.GridID)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	s.cache[rec.GridID] = g
	s.mu.Unlock()
	return g, rec, nil
}

// gridSummary is the metadata response for one grid.
type gridSummary struct {
	griddb.GridRecord
	Tessellations []tessSummary `json:"tessellations"`
}

type tessSummary struct {
	TessID int            `json:"tess_id"`
	Name   string         `json:"name"`
	Levels []levelSummary `json:"levels"`
}

type levelSummary struct {
	Level         int `json:"level"`
	FirstTriangle int `json:"first_triangle"`
	LastTriangle  int `json:"last_triangle_exclusive"`
	TriangleCount int `json:"triangle_count"`
}

func (s *Server) showGrid(w http.ResponseWriter, r *http.Request) {
	g, rec, err := s.lookup(r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		httputil.NotFound(w, fmt.Sprintf("grid %q not found", r.PathValue("id")))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load grid: %v", err))
		return
	}

	sum := gridSummary{GridRecord: *rec}
	sum.GridBlob = nil
	for id := 0; id < g.TessCount(); id++ {
		name, _ := g.TessName(id)
		ts := tessSummary{TessID: id, Name: name}
		levels, _ := g.Levels(tess.ByID(id))
		for lv := 0; lv < levels; lv++ {
			first, last, _ := g.TriangleRange(tess.ByID(id), lv)
			ts.Levels = append(ts.Levels, levelSummary{
				Level: lv, FirstTriangle: first, LastTriangle: last, TriangleCount: last - first,
			})
		}
		sum.Tessellations = append(sum.Tessellations, ts)
	}
	httputil.WriteJSONOK(w, sum)
}

// tessRefFromQuery builds a TessRef from the "tess" query parameter: an
// integer selects by id, anything else by name, absent means id 0.
func tessRefFromQuery(r *http.Request) tess.TessRef {
	raw := r.URL.Query().Get("tess")
	if raw == "" {
		return tess.ByID(0)
	}
	if id, err := strconv.Atoi(raw); err == nil {
		return tess.ByID(id)
	}
	return tess.ByName(raw)
}

func levelFromQuery(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("level")
	if raw == "" {
		return 0, nil
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid 'level' parameter %q", raw)
	}
	return level, nil
}

// writeQueryError maps the grid error taxonomy onto HTTP statuses.
func writeQueryError(w http.ResponseWriter, err error) {
	var nf *tess.NotFoundError
	var oor *tess.OutOfRangeError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		httputil.NotFound(w, "grid not found")
	case errors.As(err, &nf):
		httputil.NotFound(w, nf.Error())
	case errors.As(err, &oor):
		httputil.NotFound(w, oor.Error())
	default:
		httputil.InternalServerError(w, err.Error())
	}
}

func (s *Server) listTriangles(w http.ResponseWriter, r *http.Request) {
	g, _, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	level, err := levelFromQuery(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	ref := tessRefFromQuery(r)
	tris, err := g.Triangles(ref, level)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	first, _, _ := g.TriangleRange(ref, level)

	type triangleJSON struct {
		Index    int    `json:"index"`
		Vertices [3]int `json:"vertices"`
	}
	out := make([]triangleJSON, len(tris))
	for i, tri := range tris {
		out[i] = triangleJSON{Index: first + i, Vertices: tri}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"tess":      ref.String(),
		"level":     level,
		"count":     len(out),
		"triangles": out,
	})
}

func (s *Server) listVertices(w http.ResponseWriter, r *http.Request) {
	g, _, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	level, err := levelFromQuery(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	connectedOnly := true
	if raw := r.URL.Query().Get("connected"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid 'connected' parameter %q", raw))
			return
		}
		connectedOnly = v
	}

	verts, err := g.Vertices(tessRefFromQuery(r), level, connectedOnly)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	type vertexJSON struct {
		X   float64 `json:"x"`
		Y   float64 `json:"y"`
		Z   float64 `json:"z"`
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	}
	out := make([]vertexJSON, len(verts))
	for i, v := range verts {
		lon, lat := geom.ToLonLatDeg(v)
		out[i] = vertexJSON{X: v.X, Y: v.Y, Z: v.Z, Lon: lon, Lat: lat}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"level":    level,
		"count":    len(out),
		"vertices": out,
	})
}

func (s *Server) showNeighbors(w http.ResponseWriter, r *http.Request) {
	g, _, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	triIdx, err := strconv.Atoi(r.PathValue("tri"))
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid triangle index %q", r.PathValue("tri")))
		return
	}

	neighbors, err := g.NeighborsOf(triIdx)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	child, hasChild, err := g.ChildOf(triIdx)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	resp := map[string]interface{}{
		"triangle":  triIdx,
		"neighbors": neighbors,
	}
	if hasChild {
		resp["child"] = child
	}
	httputil.WriteJSONOK(w, resp)
}
