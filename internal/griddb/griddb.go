// Package griddb persists built tessellation grids in a SQLite catalog.
//
// Each grid is stored as one row: the serialized grid blob (the same
// versioned format `grid build --out` writes to disk) plus metadata for
// listing and lookup by name or id. No tessellation logic lives here.
package griddb

import (
	"bytes"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/geogrid/internal/tess"
)

type GridDB struct {
	*sql.DB
}

//go:embed schema.sql
var schemaSQL string

// NewGridDB opens (creating if necessary) a grid catalog at path. Use
// ":memory:" for an ephemeral catalog in tests.
func NewGridDB(path string) (*GridDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize grid catalog schema: %w", err)
	}

	return &GridDB{db}, nil
}

// GridRecord is one catalog row.
type GridRecord struct {
	GridID        string    `json:"grid_id"`
	Name          string    `json:"name"`
	ConfigJSON    string    `json:"config_json,omitempty"`
	TessCount     int       `json:"tess_count"`
	VertexCount   int       `json:"vertex_count"`
	TriangleCount int       `json:"triangle_count"`
	GridBlob      []byte    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// StoreGrid serializes g and inserts it under the given name. A fresh
// uuid is assigned and returned. configJSON may be empty.
func (db *GridDB) StoreGrid(name string, g *tess.Grid, configJSON string) (string, error) {
	var blob bytes.Buffer
	if _, err := g.WriteTo(&blob); err != nil {
		return "", fmt.Errorf("failed to serialize grid: %w", err)
	}
	if configJSON == "" {
		configJSON = "{}"
	}

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO grids (grid_id, name, config_json, tess_count, vertex_count, triangle_count, grid_blob)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, configJSON, g.TessCount(), g.VertexCount(), g.TriangleCount(), blob.Bytes())
	if err != nil {
		return "", fmt.Errorf("failed to insert grid %q: %w", name, err)
	}

	log.Printf("[GridDB] stored grid %q id=%s vertices=%d triangles=%d blob=%d bytes",
		name, id, g.VertexCount(), g.TriangleCount(), blob.Len())
	return id, nil
}

// GetGrid returns the catalog row for a grid id.
func (db *GridDB) GetGrid(id string) (*GridRecord, error) {
	return db.scanGrid(`SELECT grid_id, name, config_json, tess_count, vertex_count,
		triangle_count, grid_blob, created_at FROM grids WHERE grid_id = ?`, id)
}

// GetGridByName returns the catalog row for a grid name.
func (db *GridDB) GetGridByName(name string) (*GridRecord, error) {
	return db.scanGrid(`SELECT grid_id, name, config_json, tess_count, vertex_count,
		triangle_count, grid_blob, created_at FROM grids WHERE name = ?`, name)
}

func (db *GridDB) scanGrid(query string, arg any) (*GridRecord, error) {
	var rec GridRecord
	err := db.QueryRow(query, arg).Scan(
		&rec.GridID, &rec.Name, &rec.ConfigJSON, &rec.TessCount,
		&rec.VertexCount, &rec.TriangleCount, &rec.GridBlob, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query grid: %w", err)
	}
	return &rec, nil
}

// LoadGrid fetches and deserializes a stored grid by id.
func (db *GridDB) LoadGrid(id string) (*tess.Grid, error) {
	rec, err := db.GetGrid(id)
	if err != nil {
		return nil, err
	}
	g, err := tess.ReadGrid(bytes.NewReader(rec.GridBlob))
	if err != nil {
		return nil, fmt.Errorf("failed to decode grid %s: %w", id, err)
	}
	return g, nil
}

// ListGrids returns all catalog rows, newest first, without blobs.
func (db *GridDB) ListGrids() ([]GridRecord, error) {
	rows, err := db.Query(`SELECT grid_id, name, config_json, tess_count, vertex_count,
		triangle_count, created_at FROM grids ORDER BY created_at DESC, grid_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list grids: %w", err)
	}
	defer rows.Close()

	var out []GridRecord
	for rows.Next() {
		var rec GridRecord
		if err := rows.Scan(&rec.GridID, &rec.Name, &rec.ConfigJSON, &rec.TessCount,
			&rec.VertexCount, &rec.TriangleCount, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteGrid removes a grid from the catalog.
func (db *GridDB) DeleteGrid(id string) error {
	res, err := db.Exec(`DELETE FROM grids WHERE grid_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete grid %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
