package griddb

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/geogrid/internal/tess"
)

func openTestDB(t *testing.T) *GridDB {
	t.Helper()
	db, err := NewGridDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testGrid(t *testing.T) *tess.Grid {
	t.Helper()
	g, err := tess.Build(tess.Config{Name: "surface", MaxLevel: 1})
	require.NoError(t, err)
	return g
}

func TestStoreAndLoadGrid(t *testing.T) {
	db := openTestDB(t)
	g := testGrid(t)

	id, err := db.StoreGrid("test-grid", g, `{"max_level":1}`)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := db.GetGrid(id)
	require.NoError(t, err)
	assert.Equal(t, "test-grid", rec.Name)
	assert.Equal(t, 1, rec.TessCount)
	assert.Equal(t, g.VertexCount(), rec.VertexCount)
	assert.Equal(t, g.TriangleCount(), rec.TriangleCount)
	assert.NotEmpty(t, rec.GridBlob)
	assert.False(t, rec.CreatedAt.IsZero())

	back, err := db.LoadGrid(id)
	require.NoError(t, err)
	assert.Equal(t, g.TriangleCount(), back.TriangleCount())
	assert.Equal(t, g.VertexCount(), back.VertexCount())

	tris, err := back.Triangles(tess.ByName("surface"), 1)
	require.NoError(t, err)
	assert.Len(t, tris, 80)
}

func TestGetGridByName(t *testing.T) {
	db := openTestDB(t)
	id, err := db.StoreGrid("named", testGrid(t), "")
	require.NoError(t, err)

	rec, err := db.GetGridByName("named")
	require.NoError(t, err)
	assert.Equal(t, id, rec.GridID)

	_, err = db.GetGridByName("absent")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStoreGrid_DuplicateName(t *testing.T) {
	db := openTestDB(t)
	g := testGrid(t)

	_, err := db.StoreGrid("dup", g, "")
	require.NoError(t, err)
	_, err = db.StoreGrid("dup", g, "")
	assert.Error(t, err, "name column is UNIQUE")
}

func TestListGrids(t *testing.T) {
	db := openTestDB(t)
	g := testGrid(t)

	list, err := db.ListGrids()
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = db.StoreGrid("a", g, "")
	require.NoError(t, err)
	_, err = db.StoreGrid("b", g, "")
	require.NoError(t, err)

	list, err = db.ListGrids()
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Listing omits blobs.
	for _, rec := range list {
		assert.Empty(t, rec.GridBlob)
		assert.NotZero(t, rec.TriangleCount)
	}
}

func TestDeleteGrid(t *testing.T) {
	db := openTestDB(t)
	id, err := db.StoreGrid("doomed", testGrid(t), "")
	require.NoError(t, err)

	require.NoError(t, db.DeleteGrid(id))
	_, err = db.GetGrid(id)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.ErrorIs(t, db.DeleteGrid(id), sql.ErrNoRows)
}

func TestLoadGrid_CorruptBlob(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`INSERT INTO grids (grid_id, name, tess_count, vertex_count, triangle_count, grid_blob)
		VALUES ('bad-id', 'bad', 1, 0, 0, X'DEADBEEF')`)
	require.NoError(t, err)

	_, err = db.LoadGrid("bad-id")
	assert.ErrorContains(t, err, "failed to decode grid")
}

func TestMigrations(t *testing.T) {
	// Migrations run against a fresh file-backed catalog (the migrate
	// sqlite driver needs a real database, and the embedded schema must
	// not have been applied).
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sqlOpenRaw(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.MigrateUp("migrations"))

	version, dirty, err := db.MigrateVersion("migrations")
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)

	// Migrated schema accepts inserts through the normal API.
	_, err = db.StoreGrid("migrated", testGrid(t), "")
	require.NoError(t, err)

	require.NoError(t, db.MigrateDown("migrations"))
	version, _, err = db.MigrateVersion("migrations")
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

// sqlOpenRaw opens a catalog without applying the embedded schema, so
// migration tests start from a clean database.
func sqlOpenRaw(path string) (*GridDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &GridDB{db}, nil
}

func TestMain(m *testing.M) {
	tess.SetLogger(nil)
	os.Exit(m.Run())
}
