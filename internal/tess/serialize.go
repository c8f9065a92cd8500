package tess

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

// Grid file layout: an 8-byte magic, a big-endian uint16 format version,
// then a gzip stream containing one gob-encoded gridSnapshot. The
// snapshot tables appear in fixed order (header, vertices, triangles,
// level ranges) so older readers can reject newer files by version alone.

var fileMagic = [8]byte{'G', 'E', 'O', 'G', 'R', 'I', 'D', 0}

const fileVersion uint16 = 1

type tessMeta struct {
	Name   string
	Levels int
}

type rangeRecord struct {
	TessID int
	Level  int
	First  int
	Last   int // exclusive
}

type triangleRecord struct {
	Vertices  [3]int
	Neighbors [3]int // noIndex for absent
	Child     int    // noIndex for absent
	Level     int
	TessID    int
}

type gridSnapshot struct {
	Tessellations []tessMeta
	DedupEpsilon  float64
	Vertices      []r3.Vec
	Triangles     []triangleRecord
	Ranges        []rangeRecord
}

// WriteTo serializes the grid in the versioned file format.
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	var head bytes.Buffer
	head.Write(fileMagic[:])
	if err := binary.Write(&head, binary.BigEndian, fileVersion); err != nil {
		return 0, err
	}
	n, err := w.Write(head.Bytes())
	written := int64(n)
	if err != nil {
		return written, err
	}

	snap := gridSnapshot{
		DedupEpsilon: g.vertices.Epsilon(),
		Vertices:     g.vertices.coords,
	}
	for id, name := range g.names {
		levels := g.levels.Levels(id)
		snap.Tessellations = append(snap.Tessellations, tessMeta{Name: name, Levels: levels})
		for lv := 0; lv < levels; lv++ {
			first, last, _ := g.levels.Range(id, lv)
			snap.Ranges = append(snap.Ranges, rangeRecord{TessID: id, Level: lv, First: first, Last: last})
		}
	}
	for _, t := range g.triangles.tris {
		snap.Triangles = append(snap.Triangles, triangleRecord{
			Vertices:  t.v,
			Neighbors: t.n,
			Child:     t.child,
			Level:     t.level,
			TessID:    t.tessID,
		})
	}

	cw := &countingWriter{w: w}
	gz := gzip.NewWriter(cw)
	if err := gob.NewEncoder(gz).Encode(snap); err != nil {
		gz.Close()
		return written + cw.n, err
	}
	if err := gz.Close(); err != nil {
		return written + cw.n, err
	}
	return written + cw.n, nil
}

// ReadGrid deserializes a grid written by WriteTo.
func ReadGrid(r io.Reader) (*Grid, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("failed to read grid file header: %w", err)
	}
	if magic != fileMagic {
		return nil, fmt.Errorf("not a grid file (bad magic %q)", magic[:])
	}
	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("failed to read grid file version: %w", err)
	}
	if version != fileVersion {
		return nil, fmt.Errorf("unsupported grid file version %d (want %d)", version, fileVersion)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open grid payload: %w", err)
	}
	defer gz.Close()

	var snap gridSnapshot
	if err := gob.NewDecoder(gz).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode grid payload: %w", err)
	}

	vs := NewVertexStore(snap.DedupEpsilon)
	vs.coords = snap.Vertices
	vs.rebuild()

	ts := NewTriangleStore()
	for _, t := range snap.Triangles {
		for _, v := range t.Vertices {
			if v < 0 || v >= len(snap.Vertices) {
				return nil, fmt.Errorf("corrupt grid file: %w",
					&OutOfRangeError{Kind: "vertex", Index: v, Count: len(snap.Vertices)})
			}
		}
		ts.tris = append(ts.tris, triRecord{
			v:      t.Vertices,
			n:      t.Neighbors,
			child:  t.Child,
			level:  t.Level,
			tessID: t.TessID,
		})
	}

	ix := NewLevelIndex()
	for _, rr := range snap.Ranges {
		if rr.First < 0 || rr.Last > len(snap.Triangles) || rr.First > rr.Last {
			return nil, fmt.Errorf("corrupt grid file: level range [%d,%d) outside triangle table of %d",
				rr.First, rr.Last, len(snap.Triangles))
		}
		ix.RegisterRange(rr.TessID, rr.Level, rr.First, rr.Last)
	}

	names := make([]string, len(snap.Tessellations))
	for i, tm := range snap.Tessellations {
		names[i] = tm.Name
	}
	return &Grid{vertices: vs, triangles: ts, levels: ix, names: names}, nil
}

// WriteFile writes the grid to path.
func (g *Grid) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := g.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a grid from path.
func LoadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadGrid(f)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
