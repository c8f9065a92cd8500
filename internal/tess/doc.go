// Package tess implements a multi-level triangular tessellation of the
// unit sphere.
//
// A Grid owns one or more named Tessellations, each a base polyhedron
// (icosahedron by default) refined by recursive quartering: every triangle
// at level k is split into 4 children at level k+1 using renormalized edge
// midpoints. The grid records, for every triangle, its 3 vertex indices,
// its up-to-3 neighbors across shared edges, and the descendant triangle
// at the next finer level, if any.
//
// Key types: VertexStore, TriangleStore, LevelIndex, Builder, Grid.
//
// Grids are immutable once a Builder hands them out; any number of
// goroutines may query one concurrently without locking.
package tess
