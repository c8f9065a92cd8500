package tess

import "strconv"

type levelKey struct {
	tessID int
	level  int
}

type levelSpan struct {
	first int
	last  int // exclusive
}

// LevelIndex maps (tessellation id, level) to the contiguous block of
// triangle indices for that level. Contiguity is guaranteed by the
// builder appending all triangles of a level before starting the next,
// which is what makes Range an O(1) lookup instead of a scan.
type LevelIndex struct {
	spans map[levelKey]levelSpan
}

// NewLevelIndex creates an empty index.
func NewLevelIndex() *LevelIndex {
	return &LevelIndex{spans: make(map[levelKey]levelSpan)}
}

// RegisterRange records the triangle block [first, lastExclusive) for
// (tessID, level). Re-registering a pair overwrites the previous span;
// the builder never does that.
func (ix *LevelIndex) RegisterRange(tessID, level, first, lastExclusive int) {
	ix.spans[levelKey{tessID, level}] = levelSpan{first: first, last: lastExclusive}
}

// Range returns the triangle block for (tessID, level).
func (ix *LevelIndex) Range(tessID, level int) (first, lastExclusive int, err error) {
	span, ok := ix.spans[levelKey{tessID, level}]
	if !ok {
		return 0, 0, &NotFoundError{Tess: strconv.Itoa(tessID), Level: level}
	}
	return span.first, span.last, nil
}

// Levels returns the number of registered levels for a tessellation,
// assuming they were registered 0..N without gaps.
func (ix *LevelIndex) Levels(tessID int) int {
	n := 0
	for {
		if _, ok := ix.spans[levelKey{tessID, n}]; !ok {
			return n
		}
		n++
	}
}
