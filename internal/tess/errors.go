package tess

import "fmt"

// ConfigError reports an invalid build parameter. It is returned before
// any construction work begins.
type ConfigError struct {
	Param  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s=%q: %s", e.Param, e.Value, e.Reason)
}

// GeometryError reports a degenerate triangle detected during a build.
// The build aborts and no partial grid is returned.
type GeometryError struct {
	TessID int
	Level  int
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry error at tess=%d level=%d: %s", e.TessID, e.Level, e.Reason)
}

// OutOfRangeError reports an invalid vertex or triangle index passed to
// an accessor.
type OutOfRangeError struct {
	Kind  string // "vertex" or "triangle"
	Index int
	Count int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0,%d)", e.Kind, e.Index, e.Count)
}

// NotFoundError reports a query for a tessellation or (tessellation,
// level) pair that was never built.
type NotFoundError struct {
	Tess  string // tessellation id or name as given by the caller
	Level int    // -1 when the tessellation itself was not found
}

func (e *NotFoundError) Error() string {
	if e.Level < 0 {
		return fmt.Sprintf("tessellation %s not found", e.Tess)
	}
	return fmt.Sprintf("tessellation %s has no level %d", e.Tess, e.Level)
}
