// Package config loads grid build configuration from JSON files.
//
// The schema mirrors the flags of `grid build` so the same JSON can be
// checked in next to a deployment and replayed to rebuild an identical
// grid. All fields are optional pointers; absent fields fall back to
// defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/banshee-data/geogrid/internal/tess"
)

// GridConfig is the root build configuration.
type GridConfig struct {
	// DedupEpsilon is the shared vertex dedup tolerance in radians.
	DedupEpsilon *float64 `json:"dedup_epsilon,omitempty"`

	// Tessellations lists the tessellations to build, in id order.
	Tessellations []TessellationConfig `json:"tessellations"`
}

// TessellationConfig configures one tessellation.
type TessellationConfig struct {
	Name      *string `json:"name,omitempty"`
	BaseShape *string `json:"base_shape,omitempty"`
	MaxLevel  *int    `json:"max_level,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultGridConfig returns the configuration built when no file is
// given: a single icosahedral tessellation refined twice.
func DefaultGridConfig() *GridConfig {
	return &GridConfig{
		DedupEpsilon: ptrFloat64(tess.DefaultDedupEpsilon),
		Tessellations: []TessellationConfig{{
			Name:      ptrString("surface"),
			BaseShape: ptrString(string(tess.Icosahedron)),
			MaxLevel:  ptrInt(2),
		}},
	}
}

// LoadGridConfig reads and parses a JSON grid configuration file.
func LoadGridConfig(path string) (*GridConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var cfg GridConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// BuildConfigs converts the file schema into tess build configs plus the
// shared dedup epsilon. Validation of the individual values is left to
// the builder, which reports ConfigError with the offending parameter.
func (c *GridConfig) BuildConfigs() (cfgs []tess.Config, dedupEpsilon float64, err error) {
	if len(c.Tessellations) == 0 {
		return nil, 0, fmt.Errorf("config declares no tessellations")
	}
	if c.DedupEpsilon != nil {
		dedupEpsilon = *c.DedupEpsilon
	}
	for _, tc := range c.Tessellations {
		var cfg tess.Config
		if tc.Name != nil {
			cfg.Name = *tc.Name
		}
		if tc.BaseShape != nil {
			cfg.BaseShape = tess.BaseShape(*tc.BaseShape)
		}
		if tc.MaxLevel != nil {
			cfg.MaxLevel = *tc.MaxLevel
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, dedupEpsilon, nil
}

// BuildGrid builds the grid the configuration describes.
func (c *GridConfig) BuildGrid() (*tess.Grid, error) {
	cfgs, eps, err := c.BuildConfigs()
	if err != nil {
		return nil, err
	}
	b := tess.NewBuilder(eps)
	for _, cfg := range cfgs {
		if _, err := b.AddTessellation(cfg); err != nil {
			return nil, err
		}
	}
	return b.Grid()
}
