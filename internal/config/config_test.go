package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_OverlaysDefaults(t *testing.T) {
	profile := `
[object]
layer_height = 0.3

[region]
perimeters = 3
`
	cfg, err := Parse([]byte(profile))
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.Object.LayerHeight)
	assert.Equal(t, 3, cfg.Region.Perimeters)
	// Untouched settings keep their defaults.
	assert.Equal(t, 0.45, cfg.Region.PerimeterExtrusionWidth)
	assert.Equal(t, []float64{0.4}, cfg.Print.NozzleDiameter)
}

func TestParse_RejectsBadTOML(t *testing.T) {
	_, err := Parse([]byte("[object\nlayer_height = 0.2"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "parse profile"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Full)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Full) {},
		},
		{
			name:    "zero layer height",
			mutate:  func(c *Full) { c.Object.LayerHeight = 0 },
			wantErr: "layer_height",
		},
		{
			name:    "layer height above nozzle",
			mutate:  func(c *Full) { c.Object.LayerHeight = 0.6 },
			wantErr: "exceeds nozzle_diameter",
		},
		{
			name:    "no nozzles",
			mutate:  func(c *Full) { c.Print.NozzleDiameter = nil },
			wantErr: "nozzle_diameter",
		},
		{
			name:    "negative perimeters",
			mutate:  func(c *Full) { c.Region.Perimeters = -1 },
			wantErr: "perimeters",
		},
		{
			name: "spiral vase with two perimeters",
			mutate: func(c *Full) {
				c.Print.SpiralVase = true
				c.Region.Perimeters = 2
			},
			wantErr: "spiral_vase",
		},
		{
			name: "empty find_replace pattern",
			mutate: func(c *Full) {
				c.Print.FindReplace = []Replace{{Pattern: ""}}
			},
			wantErr: "find_replace",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPrint_Nozzle(t *testing.T) {
	p := DefaultPrint()
	p.NozzleDiameter = []float64{0.4, 0.6}

	assert.Equal(t, 0.4, p.Nozzle(1))
	assert.Equal(t, 0.6, p.Nozzle(2))
	// Out-of-range extruders fall back to the first nozzle.
	assert.Equal(t, 0.4, p.Nozzle(3))
	assert.Equal(t, 0.4, p.Nozzle(0))
}
