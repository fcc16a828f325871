package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads a TOML profile and overlays it on the stock defaults, so a
// profile only needs to name the settings it changes.
func Load(path string) (Full, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Full{}, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes a TOML profile from memory on top of the defaults.
func Parse(data []byte) (Full, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Full{}, fmt.Errorf("parse profile: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Full{}, err
	}
	return cfg, nil
}

// Validate rejects settings that would make the pipeline produce garbage.
func (c Full) Validate() error {
	if c.Object.LayerHeight <= 0 {
		return fmt.Errorf("layer_height must be positive, got %v", c.Object.LayerHeight)
	}
	if len(c.Print.NozzleDiameter) == 0 {
		return fmt.Errorf("nozzle_diameter must list at least one nozzle")
	}
	for i, d := range c.Print.NozzleDiameter {
		if d <= 0 {
			return fmt.Errorf("nozzle_diameter[%d] must be positive, got %v", i, d)
		}
		if c.Object.LayerHeight > d {
			return fmt.Errorf("layer_height %v exceeds nozzle_diameter[%d] %v",
				c.Object.LayerHeight, i, d)
		}
	}
	if c.Region.Perimeters < 0 {
		return fmt.Errorf("perimeters must not be negative, got %d", c.Region.Perimeters)
	}
	if c.Region.PerimeterExtrusionWidth <= 0 {
		return fmt.Errorf("perimeter_extrusion_width must be positive, got %v",
			c.Region.PerimeterExtrusionWidth)
	}
	if c.Print.SpiralVase && c.Region.Perimeters > 1 {
		return fmt.Errorf("spiral_vase requires a single perimeter, got %d",
			c.Region.Perimeters)
	}
	if c.Print.Skirts < 0 {
		return fmt.Errorf("skirts must not be negative, got %d", c.Print.Skirts)
	}
	if c.Print.BrimWidth < 0 {
		return fmt.Errorf("brim_width must not be negative, got %v", c.Print.BrimWidth)
	}
	for i, fr := range c.Print.FindReplace {
		if fr.Pattern == "" {
			return fmt.Errorf("find_replace[%d]: empty pattern", i)
		}
	}
	return nil
}
