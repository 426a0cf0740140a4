// Package arrayconfig supplies the specializing array engine's one piece of
// external configuration: the default boxed-scratch-buffer capacity and the
// capacity growth function used when a primitive buffer must grow past its
// current size.
package arrayconfig

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config exposes the array-uninitialized-size default and a
// capacity-growth function capacity(currentSize, requiredSize) returning the
// next buffer size.
type Config struct {
	// ArrayUninitializedSize is the default capacity of the boxed scratch
	// buffer an uninitialised builder starts with.
	ArrayUninitializedSize int `yaml:"array_uninitialized_size"`

	// GrowthFactor is the fixed phi >= 1.5 the growth function multiplies
	// the current capacity by.
	GrowthFactor float64 `yaml:"growth_factor"`
}

// Default returns the engine's built-in configuration: most call sites never
// load a file, so this must be a complete, sensible configuration on its
// own.
func Default() Config {
	return Config{
		ArrayUninitializedSize: 16,
		GrowthFactor:           1.75,
	}
}

// Capacity implements the capacity-growth function: the next buffer size
// that is at least requiredSize, growing geometrically by GrowthFactor so
// repeated pushes are amortised O(1).
func (c Config) Capacity(currentSize, requiredSize int) int {
	if c.GrowthFactor < 1.5 {
		c.GrowthFactor = 1.5
	}
	grown := int(float64(currentSize) * c.GrowthFactor)
	if grown < requiredSize {
		grown = requiredSize
	}
	if grown < 4 {
		grown = 4
	}
	return grown
}

// LoadFile reads optional overrides from a YAML file, following
// arx-os-arxos's internal/config pattern of a plain yaml.v2-decoded struct
// with defaults applied first. A missing file is not an error — it simply
// means the caller gets Default().
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
