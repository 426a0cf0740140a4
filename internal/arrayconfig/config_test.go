package arrayconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 16, cfg.ArrayUninitializedSize)
	assert.Equal(t, 1.75, cfg.GrowthFactor)
}

func TestCapacityGrowsGeometrically(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 28, cfg.Capacity(16, 20))
	assert.Equal(t, 100, cfg.Capacity(16, 100))
	assert.Equal(t, 4, cfg.Capacity(0, 0))
}

func TestLoadFileMissingReturnsDefault(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverridesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arrayspec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("array_uninitialized_size: 32\ngrowth_factor: 2.0\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.ArrayUninitializedSize)
	assert.Equal(t, 2.0, cfg.GrowthFactor)
}
