package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[simulation]
tick_rate = "50ms"
seed = 42
creation_rate = 2.5

[storage]
backend = "postgres"
slot = "Slot One"

[logging]
format = "json"
`), "test")
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.Simulation.TickRate)
	assert.Equal(t, uint64(42), cfg.Simulation.Seed)
	assert.Equal(t, float32(2.5), cfg.Simulation.CreationRate)
	assert.Equal(t, float32(1), cfg.Simulation.DestructionRate, "default kept")
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "Slot One", cfg.Storage.Slot)
	assert.Equal(t, "saves", cfg.Storage.Dir)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"backend":   "[storage]\nbackend = \"s3\"\n",
		"tick":      "[simulation]\ntick_rate = \"0s\"\n",
		"rate":      "[simulation]\ndestruction_rate = -1.0\n",
		"profile":   "[debug]\nprofile = \"gpu\"\n",
		"malformed": "[simulation\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body), name)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapesim.toml")
	require.NoError(t, os.WriteFile(path, []byte("[data]\ncatalog = \"x.yaml\"\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x.yaml", cfg.Data.Catalog)
}
