package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		// viper reports an explicit missing file as an error; defaults are
		// exercised through the no-path form instead
		cfg, err = Load("")
	}
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Identify.MinScore)
	assert.Equal(t, 0.2, cfg.Identify.Threshold)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
device:
  spec: "serial:/dev/ttyUSB1:57600"
identify:
  min_score: 0.8
logger:
  level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "serial:/dev/ttyUSB1:57600", cfg.Device.Spec)
	assert.Equal(t, 0.8, cfg.Identify.MinScore)
	assert.Equal(t, "debug", cfg.Logger.Level)
	// untouched keys keep defaults
	assert.Equal(t, 0.2, cfg.Identify.Threshold)
}

func TestProfileDefaults(t *testing.T) {
	p, err := LoadProfile("loopback")
	require.NoError(t, err)
	assert.Equal(t, "loopback", p.Type)
	assert.Equal(t, "loopback:", p.Spec())

	p, err = LoadProfile("blaster-usb")
	require.NoError(t, err)
	assert.Equal(t, "serial:/dev/ttyUSB0:115200", p.Spec())

	_, err = LoadProfile("warp-drive")
	assert.Error(t, err)
}

func TestLibraryResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
codes:
  tv_power: "nec::20,df,10,ef"
`), 0644))

	lib, err := LoadLibrary(path)
	require.NoError(t, err)

	code, err := lib.Resolve("@tv_power")
	require.NoError(t, err)
	assert.Equal(t, "nec::20,df,10,ef", code)

	passthrough, err := lib.Resolve("rc5::5,35")
	require.NoError(t, err)
	assert.Equal(t, "rc5::5,35", passthrough)

	_, err = lib.Resolve("@missing")
	assert.Error(t, err)
}

func TestEmptyLibrary(t *testing.T) {
	lib, err := LoadLibrary("")
	require.NoError(t, err)
	_, err = lib.Resolve("@anything")
	assert.Error(t, err)
}
