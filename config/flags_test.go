package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFlags(t *testing.T) {
	c := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs, &c)

	require.NoError(t, fs.Parse([]string{"-window_size", "5000", "-window_unit", "bp", "-contigs", "1, 2,,X", "-drop_partial_trailing_window"}))
	assert.Equal(t, int64(5000), c.WindowSize)
	assert.Equal(t, "bp", c.WindowUnit)
	assert.Equal(t, []string{"1", "2", "X"}, c.Contigs)
	assert.True(t, c.DropPartialTrailingWindow)
	assert.Equal(t, "sum", c.Reduction)
}

func TestSet(t *testing.T) {
	c := Default()
	require.NoError(t, c.Set("window_step", "7"))
	require.NoError(t, c.Set("hwe_cutoff", "1e-3"))
	require.NoError(t, c.Set("merge_partial_trailing_window", "true"))
	assert.Equal(t, int64(7), c.WindowStep)
	assert.Equal(t, 1e-3, c.HWECutoff)
	assert.True(t, c.MergePartialTrailingWindow)

	assert.Error(t, c.Set("window_size", "ten"))
	assert.ErrorIs(t, c.Set("window_sise", "10"), ErrUnknownOption)
}

func TestOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "windows.toml")
	require.NoError(t, os.WriteFile(path, []byte("window_size = 100\nwindow_step = 50\nreduction = \"mean\"\n"), 0o644))

	c := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs, &c)
	fs.String("config", "", "")
	require.NoError(t, fs.Parse([]string{"-config", path, "-window_step", "25"}))

	got, err := Overlay(fs, path)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.WindowSize)
	assert.Equal(t, int64(25), got.WindowStep)
	assert.Equal(t, "mean", got.Reduction)
}
