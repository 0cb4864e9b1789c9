package main

import (
	"os"
	"path/filepath"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/glal"
)

func parse(t *testing.T, args ...string) (options, *flag.FlagSet) {
	t.Helper()
	var opts options
	flags := flag.NewFlagSet("triangle", flag.ContinueOnError)
	flags.StringVarP(&opts.config, "config", "c", "", "")
	flags.StringVarP(&opts.backend, "backend", "b", "", "")
	flags.IntVarP(&opts.frames, "frames", "n", 0, "")
	flags.BoolVar(&opts.validation, "validation", false, "")
	flags.StringVar(&opts.shaders, "shaders", "", "")
	require.NoError(t, flags.Parse(args))
	return opts, flags
}

func TestConfigureFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triangle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: vulkan\nvalidation: true\nwindow:\n  width: 1024\n  height: 768\n"), 0o644))

	cfg, err := configure(parse(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "vulkan", cfg.Backend)
	assert.True(t, cfg.Validation)
	assert.Equal(t, uint32(1024), cfg.Window.Width)

	cfg, err = configure(parse(t, "-c", path, "--backend", "opengl", "--validation=false"))
	require.NoError(t, err)
	assert.Equal(t, "opengl", cfg.Backend)
	assert.False(t, cfg.Validation)
	assert.Equal(t, uint32(768), cfg.Window.Height, "unset flags keep the file's values")
}

func TestConfigureSoftwareNeedsFrames(t *testing.T) {
	_, err := configure(parse(t, "--backend", "software"))
	assert.ErrorContains(t, err, "--frames")

	cfg, err := configure(parse(t, "--backend", "software", "-n", "3"))
	require.NoError(t, err)
	assert.Equal(t, "software", cfg.Backend)
}

func TestLoadShaders(t *testing.T) {
	shaders, err := loadShaders("software", "")
	require.NoError(t, err)
	assert.NotEmpty(t, shaders.Vertex)
	assert.NotEmpty(t, shaders.Fragment)

	_, err = loadShaders("vulkan", "")
	assert.ErrorContains(t, err, "needs --shaders")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "triangle.vert.spv"), []byte{1, 2, 3, 4}, 0o644))
	_, err = loadShaders("opengl", dir)
	assert.ErrorContains(t, err, "reading fragment shader")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "triangle.frag.spv"), []byte{5, 6, 7, 8}, 0o644))
	shaders, err = loadShaders("opengl", dir)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 7, 8}, shaders.Fragment)
}

func TestRunHeadless(t *testing.T) {
	cfg, err := configure(parse(t, "--backend", "software", "--frames", "3"))
	require.NoError(t, err)
	log := glal.NewLogger(os.Stderr, glal.LevelWarning)
	log.SetFatalHandler(glal.PanicOnFatal)
	assert.NoError(t, run(cfg, options{backend: "software", frames: 3}, log))
}
