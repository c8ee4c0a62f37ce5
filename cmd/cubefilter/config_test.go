package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "prefilter.toml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0666))
	return p
}

func newTestPrefilterFlags(args *prefilterArgs) *flag.FlagSet {
	flags := flag.NewFlagSet("prefilter", flag.ContinueOnError)
	registerCommonFlags(flags, &args.commonArgs)
	flags.Var(&args.impl, "impl", "")
	flags.IntVar(&args.samples, "samples", args.samples, "")
	return flags
}

func TestLoadPrefilterConfig(t *testing.T) {
	p := writeConfig(t, `
impl = "software"
compress = 4

[filter]
samples = 64
resolution = 128
`)
	cfg, err := loadPrefilterConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "software", cfg.Impl)
	require.NotNil(t, cfg.Compress)
	assert.Equal(t, 4, *cfg.Compress)
	assert.Equal(t, 64, cfg.Filter.Samples)
	assert.Equal(t, 128, cfg.Filter.Resolution)
}

func TestLoadPrefilterConfigRejectsUnknownKeys(t *testing.T) {
	p := writeConfig(t, `sample = 64`)
	_, err := loadPrefilterConfig(p)
	assert.Error(t, err)
}

func TestLoadPrefilterConfigMissingFile(t *testing.T) {
	_, err := loadPrefilterConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestPrefilterConfigApply(t *testing.T) {
	compress := 7
	cfg := prefilterConfig{
		Impl:     "software",
		Compress: &compress,
	}
	cfg.Filter.Samples = 64

	args := prefilterArgs{impl: implGl, samples: 32, commonArgs: commonArgs{compress: 2}}
	flags := newTestPrefilterFlags(&args)
	require.NoError(t, flags.Parse(nil))
	require.NoError(t, cfg.apply(&args, flags))

	assert.Equal(t, implSw, args.impl)
	assert.Equal(t, 7, args.compress)
	assert.Equal(t, 64, args.samples)
	assert.Equal(t, 0, args.resolution)
}

func TestPrefilterConfigFlagsTakePrecedence(t *testing.T) {
	compress := 7
	cfg := prefilterConfig{
		Impl:     "software",
		Compress: &compress,
	}
	cfg.Filter.Samples = 64

	args := prefilterArgs{impl: implGl, samples: 32, commonArgs: commonArgs{compress: 2}}
	flags := newTestPrefilterFlags(&args)
	require.NoError(t, flags.Parse([]string{"-impl", "opengl", "-c", "1", "-samples", "16"}))
	require.NoError(t, cfg.apply(&args, flags))

	assert.Equal(t, implGl, args.impl)
	assert.Equal(t, 1, args.compress)
	assert.Equal(t, 16, args.samples)
}

func TestPrefilterConfigRejectsImpl(t *testing.T) {
	cfg := prefilterConfig{Impl: "opencl"}
	args := prefilterArgs{}
	flags := newTestPrefilterFlags(&args)
	require.NoError(t, flags.Parse(nil))
	assert.Error(t, cfg.apply(&args, flags))
}
