package main

import (
	"cubemap-prefilter/prefilter"
	"flag"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type impl string

const (
	implGl impl = "opengl"
	implSw impl = "software"
)

func (i *impl) String() string {
	return string(*i)
}

func (i *impl) Set(s string) error {
	switch impl(s) {
	case implGl:
		*i = implGl
	case implSw:
		*i = implSw
	default:
		return fmt.Errorf("%s is not a valid implementation", s)
	}
	return nil
}

// prefilterConfig is the optional toml file of the prefilter command.
//
//	impl = "opengl"
//	compress = 2
//
//	[filter]
//	samples = 64
//	resolution = 128 # optional, inputs of a different size are rejected
type prefilterConfig struct {
	Impl     string           `toml:"impl"`
	Compress *int             `toml:"compress"`
	Filter   prefilter.Config `toml:"filter"`
}

func loadPrefilterConfig(path string) (prefilterConfig, error) {
	cfg := prefilterConfig{}

	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer close(f)

	err = toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not parse config %q: %w", path, err)
	}
	return cfg, nil
}

// apply copies every value of the config file whose flag was not given on the command line.
func (cfg prefilterConfig) apply(args *prefilterArgs, flags *flag.FlagSet) error {
	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	if cfg.Impl != "" && !set["impl"] {
		if err := args.impl.Set(cfg.Impl); err != nil {
			return err
		}
	}
	if cfg.Compress != nil && !set["compress"] && !set["c"] {
		args.compress = *cfg.Compress
	}
	if cfg.Filter.Samples != 0 && !set["samples"] {
		args.samples = cfg.Filter.Samples
	}
	if cfg.Filter.Resolution != 0 {
		args.resolution = cfg.Filter.Resolution
	}
	return nil
}
