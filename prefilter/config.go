package prefilter

import (
	"cubemap-prefilter/libutil"
	"fmt"
)

const (
	DefaultResolution = 16
	DefaultSamples    = 32
)

// Config holds the construction parameters of a filter. Both are fixed for the lifetime of the filter.
type Config struct {
	// Resolution is the side length of the input faces and of the first filtered level. Must be a power of two.
	Resolution int `toml:"resolution"`
	// Samples is the number of importance samples generated per roughness level.
	Samples int `toml:"samples"`
}

func DefaultConfig() Config {
	return Config{
		Resolution: DefaultResolution,
		Samples:    DefaultSamples,
	}
}

func (c Config) Validate() error {
	if c.Resolution < 1 || !libutil.IsPowerOfTwo(c.Resolution) {
		return fmt.Errorf("%w: resolution must be a positive power of two, got %d", ErrConfiguration, c.Resolution)
	}
	if c.Samples < 1 {
		return fmt.Errorf("%w: number of importance samples must be positive, got %d", ErrConfiguration, c.Samples)
	}
	return nil
}

// Levels is the number of mip levels of the filtered cubemap, log2(resolution)+1.
func (c Config) Levels() int {
	return libutil.Log2(c.Resolution) + 1
}
