package main

import (
	"cubemap-prefilter/libgl"
	"cubemap-prefilter/libutil"
	"cubemap-prefilter/logger"
	"cubemap-prefilter/prefilter"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"
)

type prefilterArgs struct {
	commonArgs
	config     string
	impl       impl
	samples    int
	resolution int
}

func createPrefilterCommand() *command {
	args := prefilterArgs{
		commonArgs: commonArgs{
			ext:      ".cubeenv",
			suffix:   "_specular",
			compress: 2,
		},
		impl:    implGl,
		samples: prefilter.DefaultSamples,
	}

	flags := flag.NewFlagSet("prefilter", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.StringVar(&args.config, "config", args.config, "a toml file with default settings, flags take precedence")
	flags.Var(&args.impl, "impl", "the filter implementation; opengl or software")
	flags.IntVar(&args.samples, "samples", args.samples, "number of importance samples per roughness level")

	return &command{
		Name: "prefilter",
		Help: "create specular reflection maps from .cubeenv files",
		Run: func(self *command) {
			if args.config != "" {
				cfg, err := loadPrefilterConfig(args.config)
				harderr(err)
				harderr(cfg.apply(&args, self.Flags))
			}
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runPrefilter(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

type createFilterFunc func(cfg prefilter.Config) (prefilter.Filter, error)

// filterCache creates one filter per input resolution and keeps it for the following files.
// When create cannot allocate its resources the filter is created by fallback instead.
type filterCache struct {
	create   createFilterFunc
	fallback createFilterFunc
	filters  map[int]prefilter.Filter
}

func (fc *filterCache) get(cfg prefilter.Config) (prefilter.Filter, error) {
	if f, ok := fc.filters[cfg.Resolution]; ok {
		return f, nil
	}
	f, err := fc.create(cfg)
	if err != nil && fc.fallback != nil && errors.Is(err, prefilter.ErrResourceAllocation) {
		softerr(err)
		logger.Log.Info("Falling back to software implementation", zap.Int("resolution", cfg.Resolution))
		f, err = fc.fallback(cfg)
	}
	if err != nil {
		return nil, err
	}
	fc.filters[cfg.Resolution] = f
	return f, nil
}

func (fc *filterCache) release() {
	for _, f := range fc.filters {
		f.Release()
	}
	fc.filters = map[int]prefilter.Filter{}
}

func runPrefilter(args prefilterArgs, inputFiles []string) {
	runtime.LockOSThread()

	createSw := func(cfg prefilter.Config) (prefilter.Filter, error) {
		return prefilter.NewSwFilter(cfg)
	}
	cache := &filterCache{
		filters: map[int]prefilter.Filter{},
		create:  createSw,
	}

	if args.impl == implGl {
		_, terminate, err := libutil.NewHeadlessContext(args.verbose)
		if err == nil {
			defer terminate()
			libgl.Init()
			if args.verbose {
				libgl.EnableDebugOutput()
			}
			cache.create = func(cfg prefilter.Config) (prefilter.Filter, error) {
				return prefilter.NewGlFilter(cfg)
			}
			// some drivers cannot render to RGB16F
			cache.fallback = createSw
			logger.Log.Info("Using OpenGL implementation", zap.String("renderer", libgl.GlEnv.Renderer))
		} else {
			softerr(err)
			logger.Log.Info("Falling back to software implementation")
		}
	} else {
		logger.Log.Info("Using software implementation")
	}
	// filters must be released while the context is still alive
	defer cache.release()

	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		logger.Log.Info(fmt.Sprintf("Processing file %d/%d", i+1, len(inputFiles)), zap.String("file", filepath.ToSlash(filepath.Clean(p))))
		err := prefilterFile(args, p, cache)
		softerr(err)
		if err == nil {
			success++
		}
	}
	took := float32(time.Since(start).Milliseconds()) / 1000
	logger.Log.Info(fmt.Sprintf("Prefiltered %d/%d files in %.3f seconds", success, len(inputFiles), took))
}

func prefilterFile(args prefilterArgs, p string, cache *filterCache) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	src, err := prefilter.DecodeCubemap(inFile)
	if err != nil {
		return err
	}

	if args.resolution != 0 && src.BaseSize != args.resolution {
		return fmt.Errorf("%s has size %d but the configured resolution is %d", p, src.BaseSize, args.resolution)
	}

	cfg := prefilter.Config{
		Resolution: src.BaseSize,
		Samples:    args.samples,
	}
	filter, err := cache.get(cfg)
	if err != nil {
		return err
	}

	logger.Log.Info(fmt.Sprintf("Prefiltering to %dx%dx%d cubemap ...", cfg.Resolution, cfg.Resolution, cfg.Levels()))

	if err := filter.Update(prefilter.FacesFromCubemap(src, 0)); err != nil {
		return err
	}
	result, err := filter.Readback()
	if err != nil {
		return err
	}

	outFilename := outputPath(p)
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	logger.Log.Info("Writing", zap.String("file", filepath.ToSlash(filepath.Clean(outFilename))))

	err = prefilter.EncodeCubemap(outFile, result, prefilter.OptCompress(args.compress-1))
	if err != nil {
		outFile.Close()
		os.Remove(outFilename)
		return err
	}

	return nil
}
