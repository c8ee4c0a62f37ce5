package main

import (
	"cubemap-prefilter/libio"
	"cubemap-prefilter/logger"
	"cubemap-prefilter/prefilter"
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

type previewArgs struct {
	commonArgs
	gamma    float64
	scale    float64
	reinhard bool
}

func createPreviewCommand() *command {
	args := previewArgs{
		commonArgs: commonArgs{
			ext: ".png",
		},
		gamma: 2.2,
		scale: 1.0,
	}

	flags := flag.NewFlagSet("preview", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.Float64Var(&args.gamma, "gamma", args.gamma, "gamma correction value")
	flags.Float64Var(&args.scale, "scale", args.scale, "brightness scale factor")
	flags.BoolVar(&args.reinhard, "reinhard", args.reinhard, "apply reinhard tonemapping")

	return &command{
		Name: "preview",
		Help: "render .cubeenv files to png",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.gamma <= 0 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runPreview(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runPreview(args previewArgs, inputFiles []string) {
	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		logger.Log.Info(fmt.Sprintf("Processing file %d/%d", i+1, len(inputFiles)), zap.String("file", filepath.ToSlash(filepath.Clean(p))))
		err := previewFile(args, p)
		softerr(err)
		if err == nil {
			success++
		}
	}
	took := float32(time.Since(start).Milliseconds()) / 1000
	logger.Log.Info(fmt.Sprintf("Converted %d/%d files in %.3f seconds", success, len(inputFiles), took))
}

func previewFile(args previewArgs, p string) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	cube, err := prefilter.DecodeCubemap(inFile)
	if err != nil {
		return err
	}

	for level := 0; level < cube.Levels; level++ {
		outFilename := filepath.Join(cargs.out, strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))+fmt.Sprintf("_%d", level)+cargs.suffix+cargs.ext)
		if err := writePreview(outFilename, previewLevel(cube, level, args)); err != nil {
			return err
		}
	}

	return nil
}

// previewLevel stacks the six faces of a level vertically and tonemaps them.
func previewLevel(cube *prefilter.Cubemap, level int, args previewArgs) *libio.IntImage {
	size := cube.Size(level)
	pix := make([]float32, len(cube.Level(level)))
	copy(pix, cube.Level(level))

	fimg := libio.NewFloatImage(pix, 3, size, size*prefilter.NumberOfCubeFaces)
	if args.reinhard {
		for i := range fimg.Pix {
			fimg.Pix[i] = fimg.Pix[i] / (1 + fimg.Pix[i])
		}
	}
	return fimg.ToIntImage(float32(args.gamma), float32(args.scale))
}

func writePreview(outFilename string, img *libio.IntImage) error {
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	logger.Log.Info("Writing", zap.String("file", filepath.ToSlash(filepath.Clean(outFilename))))

	return png.Encode(outFile, img.ToRGBA())
}
