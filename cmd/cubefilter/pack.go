package main

import (
	"cubemap-prefilter/libio"
	"cubemap-prefilter/libutil"
	"cubemap-prefilter/logger"
	"cubemap-prefilter/prefilter"
	"flag"
	"fmt"
	goimg "image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

type packArgs struct {
	commonArgs
	size int
	name string
}

func createPackCommand() *command {
	args := packArgs{
		commonArgs: commonArgs{
			ext:      ".cubeenv",
			compress: 2,
		},
		size: 256,
		name: "environment",
	}

	flags := flag.NewFlagSet("pack", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.IntVar(&args.size, "size", args.size, "the cubemap face resolution in pixels, a power of two")
	flags.IntVar(&args.size, "s", args.size, "shorthand for size")
	flags.StringVar(&args.name, "name", args.name, "the result file name")

	return &command{
		Name: "pack",
		Help: "pack six face images into a .cubeenv file",
		Run: func(self *command) {
			if self.Flags.NArg() != prefilter.NumberOfCubeFaces || !validPackSize(args.size) || args.compress < 0 || args.compress > 10 {
				printCommandUsage(self, " face-px face-nx face-py face-ny face-pz face-nz")
			}
			setCommonArgs(&args.commonArgs)

			harderr(runPack(args, self.Flags.Args()))
		},
		Flags: flags,
	}
}

// validPackSize reports whether size can be written as a .cubeenv face and decoded again.
func validPackSize(size int) bool {
	return libutil.IsPowerOfTwo(size) && size <= prefilter.MaxCubeEnvSize
}

func runPack(args packArgs, faceFiles []string) error {
	images := make([]goimg.Image, len(faceFiles))
	for i, p := range faceFiles {
		logger.Log.Info(fmt.Sprintf("Reading face %d/%d", i+1, len(faceFiles)), zap.String("file", filepath.ToSlash(filepath.Clean(p))))
		img, err := readImage(p)
		if err != nil {
			return err
		}
		images[i] = img
	}

	cube := packFaces(images, args.size)

	outFilename := outputPath(args.name)
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	logger.Log.Info("Writing", zap.String("file", filepath.ToSlash(filepath.Clean(outFilename))))

	err = prefilter.EncodeCubemap(outFile, cube, prefilter.OptCompress(args.compress-1))
	if err != nil {
		outFile.Close()
		os.Remove(outFilename)
		return err
	}
	return nil
}

func readImage(p string) (goimg.Image, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer close(f)

	img, format, err := goimg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode %q: %w", p, err)
	}
	logger.Log.Debug("decoded face", zap.String("format", format), zap.Stringer("bounds", img.Bounds()))
	return img, nil
}

// packFaces scales every face to size x size and stores it as linear RGB in the first level of a cubemap.
func packFaces(faces []goimg.Image, size int) *prefilter.Cubemap {
	cube := prefilter.AllocateCubemap(size, 1)
	scaled := goimg.NewRGBA(goimg.Rect(0, 0, size, size))

	for i, face := range faces {
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), face, face.Bounds(), draw.Src, nil)

		pix := cube.Face(0, i)
		for j := 0; j < size*size; j++ {
			pix[j*3+0] = libio.SrgbToLinear(scaled.Pix[j*4+0])
			pix[j*3+1] = libio.SrgbToLinear(scaled.Pix[j*4+1])
			pix[j*3+2] = libio.SrgbToLinear(scaled.Pix[j*4+2])
		}
	}
	return cube
}
