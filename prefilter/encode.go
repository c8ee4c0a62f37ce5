package prefilter

import (
	"cubemap-prefilter/libio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

const MagicNumberCUBEENV = 0x43554245

type CubeEnvVersion uint32

const CubeEnvVersion1_000_000 = CubeEnvVersion(1_000_000)

type CubeEnvCompression uint32

const (
	CubeEnvCompressionNone = CubeEnvCompression(iota)
	CubeEnvCompressionLZ4Fast
	CubeEnvCompressionLZ4
)

// CubeEnvHeader precedes the RGBE texels of every level in a .cubeenv file.
type CubeEnvHeader struct {
	Check       uint32
	Version     CubeEnvVersion
	Compression CubeEnvCompression
	Size        uint32
	Levels      uint32
}

type EncodeContext struct {
	Compression CubeEnvCompression
	Writer      io.Writer
}

type EncodeOption func(ctx *EncodeContext) error

// OptCompress enables lz4 compression. Level 0 is lz4 fast, 1 to 9 the high compression levels.
// A negative level disables compression.
func OptCompress(level int) EncodeOption {
	levels := []lz4.CompressionLevel{lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9}
	if level < 0 {
		return nil
	}

	if level >= len(levels) {
		level = len(levels) - 1
	}

	return func(ctx *EncodeContext) error {
		if ctx.Compression != CubeEnvCompressionNone {
			return fmt.Errorf("compression already configured")
		}
		lzw := lz4.NewWriter(ctx.Writer)
		if err := lzw.Apply(lz4.CompressionLevelOption(levels[level])); err != nil {
			return err
		}
		if level == 0 {
			ctx.Compression = CubeEnvCompressionLZ4Fast
		} else {
			ctx.Compression = CubeEnvCompressionLZ4
		}
		ctx.Writer = lzw
		return nil
	}
}

// EncodeCubemap writes every level of cube as a .cubeenv.
func EncodeCubemap(w io.Writer, cube *Cubemap, options ...EncodeOption) (err error) {
	var bw *libio.BinaryWriter
	var ok bool

	if bw, ok = w.(*libio.BinaryWriter); !ok {
		bw = libio.NewBinaryWriter(w, binary.LittleEndian)
		defer func() {
			err = bw.Join(err)
		}()
	}

	ctx := EncodeContext{
		Writer: bw.Dst,
	}

	for _, opt := range options {
		if opt != nil {
			err = opt(&ctx)
			if err != nil {
				return err
			}
		}
	}

	header := CubeEnvHeader{
		Check:       MagicNumberCUBEENV,
		Version:     CubeEnvVersion1_000_000,
		Compression: ctx.Compression,
		Size:        uint32(cube.BaseSize),
		Levels:      uint32(cube.Levels),
	}
	if !bw.WriteRef(&header) {
		return fmt.Errorf("could not write cube env header: %w", bw.Err)
	}

	if err := EncodeRgbe(ctx.Writer, cube.Concat(), false); err != nil {
		return fmt.Errorf("could not write cube env encoded pixels: %w", err)
	}

	// only the compressor is owned here, w stays open
	if closer, ok := (ctx.Writer).(io.WriteCloser); ok && ctx.Compression != CubeEnvCompressionNone {
		err = closer.Close()
		if err != nil {
			return err
		}
	}

	return nil
}
