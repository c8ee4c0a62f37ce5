package prefilter

import (
	"cubemap-prefilter/libio"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"

	"github.com/pierrec/lz4/v4"
)

// MaxCubeEnvSize bounds the face size accepted by DecodeCubemap. It is above the cube map size limit of common GPUs.
const MaxCubeEnvSize = 1 << 12

// DecodeCubemap reads a .cubeenv written by EncodeCubemap.
// Texels are decoded level by level while they arrive, so memory use follows the data actually present.
func DecodeCubemap(r io.Reader) (cube *Cubemap, err error) {
	var br *libio.BinaryReader
	var ok bool

	if br, ok = r.(*libio.BinaryReader); !ok {
		br = libio.NewBinaryReader(r, binary.LittleEndian)
		defer func() {
			err = br.Join(err)
		}()
	}

	header := CubeEnvHeader{}
	if !br.ReadRef(&header) {
		return nil, fmt.Errorf("expected cube env header; byte 0x%08x", br.LastIndex)
	}

	if header.Check != MagicNumberCUBEENV {
		return nil, fmt.Errorf("cube env header is corrupt; byte 0x%08x", br.LastIndex)
	}

	if header.Version != CubeEnvVersion1_000_000 {
		return nil, fmt.Errorf("cube env version %d unsupported; byte 0x%08x", header.Version, br.LastIndex)
	}

	if header.Size == 0 || header.Size > MaxCubeEnvSize {
		return nil, fmt.Errorf("cube env size %d unsupported, the limit is %d; byte 0x%08x", header.Size, MaxCubeEnvSize, br.LastIndex)
	}

	if header.Levels == 0 || int(header.Levels) > bits.Len32(header.Size) {
		return nil, fmt.Errorf("cube env has %d levels but size is %d; byte 0x%08x", header.Levels, header.Size, br.LastIndex)
	}

	pixr := br.Src
	if header.Compression == CubeEnvCompressionLZ4 || header.Compression == CubeEnvCompressionLZ4Fast {
		pixr = lz4.NewReader(br.Src)
	} else if header.Compression != CubeEnvCompressionNone {
		return nil, fmt.Errorf("cube env compression id %d unsupported; byte 0x%08x", header.Compression, br.LastIndex)
	}

	size, levels := int(header.Size), int(header.Levels)
	var colors []float32
	for level := 0; level < levels; level++ {
		s := mipSize(size, level)
		pixels := 6 * s * s

		levelColors, err := DecodeRgbe(io.LimitReader(pixr, int64(pixels)*4), false)
		if err != nil {
			return nil, fmt.Errorf("level %d decoding error: %w", level, err)
		}
		if len(levelColors) != pixels*3 {
			return nil, fmt.Errorf("level %d: expected %d encoded pixels, got %d", level, pixels, len(levelColors)/3)
		}

		if colors == nil {
			colors = make([]float32, 0, calcCubeMapPixels(size, levels)*3)
		}
		colors = append(colors, levelColors...)
	}

	return NewCubemap(colors, size, levels)
}
