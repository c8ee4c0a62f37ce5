package prefilter

import (
	"fmt"

	"github.com/x448/float16"
)

type PixelFormat int

const (
	FormatRGBA16F PixelFormat = iota
	FormatRGB16F
	FormatRGBA8
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA16F:
		return "RGBA16F"
	case FormatRGB16F:
		return "RGB16F"
	case FormatRGBA8:
		return "RGBA8"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// FaceImage is one face of the radiance cubemap as handed over by the producer.
// Pix holds the half float bit patterns, four channels per texel, rows top to bottom.
// The consumer calls Release exactly once when it is done with the image.
type FaceImage interface {
	Format() PixelFormat
	Width() int
	Height() int
	Pix() []uint16
	Release()
}

// HalfImage is an in-memory FaceImage.
type HalfImage struct {
	format   PixelFormat
	width    int
	height   int
	pix      []uint16
	released bool
}

func NewHalfImage(format PixelFormat, width, height int, pix []uint16) *HalfImage {
	return &HalfImage{
		format: format,
		width:  width,
		height: height,
		pix:    pix,
	}
}

func (img *HalfImage) Format() PixelFormat {
	return img.format
}

func (img *HalfImage) Width() int {
	return img.width
}

func (img *HalfImage) Height() int {
	return img.height
}

func (img *HalfImage) Pix() []uint16 {
	return img.pix
}

func (img *HalfImage) Release() {
	img.released = true
	img.pix = nil
}

func (img *HalfImage) Released() bool {
	return img.released
}

// FacesFromCubemap converts one level of a cubemap to six RGBA16F faces with an alpha of one.
func FacesFromCubemap(cube *Cubemap, level int) []FaceImage {
	size := cube.Size(level)
	faces := make([]FaceImage, NumberOfCubeFaces)
	one := float16.Fromfloat32(1).Bits()
	for f := range faces {
		src := cube.Face(level, f)
		pix := make([]uint16, size*size*4)
		for i := 0; i < size*size; i++ {
			pix[i*4+0] = float16.Fromfloat32(src[i*3+0]).Bits()
			pix[i*4+1] = float16.Fromfloat32(src[i*3+1]).Bits()
			pix[i*4+2] = float16.Fromfloat32(src[i*3+2]).Bits()
			pix[i*4+3] = one
		}
		faces[f] = NewHalfImage(FormatRGBA16F, size, size, pix)
	}
	return faces
}

func validateFaces(faces []FaceImage, resolution int) error {
	if len(faces) != NumberOfCubeFaces {
		return fmt.Errorf("%w: expected %d faces, got %d", ErrInvalidInput, NumberOfCubeFaces, len(faces))
	}
	for i, face := range faces {
		if face == nil {
			return fmt.Errorf("%w: face %d is nil", ErrInvalidInput, i)
		}
		if face.Format() != FormatRGBA16F {
			return fmt.Errorf("%w: face %d has format %v, expected %v", ErrInvalidInput, i, face.Format(), FormatRGBA16F)
		}
		if face.Width() != face.Height() {
			return fmt.Errorf("%w: face %d is not square (%dx%d)", ErrInvalidInput, i, face.Width(), face.Height())
		}
		if face.Width() != resolution {
			return fmt.Errorf("%w: face %d resolution %d does not match expected %d", ErrInvalidInput, i, face.Width(), resolution)
		}
		if expected := resolution * resolution * 4; len(face.Pix()) != expected {
			return fmt.Errorf("%w: face %d has %d values, expected %d", ErrInvalidInput, i, len(face.Pix()), expected)
		}
	}
	return nil
}

func releaseFaces(faces []FaceImage) {
	for _, face := range faces {
		if face != nil {
			face.Release()
		}
	}
}
