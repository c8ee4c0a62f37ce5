package prefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

// makeFaces builds six RGBA16F faces from a color function.
func makeFaces(size int, color func(face, x, y int) (r, g, b float32)) ([]FaceImage, []*HalfImage) {
	faces := make([]FaceImage, NumberOfCubeFaces)
	images := make([]*HalfImage, NumberOfCubeFaces)
	for f := range faces {
		pix := make([]uint16, size*size*4)
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				r, g, b := color(f, x, y)
				i := (x + y*size) * 4
				pix[i+0] = float16.Fromfloat32(r).Bits()
				pix[i+1] = float16.Fromfloat32(g).Bits()
				pix[i+2] = float16.Fromfloat32(b).Bits()
				pix[i+3] = float16.Fromfloat32(1).Bits()
			}
		}
		images[f] = NewHalfImage(FormatRGBA16F, size, size, pix)
		faces[f] = images[f]
	}
	return faces, images
}

func constantColor(r, g, b float32) func(face, x, y int) (float32, float32, float32) {
	return func(face, x, y int) (float32, float32, float32) {
		return r, g, b
	}
}

// gradientColor gives every face and texel a distinct, smoothly varying color.
func gradientColor(size int) func(face, x, y int) (float32, float32, float32) {
	return func(face, x, y int) (float32, float32, float32) {
		return float32(face+1) / 6, float32(x) / float32(size), float32(y) / float32(size)
	}
}

func assertAllReleased(t *testing.T, images []*HalfImage) {
	t.Helper()
	for i, img := range images {
		assert.True(t, img.Released(), "face %d was not released", i)
	}
}

func TestValidateFaces(t *testing.T) {
	faces, _ := makeFaces(8, constantColor(1, 1, 1))
	assert.NoError(t, validateFaces(faces, 8))
	assert.ErrorIs(t, validateFaces(faces, 16), ErrInvalidInput)
	assert.ErrorIs(t, validateFaces(faces[:5], 8), ErrInvalidInput)
	assert.ErrorIs(t, validateFaces(append(faces, faces[0]), 8), ErrInvalidInput)

	wrongFormat := append([]FaceImage{}, faces...)
	wrongFormat[2] = NewHalfImage(FormatRGBA8, 8, 8, make([]uint16, 8*8*4))
	assert.ErrorIs(t, validateFaces(wrongFormat, 8), ErrInvalidInput)

	short := append([]FaceImage{}, faces...)
	short[4] = NewHalfImage(FormatRGBA16F, 8, 8, make([]uint16, 8*8*3))
	assert.ErrorIs(t, validateFaces(short, 8), ErrInvalidInput)

	withNil := append([]FaceImage{}, faces...)
	withNil[1] = nil
	assert.ErrorIs(t, validateFaces(withNil, 8), ErrInvalidInput)
}

func TestFacesFromCubemap(t *testing.T) {
	cube := AllocateCubemap(4, 3)
	cube.SetTexel(0, FaceNegativeY, 1, 2, 0.5, 2, 8)
	cube.SetTexel(1, FacePositiveZ, 1, 1, 3, 0, 0)

	faces := FacesFromCubemap(cube, 0)
	require.Len(t, faces, NumberOfCubeFaces)
	assert.NoError(t, validateFaces(faces, 4))
	pix := faces[FaceNegativeY].Pix()
	i := (1 + 2*4) * 4
	assert.Equal(t, float32(0.5), float16.Frombits(pix[i+0]).Float32())
	assert.Equal(t, float32(2), float16.Frombits(pix[i+1]).Float32())
	assert.Equal(t, float32(8), float16.Frombits(pix[i+2]).Float32())
	assert.Equal(t, float32(1), float16.Frombits(pix[i+3]).Float32())

	level1 := FacesFromCubemap(cube, 1)
	assert.Equal(t, 2, level1[0].Width())
	assert.Equal(t, float32(3), float16.Frombits(level1[FacePositiveZ].Pix()[(1+1*2)*4]).Float32())
}

func TestCubemapLayout(t *testing.T) {
	cube := AllocateCubemap(8, 4)
	assert.Equal(t, 6*(64+16+4+1)*3, len(cube.Concat()))
	assert.Equal(t, 8, cube.Size(0))
	assert.Equal(t, 1, cube.Size(3))
	assert.Len(t, cube.Level(2), 6*4*3)
	assert.Len(t, cube.Face(1, 5), 16*3)

	cube.SetTexel(2, 3, 1, 0, 1, 2, 3)
	r, g, b := cube.Texel(2, 3, 1, 0)
	assert.Equal(t, []float32{1, 2, 3}, []float32{r, g, b})
	assert.Equal(t, float32(2), cube.Level(2)[(3*4+1)*3+1])

	_, err := NewCubemap(make([]float32, 10), 8, 4)
	assert.Error(t, err)
	_, err = NewCubemap(nil, 0, 1)
	assert.Error(t, err)
}
