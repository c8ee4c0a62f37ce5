package main

import (
	"cubemap-prefilter/libio"
	"cubemap-prefilter/prefilter"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestPackFaces(t *testing.T) {
	faces := make([]image.Image, prefilter.NumberOfCubeFaces)
	for i := range faces {
		faces[i] = solidImage(37, 23, color.RGBA{R: uint8(i * 40), G: 128, B: 255, A: 255})
	}

	cube := packFaces(faces, 8)
	assert.Equal(t, 8, cube.BaseSize)
	assert.Equal(t, 1, cube.Levels)

	for face := 0; face < prefilter.NumberOfCubeFaces; face++ {
		r, g, b := cube.Texel(0, face, 3, 5)
		assert.InDelta(t, libio.SrgbToLinear(uint8(face*40)), r, 2e-2, "face %d", face)
		assert.InDelta(t, libio.SrgbToLinear(128), g, 2e-2, "face %d", face)
		assert.InDelta(t, 1, b, 2e-2, "face %d", face)
	}
}

func TestPreviewLevel(t *testing.T) {
	cube := prefilter.AllocateCubemap(4, 3)
	cube.SetTexel(1, prefilter.FaceNegativeY, 1, 0, 1, 0.5, 0)

	img := previewLevel(cube, 1, previewArgs{gamma: 1, scale: 1})
	require.Equal(t, 2, img.Width)
	require.Equal(t, 2*prefilter.NumberOfCubeFaces, img.Height)

	// faces are stacked vertically, -Y is the fourth face
	rgba := img.ToRGBA()
	c := rgba.RGBAAt(1, 2*prefilter.FaceNegativeY)
	assert.Equal(t, color.RGBA{R: 255, G: 128, B: 0, A: 255}, c)
	assert.Equal(t, color.RGBA{A: 255}, rgba.RGBAAt(0, 0))

	// the cubemap is not modified by tonemapping
	r, g, _ := cube.Texel(1, prefilter.FaceNegativeY, 1, 0)
	assert.Equal(t, float32(1), r)
	assert.Equal(t, float32(0.5), g)
}

func TestValidPackSize(t *testing.T) {
	for _, size := range []int{1, 2, 64, 256, prefilter.MaxCubeEnvSize} {
		assert.True(t, validPackSize(size), size)
	}
	for _, size := range []int{-8, 0, 3, 48, 100, 255, prefilter.MaxCubeEnvSize * 2} {
		assert.False(t, validPackSize(size), size)
	}
}
