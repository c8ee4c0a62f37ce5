package prefilter

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSwFilter(t *testing.T, resolution, samples int) *SwFilter {
	t.Helper()
	f, err := NewSwFilter(Config{Resolution: resolution, Samples: samples})
	require.NoError(t, err)
	t.Cleanup(f.Release)
	return f
}

func TestNewSwFilterRejectsConfig(t *testing.T) {
	_, err := NewSwFilter(Config{Resolution: 12, Samples: 32})
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = NewSwFilter(Config{Resolution: 16, Samples: 0})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestSwFilterLevels(t *testing.T) {
	assert.Equal(t, 5, newTestSwFilter(t, 16, 8).Levels())
	assert.Equal(t, 7, newTestSwFilter(t, 64, 8).Levels())
	assert.Equal(t, 16, newTestSwFilter(t, 16, 8).Resolution())
}

func TestSwFilterRejectsFiveFaces(t *testing.T) {
	f := newTestSwFilter(t, 16, 16)
	faces, images := makeFaces(16, constantColor(1, 1, 1))

	err := f.Update(faces[:5])
	assert.ErrorIs(t, err, ErrInvalidInput)
	assertAllReleased(t, images[:5])
	assert.False(t, images[5].Released())
}

func TestSwFilterRejectsNonSquareFace(t *testing.T) {
	f := newTestSwFilter(t, 16, 16)
	faces, images := makeFaces(16, constantColor(1, 1, 1))
	faces[3] = NewHalfImage(FormatRGBA16F, 16, 32, make([]uint16, 16*32*4))

	err := f.Update(faces)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, faces[3].(*HalfImage).Released())
	for i, img := range images {
		if i != 3 {
			assert.True(t, img.Released(), "face %d was not released", i)
		}
	}
}

func TestSwFilterRejectsWrongResolution(t *testing.T) {
	f := newTestSwFilter(t, 16, 16)
	faces, images := makeFaces(8, constantColor(1, 1, 1))
	assert.ErrorIs(t, f.Update(faces), ErrInvalidInput)
	assertAllReleased(t, images)
}

func TestSwFilterInvalidInputKeepsPreviousResult(t *testing.T) {
	f := newTestSwFilter(t, 8, 16)
	faces, _ := makeFaces(8, gradientColor(8))
	require.NoError(t, f.Update(faces))
	before, err := f.Readback()
	require.NoError(t, err)

	faces, _ = makeFaces(8, constantColor(5, 5, 5))
	require.Error(t, f.Update(faces[:4]))
	after, err := f.Readback()
	require.NoError(t, err)
	assert.Equal(t, before.Concat(), after.Concat())
}

func TestSwFilterReleasesOnSuccess(t *testing.T) {
	f := newTestSwFilter(t, 8, 8)
	faces, images := makeFaces(8, constantColor(0.5, 0.5, 0.5))
	require.NoError(t, f.Update(faces))
	assertAllReleased(t, images)
}

func TestSwFilterIsIdempotent(t *testing.T) {
	f := newTestSwFilter(t, 16, 32)

	faces, _ := makeFaces(16, gradientColor(16))
	require.NoError(t, f.Update(faces))
	first, err := f.Readback()
	require.NoError(t, err)

	faces, _ = makeFaces(16, gradientColor(16))
	require.NoError(t, f.Update(faces))
	second, err := f.Readback()
	require.NoError(t, err)

	assert.Equal(t, first.Concat(), second.Concat())
}

func TestSwFilterConstantEnvironment(t *testing.T) {
	f := newTestSwFilter(t, 16, 64)
	faces, _ := makeFaces(16, constantColor(0.25, 1.5, 3))
	require.NoError(t, f.Update(faces))

	cube, err := f.Readback()
	require.NoError(t, err)
	for level := 0; level < cube.Levels; level++ {
		size := cube.Size(level)
		for face := 0; face < NumberOfCubeFaces; face++ {
			for y := 0; y < size; y++ {
				for x := 0; x < size; x++ {
					r, g, b := cube.Texel(level, face, x, y)
					assert.InDelta(t, 0.25, r, 2e-3)
					assert.InDelta(t, 1.5, g, 2e-3)
					assert.InDelta(t, 3, b, 4e-3)
				}
			}
		}
	}
}

func TestSwFilterMirrorLevelEqualsInput(t *testing.T) {
	const size = 16
	f := newTestSwFilter(t, size, 16)
	color := gradientColor(size)
	faces, _ := makeFaces(size, color)
	require.NoError(t, f.Update(faces))

	cube, err := f.Readback()
	require.NoError(t, err)
	for face := 0; face < NumberOfCubeFaces; face++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				er, eg, eb := color(face, x, y)
				r, g, b := cube.Texel(0, face, x, y)
				assert.InDelta(t, er, r, 1e-3)
				assert.InDelta(t, eg, g, 1e-3)
				assert.InDelta(t, eb, b, 1e-3)
			}
		}
	}
}

func TestSwFilterBlursWithRoughness(t *testing.T) {
	const size = 16
	f := newTestSwFilter(t, size, 64)
	// a single bright face
	faces, _ := makeFaces(size, func(face, x, y int) (float32, float32, float32) {
		if face == FacePositiveY {
			return 10, 10, 10
		}
		return 0, 0, 0
	})
	require.NoError(t, f.Update(faces))
	cube, err := f.Readback()
	require.NoError(t, err)

	// on the +X face next to the bright face, light bleeds in with increasing roughness
	edge := func(level int) float32 {
		r, _, _ := cube.Texel(level, FacePositiveX, cube.Size(level)/2, 0)
		return r
	}
	assert.Equal(t, float32(0), edge(0))
	assert.Greater(t, edge(2), float32(0))
	assert.Greater(t, edge(4), float32(0))
}

func TestSwFilterReleaseIsIdempotent(t *testing.T) {
	f, err := NewSwFilter(DefaultConfig())
	require.NoError(t, err)
	f.Release()
	f.Release()

	faces, images := makeFaces(DefaultResolution, constantColor(1, 1, 1))
	assert.ErrorIs(t, f.Update(faces), ErrFatalGraphics)
	assertAllReleased(t, images)
	_, err = f.Readback()
	assert.ErrorIs(t, err, ErrFatalGraphics)
}

func TestFaceDirectionRoundTrip(t *testing.T) {
	for face := 0; face < NumberOfCubeFaces; face++ {
		for _, uv := range [][2]float32{{0, 0}, {-0.5, 0.25}, {0.75, -0.75}} {
			dir := FaceDirection(face, uv[0], uv[1]).Normalize()
			hit, u, v := sampleCubeMap(dir)
			assert.Equal(t, face, hit)
			assert.InDelta(t, uv[0]*0.5+0.5, u, 1e-5)
			assert.InDelta(t, uv[1]*0.5+0.5, v, 1e-5)
		}
	}
}

func TestFaceDirectionCenters(t *testing.T) {
	expected := []mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for face, e := range expected {
		assert.Equal(t, e, FaceDirection(face, 0, 0), "face %d", face)
	}
}

func TestTangentFrameIsOrthonormal(t *testing.T) {
	for _, n := range []mgl32.Vec3{{0, 0, 1}, {0, 0, -1}, {1, 0, 0}, mgl32.Vec3{1, 2, 3}.Normalize()} {
		tangent, bitangent := tangentFrame(n)
		assert.InDelta(t, 0, tangent.Dot(n), 1e-5)
		assert.InDelta(t, 0, bitangent.Dot(n), 1e-5)
		assert.InDelta(t, 0, tangent.Dot(bitangent), 1e-5)
		assert.InDelta(t, 1, tangent.Len(), 1e-5)
		assert.InDelta(t, 1, bitangent.Len(), 1e-5)
	}
}
