package prefilter

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/x448/float16"
)

var errReleased = errors.New("filter has been released")

// SwFilter is the host memory implementation of Filter. For identical input it produces
// bit identical output, which makes it usable as a reference for the GL implementation.
type SwFilter struct {
	resolution int
	levels     int
	caches     [][]ImportanceSample
	radiance   *Cubemap
	filtered   *Cubemap
	released   bool
}

func NewSwFilter(cfg Config) (*SwFilter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	levels := cfg.Levels()
	return &SwFilter{
		resolution: cfg.Resolution,
		levels:     levels,
		caches:     GenerateImportanceSampleCaches(cfg.Resolution, levels, cfg.Samples),
		radiance:   AllocateCubemap(cfg.Resolution, levels),
		filtered:   AllocateCubemap(cfg.Resolution, levels),
	}, nil
}

func (f *SwFilter) Resolution() int {
	return f.resolution
}

func (f *SwFilter) Levels() int {
	return f.levels
}

// ImportanceSampleCaches returns the caches used for levels 1 and up. They must not be modified.
func (f *SwFilter) ImportanceSampleCaches() [][]ImportanceSample {
	return f.caches
}

func (f *SwFilter) Update(faces []FaceImage) error {
	defer releaseFaces(faces)

	if f.released {
		return fmt.Errorf("%w: %v", ErrFatalGraphics, errReleased)
	}
	if err := validateFaces(faces, f.resolution); err != nil {
		return err
	}

	for i, face := range faces {
		dst := f.radiance.Face(0, i)
		src := face.Pix()
		for p := 0; p < f.resolution*f.resolution; p++ {
			dst[p*3+0] = float16.Frombits(src[p*4+0]).Float32()
			dst[p*3+1] = float16.Frombits(src[p*4+1]).Float32()
			dst[p*3+2] = float16.Frombits(src[p*4+2]).Float32()
		}
	}
	generateMipmaps(f.radiance)

	for level := 0; level < f.levels; level++ {
		f.filterLevel(level)
	}
	return nil
}

func (f *SwFilter) filterLevel(level int) {
	var cache []ImportanceSample
	if level > 0 {
		cache = f.caches[level-1]
	}
	size := f.filtered.Size(level)

	for face := 0; face < NumberOfCubeFaces; face++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				// texel center in [-1, 1]
				u := (2.0*float32(x)+1.0)/float32(size) - 1.0
				v := (2.0*float32(y)+1.0)/float32(size) - 1.0
				n := FaceDirection(face, u, v).Normalize()

				var color mgl32.Vec3
				if len(cache) == 0 {
					color = sampleCubeMapLod(f.radiance, n, 0)
				} else {
					t, b := tangentFrame(n)
					for _, s := range cache {
						l := t.Mul(s.Direction.X()).Add(b.Mul(s.Direction.Y())).Add(n.Mul(s.Direction.Z()))
						color = color.Add(sampleCubeMapLod(f.radiance, l, s.Level).Mul(s.Contribution))
					}
				}

				f.filtered.SetTexel(level, face, x, y, roundHalf(color[0]), roundHalf(color[1]), roundHalf(color[2]))
			}
		}
	}
}

func roundHalf(v float32) float32 {
	return float16.Fromfloat32(v).Float32()
}

// Readback returns a copy of the filtered cubemap.
func (f *SwFilter) Readback() (*Cubemap, error) {
	if f.released {
		return nil, fmt.Errorf("%w: %v", ErrFatalGraphics, errReleased)
	}
	data := make([]float32, len(f.filtered.Concat()))
	copy(data, f.filtered.Concat())
	return NewCubemap(data, f.resolution, f.levels)
}

func (f *SwFilter) Release() {
	f.released = true
	f.radiance = nil
	f.filtered = nil
}

// FaceDirection returns the unnormalized direction through the point (u, v) in [-1, 1] of a face.
// v = -1 is the first row of the face.
// Cube map face reference: https://www.khronos.org/opengl/wiki_opengl/images/CubeMapAxes.png
func FaceDirection(face int, u, v float32) mgl32.Vec3 {
	switch face {
	case FacePositiveX:
		return mgl32.Vec3{1, -v, -u}
	case FaceNegativeX:
		return mgl32.Vec3{-1, -v, u}
	case FacePositiveY:
		return mgl32.Vec3{u, 1, v}
	case FaceNegativeY:
		return mgl32.Vec3{u, -1, -v}
	case FacePositiveZ:
		return mgl32.Vec3{u, -v, 1}
	default:
		return mgl32.Vec3{-u, -v, -1}
	}
}

// sampleCubeMap returns the face hit by a direction and the texture coordinates in [0, 1] on it.
// Based on: https://www.gamedev.net/forums/topic/687535-implementing-a-cube-map-lookup-function/5337472/
func sampleCubeMap(dir mgl32.Vec3) (face int, u, v float32) {
	rx, ry, rz := dir[0], dir[1], dir[2]
	ax := math32.Abs(rx)
	ay := math32.Abs(ry)
	az := math32.Abs(rz)

	// this normalizes the uvs
	var uvfac float32

	if ax >= ay && ax >= az {
		if rx >= 0 {
			face = FacePositiveX
			u = -rz
		} else {
			face = FaceNegativeX
			u = rz
		}
		uvfac = 0.5 / ax
		v = -ry
	} else if ay >= ax && ay >= az {
		if ry >= 0 {
			face = FacePositiveY
			v = rz
		} else {
			face = FaceNegativeY
			v = -rz
		}
		uvfac = 0.5 / ay
		u = rx
	} else {
		if rz >= 0 {
			face = FacePositiveZ
			u = rx
		} else {
			face = FaceNegativeZ
			u = -rx
		}
		uvfac = 0.5 / az
		v = -ry
	}

	u = u*uvfac + 0.5
	v = v*uvfac + 0.5

	return
}

// sampleCubeMapLod filters linearly between the two closest mip levels.
func sampleCubeMapLod(cube *Cubemap, dir mgl32.Vec3, lod float32) mgl32.Vec3 {
	lod = mgl32.Clamp(lod, 0, float32(cube.Levels-1))
	face, u, v := sampleCubeMap(dir)

	l0 := int(lod)
	frac := lod - float32(l0)
	c0 := sampleBilinear(cube.Size(l0), 3, cube.Face(l0, face), u, v)
	if frac == 0 || l0+1 >= cube.Levels {
		return c0
	}
	c1 := sampleBilinear(cube.Size(l0+1), 3, cube.Face(l0+1, face), u, v)
	return c0.Mul(1 - frac).Add(c1.Mul(frac))
}

// sampleBilinear samples a square image with clamp to edge addressing.
func sampleBilinear(size int, channels int, pix []float32, u, v float32) mgl32.Vec3 {
	// -0.5 to adjust for the pixel center offset
	u = u*float32(size) - 0.5
	v = v*float32(size) - 0.5
	ufloor := math32.Floor(u)
	vfloor := math32.Floor(v)
	ufrac, vfrac := u-ufloor, v-vfloor
	u0, v0 := clampI(int(ufloor), 0, size-1), clampI(int(vfloor), 0, size-1)
	u1, v1 := clampI(int(ufloor)+1, 0, size-1), clampI(int(vfloor)+1, 0, size-1)

	texel := func(x, y int) mgl32.Vec3 {
		o := (x + y*size) * channels
		return mgl32.Vec3{pix[o+0], pix[o+1], pix[o+2]}
	}

	top := texel(u0, v0).Mul(1 - ufrac).Add(texel(u1, v0).Mul(ufrac))
	bottom := texel(u0, v1).Mul(1 - ufrac).Add(texel(u1, v1).Mul(ufrac))
	return top.Mul(1 - vfrac).Add(bottom.Mul(vfrac))
}

func clampI(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// tangentFrame returns a tangent and bitangent orthogonal to the unit vector n.
func tangentFrame(n mgl32.Vec3) (t, b mgl32.Vec3) {
	up := mgl32.Vec3{0, 0, 1}
	if math32.Abs(n.Z()) >= 0.999 {
		up = mgl32.Vec3{1, 0, 0}
	}
	t = up.Cross(n).Normalize()
	b = n.Cross(t)
	return t, b
}

// generateMipmaps fills every level after the first with a 2x2 box filter of the previous one.
func generateMipmaps(cube *Cubemap) {
	for level := 1; level < cube.Levels; level++ {
		size := cube.Size(level)
		srcSize := cube.Size(level - 1)
		for face := 0; face < NumberOfCubeFaces; face++ {
			for y := 0; y < size; y++ {
				for x := 0; x < size; x++ {
					var sum mgl32.Vec3
					for dy := 0; dy < 2; dy++ {
						for dx := 0; dx < 2; dx++ {
							sx := clampI(x*2+dx, 0, srcSize-1)
							sy := clampI(y*2+dy, 0, srcSize-1)
							r, g, b := cube.Texel(level-1, face, sx, sy)
							sum = sum.Add(mgl32.Vec3{r, g, b})
						}
					}
					sum = sum.Mul(0.25)
					cube.SetTexel(level, face, x, y, sum[0], sum[1], sum[2])
				}
			}
		}
	}
}
