package prefilter

import "fmt"

const (
	FacePositiveX = iota
	FaceNegativeX
	FacePositiveY
	FaceNegativeY
	FacePositiveZ
	FaceNegativeZ
)

// Cubemap is a mip mapped RGB float cubemap in host memory.
// Levels are stored one after another, each level holds the six faces in +X,-X,+Y,-Y,+Z,-Z order
// and each face is row major starting at the top left texel.
type Cubemap struct {
	BaseSize int
	Levels   int
	data     []float32
}

// NewCubemap wraps data, which has to hold exactly calcCubeMapPixels(size, levels) RGB texels.
func NewCubemap(data []float32, size, levels int) (*Cubemap, error) {
	if size < 1 || levels < 1 {
		return nil, fmt.Errorf("invalid cubemap dimensions %d with %d levels", size, levels)
	}
	if expected := calcCubeMapPixels(size, levels) * 3; len(data) != expected {
		return nil, fmt.Errorf("cubemap data has %d values, expected %d", len(data), expected)
	}
	return &Cubemap{
		BaseSize: size,
		Levels:   levels,
		data:     data,
	}, nil
}

func AllocateCubemap(size, levels int) *Cubemap {
	return &Cubemap{
		BaseSize: size,
		Levels:   levels,
		data:     make([]float32, calcCubeMapPixels(size, levels)*3),
	}
}

// calcCubeMapPixels returns the number of texels of all faces in the first levels mip levels.
func calcCubeMapPixels(size, levels int) int {
	total := 0
	for l := 0; l < levels; l++ {
		s := mipSize(size, l)
		total += 6 * s * s
	}
	return total
}

// calcCubeMapOffset returns the texel range [start, end) of a level.
func calcCubeMapOffset(size, level int) (start, end int) {
	start = calcCubeMapPixels(size, level)
	s := mipSize(size, level)
	return start, start + 6*s*s
}

func mipSize(size, level int) int {
	s := size >> level
	if s < 1 {
		return 1
	}
	return s
}

func (c *Cubemap) Size(level int) int {
	return mipSize(c.BaseSize, level)
}

func (c *Cubemap) Concat() []float32 {
	return c.data
}

func (c *Cubemap) Level(level int) []float32 {
	start, end := calcCubeMapOffset(c.BaseSize, level)
	return c.data[start*3 : end*3 : end*3]
}

func (c *Cubemap) Face(level, face int) []float32 {
	s := c.Size(level)
	o := s * s * 3
	lvl := c.Level(level)
	return lvl[face*o : (face+1)*o : (face+1)*o]
}

func (c *Cubemap) Texel(level, face, x, y int) (r, g, b float32) {
	s := c.Size(level)
	pix := c.Face(level, face)
	i := (x + y*s) * 3
	return pix[i+0], pix[i+1], pix[i+2]
}

func (c *Cubemap) SetTexel(level, face, x, y int, r, g, b float32) {
	s := c.Size(level)
	pix := c.Face(level, face)
	i := (x + y*s) * 3
	pix[i+0], pix[i+1], pix[i+2] = r, g, b
}
