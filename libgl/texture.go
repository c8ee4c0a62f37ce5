package libgl

import (
	"encoding/binary"
	"fmt"
	"log"
	"reflect"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

type texture struct {
	glId       uint32
	dimensions uint32
	levels     int
	width      int
	height     int
	depth      int
}

type UnboundTexture interface {
	LabeledGlObject
	Id() uint32
	Type() uint32
	Width() int
	Height() int
	Levels() int
	Bind(unit int) BoundTexture
	Allocate(levels int, internalFormat uint32, width, height, depth int)
	LoadLayer(level, layer int, width, height int, format, dataType uint32, data any)
	ReadLevel(level int, format uint32, dst any)
	MipmapLevels(base, max int)
	GenerateMipmap()
	Delete()
}

type BoundTexture interface {
	UnboundTexture
}

func NewTexture(dimensions uint32) UnboundTexture {
	var id uint32
	gl.CreateTextures(dimensions, 1, &id)
	return &texture{
		glId:       id,
		dimensions: dimensions,
	}
}

// MipmapLevelsFor returns the length of a full mip chain down to 1x1.
func MipmapLevelsFor(width, height int) int {
	size := width
	if height > size {
		size = height
	}
	levels := 1
	for size > 1 {
		size >>= 1
		levels++
	}
	return levels
}

func (tex *texture) Dimensions() int {
	switch tex.dimensions {
	case gl.TEXTURE_1D, gl.TEXTURE_BUFFER:
		return 1
	case gl.TEXTURE_3D, gl.TEXTURE_2D_ARRAY, gl.TEXTURE_2D_MULTISAMPLE_ARRAY, gl.TEXTURE_CUBE_MAP, gl.TEXTURE_CUBE_MAP_ARRAY:
		return 3
	case gl.TEXTURE_2D, gl.TEXTURE_2D_MULTISAMPLE, gl.TEXTURE_1D_ARRAY:
		return 2
	default:
		gl.DebugMessageInsert(gl.DEBUG_SOURCE_APPLICATION, gl.DEBUG_TYPE_ERROR, 1, gl.DEBUG_SEVERITY_MEDIUM, -1, gl.Str(fmt.Sprintf("invalid texture dimension for texture %d: %04x\x00", tex.glId, tex.dimensions)))
		return 0
	}
}

func (tex *texture) Id() uint32 {
	return tex.glId
}

func (tex *texture) Type() uint32 {
	return tex.dimensions
}

func (tex *texture) Width() int {
	return tex.width
}

func (tex *texture) Height() int {
	return tex.height
}

func (tex *texture) Levels() int {
	return tex.levels
}

func (tex *texture) SetDebugLabel(label string) {
	setObjectLabel(gl.TEXTURE, tex.glId, label)
}

func (tex *texture) Bind(unit int) BoundTexture {
	State.BindTextureUnit(unit, tex.glId)
	return BoundTexture(tex)
}

func (tex *texture) Delete() {
	if tex.glId == 0 {
		return
	}
	State.forgetTexture(tex.glId)
	gl.DeleteTextures(1, &tex.glId)
	tex.glId = 0
}

// Allocate creates immutable storage. A levels value of 0 allocates the full mip chain.
// Cube maps take six faces of width x height, depth is ignored for them.
func (tex *texture) Allocate(levels int, internalFormat uint32, width, height, depth int) {
	if levels == 0 {
		levels = MipmapLevelsFor(width, height)
	}
	tex.levels = levels
	tex.width = width
	tex.height = height
	tex.depth = depth

	if tex.dimensions == gl.TEXTURE_CUBE_MAP {
		tex.depth = 6
		gl.TextureStorage2D(tex.glId, int32(levels), internalFormat, int32(width), int32(height))
		return
	}
	switch tex.Dimensions() {
	case 1:
		gl.TextureStorage1D(tex.glId, int32(levels), internalFormat, int32(width))
	case 2:
		gl.TextureStorage2D(tex.glId, int32(levels), internalFormat, int32(width), int32(height))
	case 3:
		gl.TextureStorage3D(tex.glId, int32(levels), internalFormat, int32(width), int32(height), int32(depth))
	}
}

// LoadLayer uploads a single layer. For cube maps the layer is the face index, starting at +X.
// The data type is explicit since half floats have no Go type.
func (tex *texture) LoadLayer(level, layer int, width, height int, format, dataType uint32, data any) {
	gl.TextureSubImage3D(tex.glId, int32(level), 0, 0, int32(layer), int32(width), int32(height), 1, format, dataType, Pointer(data))
}

// ReadLevel copies all layers of a mip level into dst, which has to be large enough.
func (tex *texture) ReadLevel(level int, format uint32, dst any) {
	dataType, _ := getGlType(dst)
	size := binary.Size(dst)
	if size <= 0 {
		log.Panicf("%T is not a valid read target", dst)
	}

	// https://community.intel.com/t5/Graphics/glNamedFramebufferTextureLayer-rejects-cubemaps-of-any-kind/td-p/1167643
	if tex.dimensions == gl.TEXTURE_CUBE_MAP && GlEnv != nil && GlEnv.UseIntelCubemapDsaFix {
		faces := reflect.ValueOf(dst)
		if faces.Kind() != reflect.Slice {
			log.Panicf("%T is not a slice", dst)
		}
		faceLen := faces.Len() / 6
		// glGetTexImage reads from the active unit
		gl.ActiveTexture(gl.TEXTURE0)
		tex.Bind(0)
		for i := 0; i < 6; i++ {
			face := uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X + i)
			gl.GetTexImage(face, int32(level), format, dataType, Pointer(faces.Slice(i*faceLen, (i+1)*faceLen).Interface()))
		}
		return
	}
	gl.GetTextureImage(tex.glId, int32(level), format, dataType, int32(size), Pointer(dst))
}

func (tex *texture) GenerateMipmap() {
	gl.GenerateTextureMipmap(tex.glId)
}

func (tex *texture) MipmapLevels(base, max int) {
	gl.TextureParameteri(tex.glId, gl.TEXTURE_BASE_LEVEL, int32(base))
	gl.TextureParameteri(tex.glId, gl.TEXTURE_MAX_LEVEL, int32(max))
}

func getGlType(data any) (glType uint32, float bool) {
	switch data.(type) {
	case byte, []byte, *byte:
		return gl.UNSIGNED_BYTE, false
	case int8, []int8, *int8:
		return gl.BYTE, false
	case int16, []int16, *int16:
		return gl.SHORT, false
	case uint16, []uint16, *uint16:
		return gl.UNSIGNED_SHORT, false
	case int32, []int32, *int32:
		return gl.INT, false
	case uint32, []uint32, *uint32:
		return gl.UNSIGNED_INT, false
	case float32, []float32, *float32, mgl32.Vec2, []mgl32.Vec2, mgl32.Vec3, []mgl32.Vec3, mgl32.Vec4, []mgl32.Vec4:
		return gl.FLOAT, true
	case float64, []float64, *float64:
		return gl.DOUBLE, true
	}
	log.Panicf("invalid type: %T", data)
	return 0, false
}

type sampler struct {
	glId uint32
}

type UnboundSampler interface {
	LabeledGlObject
	Id() uint32
	Bind(unit int) BoundSampler
	FilterMode(min, mag int32)
	WrapMode(s, t, r int32)
	Delete()
}

type BoundSampler interface {
	UnboundSampler
}

func NewSampler() UnboundSampler {
	var id uint32
	gl.CreateSamplers(1, &id)
	return &sampler{
		glId: id,
	}
}

func (s *sampler) Id() uint32 {
	return s.glId
}

func (s *sampler) SetDebugLabel(label string) {
	setObjectLabel(gl.SAMPLER, s.glId, label)
}

func (s *sampler) Bind(unit int) BoundSampler {
	State.BindSampler(unit, s.glId)
	return BoundSampler(s)
}

func (s *sampler) FilterMode(min, mag int32) {
	if min != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MIN_FILTER, min)
	}
	if mag != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MAG_FILTER, mag)
	}
}

func (sampler *sampler) WrapMode(s, t, r int32) {
	if s != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_S, s)
	}
	if t != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_T, t)
	}
	if r != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_R, r)
	}
}

func (s *sampler) Delete() {
	if s.glId == 0 {
		return
	}
	State.forgetSampler(s.glId)
	gl.DeleteSamplers(1, &s.glId)
	s.glId = 0
}
