package libgl

import (
	"github.com/go-gl/gl/v4.5-core/gl"
)

type GlCapability uint32

const (
	DepthTest              GlCapability = gl.DEPTH_TEST
	Blend                  GlCapability = gl.BLEND
	StencilTest            GlCapability = gl.STENCIL_TEST
	ScissorTest            GlCapability = gl.SCISSOR_TEST
	CullFace               GlCapability = gl.CULL_FACE
	TextureCubeMapSeamless GlCapability = gl.TEXTURE_CUBE_MAP_SEAMLESS
	DebugOutput            GlCapability = gl.DEBUG_OUTPUT
	DebugOutputSynchronous GlCapability = gl.DEBUG_OUTPUT_SYNCHRONOUS
)

// StateManager shadows the bits of context state this module changes so redundant calls can be skipped.
// It assumes nothing else modifies the context behind its back.
type StateManager struct {
	Caps                             map[GlCapability]bool
	TextureUnits, SamplerUnits       []uint32
	DrawFramebuffer, ReadFramebuffer uint32
	ArrayBuffer, ElementArrayBuffer  uint32
	ProgramPipeline, VertexArray     uint32
	ViewportRect                     [4]int
}

var State *StateManager

func NewStateManager() *StateManager {
	return &StateManager{
		Caps:         map[GlCapability]bool{},
		TextureUnits: make([]uint32, 32),
		SamplerUnits: make([]uint32, 32),
		ViewportRect: [4]int{-1, -1, -1, -1},
	}
}

// Init queries the environment of the current context and resets the state shadow.
func Init() {
	GlEnv = GetGlEnv()
	State = NewStateManager()
}

func (s *StateManager) Enable(cap GlCapability) {
	if s.Caps[cap] {
		return
	}
	gl.Enable(uint32(cap))
	s.Caps[cap] = true
}

func (s *StateManager) Disable(cap GlCapability) {
	if enabled, known := s.Caps[cap]; known && !enabled {
		return
	}
	gl.Disable(uint32(cap))
	s.Caps[cap] = false
}

func (s *StateManager) Viewport(x, y, w, h int) {
	rect := [4]int{x, y, w, h}
	if s.ViewportRect == rect {
		return
	}
	gl.Viewport(int32(x), int32(y), int32(w), int32(h))
	s.ViewportRect = rect
}

func (s *StateManager) BindFramebuffer(target, id uint32) {
	switch target {
	case gl.FRAMEBUFFER:
		if s.DrawFramebuffer == id && s.ReadFramebuffer == id {
			return
		}
		s.DrawFramebuffer = id
		s.ReadFramebuffer = id
	case gl.DRAW_FRAMEBUFFER:
		if s.DrawFramebuffer == id {
			return
		}
		s.DrawFramebuffer = id
	case gl.READ_FRAMEBUFFER:
		if s.ReadFramebuffer == id {
			return
		}
		s.ReadFramebuffer = id
	}
	gl.BindFramebuffer(target, id)
}

func (s *StateManager) BindDrawFramebuffer(id uint32) {
	s.BindFramebuffer(gl.DRAW_FRAMEBUFFER, id)
}

func (s *StateManager) BindReadFramebuffer(id uint32) {
	s.BindFramebuffer(gl.READ_FRAMEBUFFER, id)
}

func (s *StateManager) BindBuffer(target, id uint32) {
	switch target {
	case gl.ARRAY_BUFFER:
		if s.ArrayBuffer == id {
			return
		}
		s.ArrayBuffer = id
	case gl.ELEMENT_ARRAY_BUFFER:
		if s.ElementArrayBuffer == id {
			return
		}
		s.ElementArrayBuffer = id
	}
	gl.BindBuffer(target, id)
}

func (s *StateManager) BindVertexArray(id uint32) {
	if s.VertexArray == id {
		return
	}
	gl.BindVertexArray(id)
	s.VertexArray = id
}

func (s *StateManager) BindProgramPipeline(id uint32) {
	if s.ProgramPipeline == id {
		return
	}
	// a bound program object overrides the pipeline
	gl.UseProgram(0)
	gl.BindProgramPipeline(id)
	s.ProgramPipeline = id
}

func (s *StateManager) BindTextureUnit(unit int, id uint32) {
	if s.TextureUnits[unit] == id {
		return
	}
	gl.BindTextureUnit(uint32(unit), id)
	s.TextureUnits[unit] = id
}

func (s *StateManager) BindSampler(unit int, id uint32) {
	if s.SamplerUnits[unit] == id {
		return
	}
	gl.BindSampler(uint32(unit), id)
	s.SamplerUnits[unit] = id
}

// GL reuses the names of deleted objects, so bindings that reference a deleted
// name have to be dropped from the shadow state.

func (s *StateManager) forgetTexture(id uint32) {
	if s == nil || id == 0 {
		return
	}
	for i, v := range s.TextureUnits {
		if v == id {
			s.TextureUnits[i] = 0
		}
	}
}

func (s *StateManager) forgetSampler(id uint32) {
	if s == nil || id == 0 {
		return
	}
	for i, v := range s.SamplerUnits {
		if v == id {
			s.SamplerUnits[i] = 0
		}
	}
}

func (s *StateManager) forgetFramebuffer(id uint32) {
	if s == nil || id == 0 {
		return
	}
	if s.DrawFramebuffer == id {
		s.DrawFramebuffer = 0
	}
	if s.ReadFramebuffer == id {
		s.ReadFramebuffer = 0
	}
}

func (s *StateManager) forgetBuffer(id uint32) {
	if s == nil || id == 0 {
		return
	}
	if s.ArrayBuffer == id {
		s.ArrayBuffer = 0
	}
	if s.ElementArrayBuffer == id {
		s.ElementArrayBuffer = 0
	}
}

func (s *StateManager) forgetVertexArray(id uint32) {
	if s != nil && id != 0 && s.VertexArray == id {
		s.VertexArray = 0
	}
}

func (s *StateManager) forgetProgramPipeline(id uint32) {
	if s != nil && id != 0 && s.ProgramPipeline == id {
		s.ProgramPipeline = 0
	}
}
