package libgl

import (
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
)

var GlEnv *GlEnvironment

type GlEnvironment struct {
	Vendor   string
	Renderer string
	// https://community.intel.com/t5/Graphics/glNamedFramebufferTextureLayer-rejects-cubemaps-of-any-kind/td-p/1167643
	UseIntelCubemapDsaFix bool
	Features              GlFeatures
}

type GlFeatures struct {
	MaxColorAttachments int
	MaxDrawBuffers      int
	MaxCubeMapSize      int
}

const (
	VendorIntel   = "intel"
	VendorNvidia  = "nvidia"
	VendorAmd     = "ati"
	VendorMesa    = "mesa"
	VendorUnknown = "unknown"
)

// GetGlEnv queries the current context. Has to be called after the context is made current.
func GetGlEnv() *GlEnvironment {
	rawVendor := strings.ToLower(gl.GoStr(gl.GetString(gl.VENDOR)))
	vendor := VendorUnknown
	switch {
	case strings.Contains(rawVendor, "intel"):
		vendor = VendorIntel
	case strings.Contains(rawVendor, "nvidia"):
		vendor = VendorNvidia
	case strings.Contains(rawVendor, "ati ") || strings.Contains(rawVendor, "amd"):
		vendor = VendorAmd
	case strings.Contains(rawVendor, "mesa"):
		vendor = VendorMesa
	}

	features := GlFeatures{}
	var value int32
	gl.GetIntegerv(gl.MAX_COLOR_ATTACHMENTS, &value)
	features.MaxColorAttachments = int(value)
	gl.GetIntegerv(gl.MAX_DRAW_BUFFERS, &value)
	features.MaxDrawBuffers = int(value)
	gl.GetIntegerv(gl.MAX_CUBE_MAP_TEXTURE_SIZE, &value)
	features.MaxCubeMapSize = int(value)

	return &GlEnvironment{
		Vendor:                vendor,
		Renderer:              gl.GoStr(gl.GetString(gl.RENDERER)),
		UseIntelCubemapDsaFix: vendor == VendorIntel,
		Features:              features,
	}
}

// MaxSimultaneousColorAttachments is the number of color attachments a single draw call can write to.
func (env *GlEnvironment) MaxSimultaneousColorAttachments() int {
	n := env.Features.MaxColorAttachments
	if env.Features.MaxDrawBuffers < n {
		n = env.Features.MaxDrawBuffers
	}
	return n
}
