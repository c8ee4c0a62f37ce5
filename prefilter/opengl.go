package prefilter

import (
	"cubemap-prefilter/libgl"
	"cubemap-prefilter/libutil"
	"cubemap-prefilter/logger"
	_ "embed"
	"fmt"
	"strconv"

	"github.com/go-gl/gl/v4.5-core/gl"
	"go.uber.org/zap"
)

//go:embed cubemap_filter.vert
var vertShaderSrc string

//go:embed cubemap_filter.frag
var fragShaderSrc string

var attachmentLocationDefines = [NumberOfCubeFaces]string{
	"PX_LOCATION", "NX_LOCATION", "PY_LOCATION", "NY_LOCATION", "PZ_LOCATION", "NZ_LOCATION",
}

// full screen quad as a triangle strip
var quadVertices = []float32{
	-1, -1,
	+1, -1,
	-1, +1,
	+1, +1,
}

// GlFilter renders the filtered cubemap with OpenGL 4.5.
// All methods must be called on the thread that owns the current context.
type GlFilter struct {
	resolution   int
	levels       int
	chunks       []Chunk
	radiance     libgl.UnboundTexture
	filtered     libgl.UnboundTexture
	sampler      libgl.UnboundSampler
	pipelines    []libgl.UnboundShaderPipeline
	framebuffers [][]libgl.UnboundFramebuffer
	quad         *libgl.Mesh
	cleanup      libutil.Cleanup
	released     bool
}

type glFilterOptions struct {
	maxColorAttachments int
}

type GlFilterOption func(opts *glFilterOptions)

// OptMaxColorAttachments renders at most n faces per draw call, even if the device supports more.
func OptMaxColorAttachments(n int) GlFilterOption {
	return func(opts *glFilterOptions) {
		opts.maxColorAttachments = n
	}
}

// NewGlFilter allocates every GPU object the filter needs. On failure everything allocated so far is
// deleted again and the error wraps ErrResourceAllocation.
func NewGlFilter(cfg Config, options ...GlFilterOption) (filter *GlFilter, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if libgl.State == nil || libgl.GlEnv == nil {
		libgl.Init()
	}
	if limit := libgl.GlEnv.Features.MaxCubeMapSize; limit > 0 && cfg.Resolution > limit {
		return nil, fmt.Errorf("%w: resolution %d exceeds the maximum cube map size %d", ErrConfiguration, cfg.Resolution, limit)
	}
	// errors left behind by someone else must not fail construction
	if err := libgl.CheckError("before filter construction"); err != nil {
		logger.Log.Warn("discarding pending GL errors", zap.Error(err))
	}

	opts := glFilterOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	attachments := libgl.GlEnv.MaxSimultaneousColorAttachments()
	if opts.maxColorAttachments > 0 && opts.maxColorAttachments < attachments {
		attachments = opts.maxColorAttachments
	}

	levels := cfg.Levels()
	f := &GlFilter{
		resolution: cfg.Resolution,
		levels:     levels,
		chunks:     PlanChunks(attachments),
	}
	defer func() {
		if err != nil {
			f.cleanup.Run()
			err = fmt.Errorf("%w: %v", ErrResourceAllocation, err)
		}
	}()

	if err = f.createCubemaps(); err != nil {
		return nil, err
	}
	caches := GenerateImportanceSampleCaches(cfg.Resolution, levels, cfg.Samples)
	if err = f.createShaders(caches, cfg.Samples); err != nil {
		return nil, err
	}
	if err = f.createFramebuffers(); err != nil {
		return nil, err
	}

	quadBuffer, err := libgl.NewVertexBuffer(2, quadVertices)
	if err != nil {
		return nil, err
	}
	f.cleanup.Add(quadBuffer)
	quadBuffer.SetDebugLabel("cubemap filter quad")
	f.quad, err = libgl.NewMesh(libgl.TriangleStrip, nil, quadBuffer)
	if err != nil {
		return nil, err
	}
	f.cleanup.Add(f.quad)

	if err = libgl.CheckError("create cubemap filter"); err != nil {
		return nil, err
	}

	logger.Log.Debug("created cubemap filter",
		zap.Int("resolution", f.resolution),
		zap.Int("levels", f.levels),
		zap.Int("samples", cfg.Samples),
		zap.Int("chunks", len(f.chunks)))

	return f, nil
}

func (f *GlFilter) createCubemaps() error {
	f.radiance = libgl.NewTexture(gl.TEXTURE_CUBE_MAP)
	f.cleanup.Add(f.radiance)
	f.radiance.SetDebugLabel("radiance cubemap")
	f.radiance.Allocate(f.levels, gl.RGBA16F, f.resolution, f.resolution, 0)

	f.filtered = libgl.NewTexture(gl.TEXTURE_CUBE_MAP)
	f.cleanup.Add(f.filtered)
	f.filtered.SetDebugLabel("filtered cubemap")
	f.filtered.Allocate(f.levels, gl.RGB16F, f.resolution, f.resolution, 0)
	f.filtered.MipmapLevels(0, f.levels-1)

	f.sampler = libgl.NewSampler()
	f.cleanup.Add(f.sampler)
	f.sampler.SetDebugLabel("radiance sampler")
	f.sampler.FilterMode(gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR)
	f.sampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)

	return libgl.CheckError("allocate cubemaps")
}

// createShaders compiles one fragment program per chunk, each writing the faces of its chunk
// to consecutive color attachments.
func (f *GlFilter) createShaders(caches [][]ImportanceSample, samples int) error {
	vsh := libgl.NewShader(vertShaderSrc, gl.VERTEX_SHADER)
	f.cleanup.Add(vsh)
	if err := vsh.Compile(); err != nil {
		return err
	}

	numberOfCaches := len(caches)
	if numberOfCaches < 1 {
		// GLSL has no zero sized arrays
		numberOfCaches = 1
	}

	f.pipelines = make([]libgl.UnboundShaderPipeline, len(f.chunks))
	for _, chunk := range f.chunks {
		defs := map[string]string{
			"NUMBER_OF_IMPORTANCE_SAMPLES":       strconv.Itoa(samples),
			"NUMBER_OF_MIPMAP_LEVELS":            strconv.Itoa(f.levels),
			"NUMBER_OF_IMPORTANCE_SAMPLE_CACHES": strconv.Itoa(numberOfCaches),
		}
		for location, face := range chunk.Faces() {
			defs[attachmentLocationDefines[face]] = strconv.Itoa(location)
		}

		fsh := libgl.NewShader(fragShaderSrc, gl.FRAGMENT_SHADER)
		f.cleanup.Add(fsh)
		if err := fsh.CompileWith(defs); err != nil {
			return fmt.Errorf("chunk %d: %w", chunk.Index, err)
		}
		fsh.SetUniform("u_cubemap", 0)
		setImportanceSampleUniforms(fsh, caches)

		pipeline := libgl.NewPipeline()
		f.cleanup.Add(pipeline)
		pipeline.SetDebugLabel(fmt.Sprintf("cubemap filter chunk %d", chunk.Index))
		pipeline.Attach(vsh, gl.VERTEX_SHADER_BIT)
		pipeline.Attach(fsh, gl.FRAGMENT_SHADER_BIT)
		f.pipelines[chunk.Index] = pipeline
	}

	return libgl.CheckError("create cubemap filter shaders")
}

func setImportanceSampleUniforms(prog libgl.ShaderProgram, caches [][]ImportanceSample) {
	for i, cache := range caches {
		cacheName := fmt.Sprintf("u_importance_sample_caches[%d]", i)
		prog.SetUniform(cacheName+".number_of_entries", len(cache))
		for j, entry := range cache {
			entryName := fmt.Sprintf("%s.entries[%d]", cacheName, j)
			prog.SetUniform(entryName+".direction", entry.Direction)
			prog.SetUniform(entryName+".contribution", entry.Contribution)
			prog.SetUniform(entryName+".level", entry.Level)
		}
	}
}

// createFramebuffers creates the [level][chunk] framebuffer table. Attachment i of a chunk
// renders face FirstFace+i of the filtered cubemap.
func (f *GlFilter) createFramebuffers() error {
	f.framebuffers = make([][]libgl.UnboundFramebuffer, f.levels)
	for level := range f.framebuffers {
		f.framebuffers[level] = make([]libgl.UnboundFramebuffer, len(f.chunks))
		for _, chunk := range f.chunks {
			fb := libgl.NewFramebuffer()
			f.cleanup.Add(fb)
			fb.SetDebugLabel(fmt.Sprintf("cubemap filter level %d chunk %d", level, chunk.Index))

			targets := make([]int, chunk.Size)
			for attachment, face := range chunk.Faces() {
				fb.AttachTextureLayerLevel(attachment, f.filtered, face, level)
				targets[attachment] = attachment
			}
			fb.BindTargets(targets...)
			if err := fb.Check(gl.DRAW_FRAMEBUFFER); err != nil {
				return fmt.Errorf("level %d chunk %d: %w", level, chunk.Index, err)
			}
			f.framebuffers[level][chunk.Index] = fb
		}
	}
	return libgl.CheckError("create cubemap filter framebuffers")
}

func (f *GlFilter) Resolution() int {
	return f.resolution
}

func (f *GlFilter) Levels() int {
	return f.levels
}

func (f *GlFilter) Chunks() []Chunk {
	return f.chunks
}

// FilteredCubemap is the output texture. It is owned by the filter and must not be modified.
func (f *GlFilter) FilteredCubemap() libgl.UnboundTexture {
	return f.filtered
}

func (f *GlFilter) Update(faces []FaceImage) error {
	defer releaseFaces(faces)

	if f.released {
		return fmt.Errorf("%w: %v", ErrFatalGraphics, errReleased)
	}
	if err := validateFaces(faces, f.resolution); err != nil {
		return err
	}

	for i, face := range faces {
		f.radiance.LoadLayer(0, i, f.resolution, f.resolution, gl.RGBA, gl.HALF_FLOAT, face.Pix())
	}
	f.radiance.GenerateMipmap()
	if err := libgl.CheckError("upload radiance cubemap"); err != nil {
		return fmt.Errorf("%w: %v", ErrFatalGraphics, err)
	}

	libgl.State.Enable(libgl.TextureCubeMapSeamless)
	libgl.State.Disable(libgl.DepthTest)
	libgl.State.Disable(libgl.Blend)
	libgl.State.Disable(libgl.CullFace)
	f.radiance.Bind(0)
	f.sampler.Bind(0)

	for level := 0; level < f.levels; level++ {
		size := f.resolution >> level
		libgl.State.Viewport(0, 0, size, size)
		for _, chunk := range f.chunks {
			f.framebuffers[level][chunk.Index].Bind(gl.DRAW_FRAMEBUFFER)
			pipeline := f.pipelines[chunk.Index]
			pipeline.Get(gl.FRAGMENT_SHADER).SetUniform("u_roughness_level", level)
			pipeline.Bind()
			if err := f.quad.Draw(); err != nil {
				return fmt.Errorf("%w: %v", ErrFatalGraphics, err)
			}
		}
	}
	libgl.State.BindDrawFramebuffer(0)

	if err := libgl.CheckError("filter cubemap"); err != nil {
		return fmt.Errorf("%w: %v", ErrFatalGraphics, err)
	}
	return nil
}

// Readback copies every level of the filtered cubemap into host memory. It stalls until the GPU is done.
func (f *GlFilter) Readback() (*Cubemap, error) {
	if f.released {
		return nil, fmt.Errorf("%w: %v", ErrFatalGraphics, errReleased)
	}
	cube := AllocateCubemap(f.resolution, f.levels)
	for level := 0; level < f.levels; level++ {
		f.filtered.ReadLevel(level, gl.RGB, cube.Level(level))
	}
	if err := libgl.CheckError("read filtered cubemap"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFatalGraphics, err)
	}
	return cube, nil
}

func (f *GlFilter) Release() {
	f.cleanup.Run()
	f.released = true
	f.pipelines = nil
	f.framebuffers = nil
}
