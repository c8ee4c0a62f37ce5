package libgl

import (
	"cubemap-prefilter/logger"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var shaderMetaPattern = regexp.MustCompile(`(?m)^\/\/meta:(\w+)(.+)$`)
var shaderDefinePattern = regexp.MustCompile(`(?m)^\s*(\/\/)?\s*#define ([\w\d]+) ?(.*)$`)
var shaderVersionPattern = regexp.MustCompile(`(?m)^\s*#version.+$`)

type shaderPipeline struct {
	glId      uint32
	vertStage ShaderProgram
	geomStage ShaderProgram
	fragStage ShaderProgram
}

type UnboundShaderPipeline interface {
	LabeledGlObject
	Bind() BoundShaderPipeline
	Attach(program ShaderProgram, stages int)
	Get(stage int) ShaderProgram
	Id() uint32
	Delete()
}

type BoundShaderPipeline interface {
	UnboundShaderPipeline
}

func NewPipeline() UnboundShaderPipeline {
	var id uint32
	gl.CreateProgramPipelines(1, &id)
	return &shaderPipeline{
		glId: id,
	}
}

func (pipeline *shaderPipeline) SetDebugLabel(label string) {
	setObjectLabel(gl.PROGRAM_PIPELINE, pipeline.glId, label)
}

func (pipeline *shaderPipeline) Attach(program ShaderProgram, stages int) {
	gl.UseProgramStages(pipeline.glId, uint32(stages), program.Id())
	if stages&gl.VERTEX_SHADER_BIT != 0 {
		pipeline.vertStage = program
	}
	if stages&gl.GEOMETRY_SHADER_BIT != 0 {
		pipeline.geomStage = program
	}
	if stages&gl.FRAGMENT_SHADER_BIT != 0 {
		pipeline.fragStage = program
	}
}

func (pipeline *shaderPipeline) Get(stage int) ShaderProgram {
	switch stage {
	case gl.VERTEX_SHADER:
		return pipeline.vertStage
	case gl.GEOMETRY_SHADER:
		return pipeline.geomStage
	case gl.FRAGMENT_SHADER:
		return pipeline.fragStage
	}
	panic(fmt.Errorf("%d is not a valid shader stage", stage))
}

func (pipeline *shaderPipeline) Bind() BoundShaderPipeline {
	State.BindProgramPipeline(pipeline.glId)
	return BoundShaderPipeline(pipeline)
}

func (pipeline *shaderPipeline) Id() uint32 {
	return pipeline.glId
}

// Delete frees the pipeline object only, attached programs are owned by the caller.
func (pipeline *shaderPipeline) Delete() {
	if pipeline.glId == 0 {
		return
	}
	State.forgetProgramPipeline(pipeline.glId)
	gl.DeleteProgramPipelines(1, &pipeline.glId)
	pipeline.glId = 0
	pipeline.vertStage = nil
	pipeline.geomStage = nil
	pipeline.fragStage = nil
}

type glslDef struct {
	marker  string
	name    string
	value   string
	boolean bool
}

type program struct {
	uniformLocations map[string]int32
	definitions      map[string]glslDef
	versionEnd       int
	glId             uint32
	name             string
	sourceTemplate   string
	sourceLive       string
	stage            int
}

type ShaderProgram interface {
	LabeledGlObject
	Id() uint32
	Name() string
	Compile() error
	CompileWith(defs map[string]string) error
	GetUniformLocation(name string) int32
	SetUniform(name string, value any)
	Source() string
	Delete()
}

// NewShader parses a separable shader source. Every `#define NAME value` line becomes a template slot
// that CompileWith can override. A `//meta:name <name>` line names the shader in log messages.
func NewShader(source string, stage int) ShaderProgram {
	name := "untitled"

	metaMatches := shaderMetaPattern.FindAllStringSubmatch(source, -1)
	for _, match := range metaMatches {
		key, value := match[1], strings.TrimSpace(match[2])
		if strings.EqualFold(key, "name") {
			name = value
		}
	}

	defineMatches := shaderDefinePattern.FindAllStringSubmatch(source, -1)
	definitions := make(map[string]glslDef, len(defineMatches))
	defineMarkers := make(map[string]string, len(defineMatches))
	for i, match := range defineMatches {
		value := strings.TrimSpace(match[3])
		marker := fmt.Sprintf("$def_%v$", i)
		boolean := value == ""
		if boolean && match[1] == "//" {
			value = "false"
		}
		definitions[strings.ToLower(match[2])] = glslDef{
			marker:  marker,
			name:    match[2],
			value:   value,
			boolean: boolean,
		}
		defineMarkers[match[0]] = marker
	}
	source = shaderDefinePattern.ReplaceAllStringFunc(source, func(s string) string {
		return defineMarkers[s]
	})

	versionEnd := 0
	if loc := shaderVersionPattern.FindStringIndex(source); loc != nil {
		versionEnd = loc[1]
	}

	return &program{
		definitions:    definitions,
		name:           name,
		stage:          stage,
		sourceTemplate: source,
		versionEnd:     versionEnd,
	}
}

func (prog *program) Name() string {
	return prog.name
}

func (prog *program) SetDebugLabel(label string) {
	setObjectLabel(gl.PROGRAM, prog.glId, label)
}

func (prog *program) Compile() error {
	return prog.CompileWith(nil)
}

// ExpandDefines substitutes the template slots. Definitions not present in the source are inserted after #version.
func (prog *program) ExpandDefines(defs map[string]string) string {
	source := prog.sourceTemplate

	for n, v := range defs {
		k := strings.ToLower(n)
		if def, ok := prog.definitions[k]; ok {
			source = strings.Replace(source, def.marker, formatDefine(def, v), 1)
		} else {
			source = source[:prog.versionEnd] + fmt.Sprintf("\n#define %v %v", n, v) + source[prog.versionEnd:]
		}
	}

	for _, def := range prog.definitions {
		source = strings.Replace(source, def.marker, formatDefine(def, def.value), 1)
	}
	return source
}

func formatDefine(def glslDef, value string) string {
	sub := fmt.Sprintf("#define %v %v", def.name, value)
	if def.boolean {
		sub = fmt.Sprintf("#define %v", def.name)
	}
	if def.boolean && value == "false" {
		return "// " + sub
	}
	return sub
}

func (prog *program) CompileWith(defs map[string]string) error {
	source := prog.ExpandDefines(defs)

	cStrs, free := gl.Strs(source + "\x00")
	id := gl.CreateShaderProgramv(uint32(prog.stage), 1, cStrs)
	free()
	if id == 0 {
		return fmt.Errorf("failed to create %v shader program", prog.name)
	}

	var ok int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		infoLog := readProgramInfoLog(id)
		gl.DeleteProgram(id)
		return fmt.Errorf("failed to link %v shader, log: %v", prog.name, infoLog)
	}

	if prog.glId != 0 {
		gl.DeleteProgram(prog.glId)
	}
	prog.glId = id
	prog.sourceLive = source
	prog.uniformLocations = map[string]int32{}

	return nil
}

func (prog *program) Source() string {
	return prog.sourceLive
}

func (prog *program) Id() uint32 {
	return prog.glId
}

func (prog *program) Delete() {
	if prog.glId == 0 {
		return
	}
	gl.DeleteProgram(prog.glId)
	prog.glId = 0
}

func readProgramInfoLog(id uint32) string {
	var logLength int32
	gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)

	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (prog *program) GetUniformLocation(name string) int32 {
	if location, ok := prog.uniformLocations[name]; ok {
		return location
	}

	location := gl.GetUniformLocation(prog.glId, gl.Str(name+"\x00"))
	prog.uniformLocations[name] = location

	if location == -1 {
		logger.Log.Debug("could not get uniform location", zap.String("shader", prog.name), zap.String("uniform", name))
	}

	return location
}

func (prog *program) SetUniform(name string, value any) {
	location := prog.GetUniformLocation(name)
	if location == -1 {
		return
	}
	setProgramUniformAny(prog.glId, location, value)
}

func setProgramUniformAny(prog uint32, location int32, value any) {
	for refVal := reflect.ValueOf(value); refVal.Kind() == reflect.Ptr; refVal = reflect.ValueOf(value) {
		value = refVal.Elem().Interface()
	}

	switch v := value.(type) {
	case float32:
		gl.ProgramUniform1f(prog, location, v)
	case float64:
		gl.ProgramUniform1f(prog, location, float32(v))
	case int:
		gl.ProgramUniform1i(prog, location, int32(v))
	case int32:
		gl.ProgramUniform1i(prog, location, v)
	case uint32:
		gl.ProgramUniform1ui(prog, location, v)
	case bool:
		var i int32
		if v {
			i = 1
		}
		gl.ProgramUniform1i(prog, location, i)
	case mgl32.Vec2:
		gl.ProgramUniform2f(prog, location, v.X(), v.Y())
	case mgl32.Vec3:
		gl.ProgramUniform3f(prog, location, v.X(), v.Y(), v.Z())
	case mgl32.Vec4:
		gl.ProgramUniform4f(prog, location, v.X(), v.Y(), v.Z(), v.W())
	case mgl32.Mat3:
		gl.ProgramUniformMatrix3fv(prog, location, 1, false, &v[0])
	case mgl32.Mat4:
		gl.ProgramUniformMatrix4fv(prog, location, 1, false, &v[0])
	default:
		panic(fmt.Errorf("unsupported uniform type %v", reflect.TypeOf(value)))
	}
}
