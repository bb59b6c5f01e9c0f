package libgl

import (
	"fmt"
	"log"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

var shaderMetaPattern = regexp.MustCompile(`(?m)^\/\/meta:(\w+)(.+)$`)

type shaderPipeline struct {
	glId      uint32
	vertStage ShaderProgram
	fragStage ShaderProgram
}

type UnboundShaderPipeline interface {
	Id() uint32
	Bind() BoundShaderPipeline
	Attach(program ShaderProgram, stages int)
	Get(stage int) ShaderProgram
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

func (pipeline *shaderPipeline) Attach(program ShaderProgram, stages int) {
	gl.UseProgramStages(pipeline.glId, uint32(stages), program.Id())
	if stages&gl.VERTEX_SHADER_BIT != 0 {
		pipeline.vertStage = program
	}
	if stages&gl.FRAGMENT_SHADER_BIT != 0 {
		pipeline.fragStage = program
	}
}

func (pipeline *shaderPipeline) Get(stage int) ShaderProgram {
	switch stage {
	case gl.VERTEX_SHADER:
		return pipeline.vertStage
	case gl.FRAGMENT_SHADER:
		return pipeline.fragStage
	}
	log.Panicf("%d is not a valid shader stage\n", stage)
	return nil
}

func (pipeline *shaderPipeline) Bind() BoundShaderPipeline {
	State.BindProgramPipeline(pipeline.glId)
	return BoundShaderPipeline(pipeline)
}

func (pipeline *shaderPipeline) Id() uint32 {
	return pipeline.glId
}

// Delete deletes the pipeline object only, attached programs are owned by the caller.
func (pipeline *shaderPipeline) Delete() {
	gl.DeleteProgramPipelines(1, &pipeline.glId)
	pipeline.glId = 0
}

type program struct {
	uniformLocations map[string]int32
	glId             uint32
	name             string
	source           string
	stage            int
}

type ShaderProgram interface {
	Id() uint32
	Name() string
	Compile() error
	Delete()
	GetUniformLocation(name string) int32
	SetUniform(name string, value any)
}

// NewShader creates a separable program for stage.
// The name is taken from a `//meta:name <name>` line, if present.
func NewShader(source string, stage int) ShaderProgram {
	name := "untitled"
	for _, match := range shaderMetaPattern.FindAllStringSubmatch(source, -1) {
		key, value := match[1], strings.TrimSpace(match[2])
		if strings.EqualFold(key, "name") {
			name = value
		}
	}

	return &program{
		name:   name,
		stage:  stage,
		source: source,
	}
}

func (prog *program) Name() string {
	return prog.name
}

func (prog *program) Compile() error {
	cStrs, free := gl.Strs(prog.source + "\x00")
	id := gl.CreateShaderProgramv(uint32(prog.stage), 1, cStrs)
	free()

	var ok int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		defer gl.DeleteProgram(id)
		return fmt.Errorf("failed to link %v shader, log: %v", prog.name, readProgramInfoLog(id))
	}

	prog.glId = id
	prog.uniformLocations = map[string]int32{}
	return nil
}

func (prog *program) Id() uint32 {
	return prog.glId
}

func (prog *program) Delete() {
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
		// unused uniforms are removed by the compiler
		slog.Default().Debug("uniform location not found", "shader", prog.name, "uniform", name)
	}

	return location
}

func (prog *program) SetUniform(name string, value any) {
	location := prog.GetUniformLocation(name)
	if location == -1 {
		return
	}

	switch v := value.(type) {
	case float32:
		gl.ProgramUniform1f(prog.glId, location, v)
	case int:
		gl.ProgramUniform1i(prog.glId, location, int32(v))
	case int32:
		gl.ProgramUniform1i(prog.glId, location, v)
	case uint32:
		gl.ProgramUniform1ui(prog.glId, location, v)
	case bool:
		var i int32
		if v {
			i = 1
		}
		gl.ProgramUniform1i(prog.glId, location, i)
	case mgl32.Vec2:
		gl.ProgramUniform2f(prog.glId, location, v.X(), v.Y())
	case mgl32.Vec3:
		gl.ProgramUniform3f(prog.glId, location, v.X(), v.Y(), v.Z())
	case mgl32.Mat4:
		gl.ProgramUniformMatrix4fv(prog.glId, location, 1, false, &v[0])
	default:
		log.Panicf("unsupported uniform type %T", value)
	}
}
