package glbackend

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/toygraph/gpu"
	"github.com/richinsley/toygraph/translator"
)

// parametersBinding is the uniform buffer slot of the Parameters block.
const parametersBinding = 0

// Pipeline is a linked program. block is the index of its Parameters
// uniform block, gl.INVALID_INDEX when the compiler removed it.
type Pipeline struct {
	program uint32
	desc    gpu.PipelineDesc
	block   uint32
}

func (p *Pipeline) Label() string { return p.desc.Label }

// blockNames lists the names the Parameters block may carry in translated
// code, most specific first.
func blockNames(s *translator.Shader) []string {
	var names []string
	if mapped, ok := s.MappedName("Parameters"); ok {
		names = append(names, mapped)
	}
	for _, name := range []string{"Parameters", "_uParameters"} {
		if len(names) == 0 || names[0] != name {
			names = append(names, name)
		}
	}
	return names
}

// Matches "ERROR: 0:12:" (ANGLE, Mesa) and "0(12) :" (NVIDIA).
var logLineRe = regexp.MustCompile(`(?m)^(?:ERROR:\s*)?\d+[:(](\d+)\)?\s*:`)

// errorLine returns the first source line mentioned in a compiler log.
func errorLine(log string) int {
	m := logLineRe.FindStringSubmatch(log)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func (d *Device) CreatePipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	if desc.NumTextures < 0 || desc.NumTextures > gpu.NumChannels {
		return nil, fmt.Errorf("glbackend: pipeline %q declares %d textures", desc.Label, desc.NumTextures)
	}
	if _, _, _, err := pixelFormat(desc.ColorFormat); err != nil {
		return nil, err
	}

	vs, err := translateStage(desc.Label, desc.VertexSource, translator.StageVertex)
	if err != nil {
		return nil, err
	}
	fs, err := translateStage(desc.Label, desc.FragmentSource, translator.StageFragment)
	if err != nil {
		return nil, err
	}

	vertex, err := compileShader(desc.Label, "vertex", vs.Code, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(vertex)
	fragment, err := compileShader(desc.Label, "fragment", fs.Code, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(fragment)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertex)
	gl.AttachShader(program, fragment)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
		gl.DeleteProgram(program)
		return nil, &gpu.CompileError{Label: desc.Label, Stage: "link", Log: strings.TrimRight(logText, "\x00")}
	}

	p := &Pipeline{program: program, desc: desc, block: gl.INVALID_INDEX}
	for _, name := range blockNames(fs) {
		if idx := gl.GetUniformBlockIndex(program, gl.Str(name+"\x00")); idx != gl.INVALID_INDEX {
			p.block = idx
			gl.UniformBlockBinding(program, idx, parametersBinding)
			break
		}
	}
	if p.block == gl.INVALID_INDEX {
		logger.Debugf("pipeline %q does not use the Parameters block", desc.Label)
	}
	loc := func(name string) int32 {
		mapped, ok := fs.MappedName(name)
		if !ok {
			return -1
		}
		return gl.GetUniformLocation(program, gl.Str(mapped+"\x00"))
	}

	// Texture units are fixed for the lifetime of the program.
	gl.UseProgram(program)
	for i := 0; i < desc.NumTextures; i++ {
		if l := loc(fmt.Sprintf("iTexture%d", i)); l >= 0 {
			gl.Uniform1i(l, int32(i))
		}
	}
	gl.UseProgram(0)

	if err := checkError("create pipeline " + desc.Label); err != nil {
		gl.DeleteProgram(program)
		return nil, err
	}
	logger.Debugf("linked pipeline %q", desc.Label)
	return p, nil
}

func (d *Device) ReleasePipeline(pl gpu.Pipeline) {
	if p, ok := pl.(*Pipeline); ok && p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
}

// translateStage runs the WebGL2 translator. Its diagnostics refer to lines
// of the composed source, so they carry a usable line number.
func translateStage(label, source string, stage translator.Stage) (*translator.Shader, error) {
	out, err := translator.Translate(source, stage)
	if err != nil {
		msg := err.Error()
		return nil, &gpu.CompileError{Label: label, Stage: string(stage), Line: errorLine(msg), Log: msg}
	}
	return out, nil
}

// compileShader compiles translated code. Driver diagnostics refer to the
// translated text, so the line number is dropped.
func compileShader(label, stage, source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, &gpu.CompileError{Label: label, Stage: stage, Log: strings.TrimRight(logText, "\x00")}
	}
	return shader, nil
}
