package renderer

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/gpu"
	"github.com/richinsley/toygraph/gpu/softgpu"
	"github.com/richinsley/toygraph/media"
)

var markerRe = regexp.MustCompile(`//@(\w+)`)

// programs maps the marker found in the pass code to the fragment function
// the software device runs for it.
var programs = map[string]softgpu.FragmentFunc{
	"solid": func(*softgpu.FragmentContext) [4]float32 {
		return [4]float32{0.2, 0.4, 0.6, 1}
	},
	"green": func(*softgpu.FragmentContext) [4]float32 {
		return [4]float32{0, 1, 0, 1}
	},
	"frame": func(ctx *softgpu.FragmentContext) [4]float32 {
		return [4]float32{float32(ctx.Uniforms.Frame), 0, 0, 1}
	},
	"frame8": func(ctx *softgpu.FragmentContext) [4]float32 {
		return [4]float32{float32(ctx.Uniforms.Frame) / 255, 0, 0, 1}
	},
	"show0": func(ctx *softgpu.FragmentContext) [4]float32 {
		v := ctx.Texel(0, int(ctx.Coord[0]), int(ctx.Coord[1]))[0]
		return [4]float32{v / 255, 0, 0, 1}
	},
	"accumulate": func(ctx *softgpu.FragmentContext) [4]float32 {
		prev := ctx.Texel(0, int(ctx.Coord[0]), int(ctx.Coord[1]))
		return [4]float32{prev[0] + 1, 0, 0, 1}
	},
	"blank": func(*softgpu.FragmentContext) [4]float32 {
		return [4]float32{}
	},
	"copy0": func(ctx *softgpu.FragmentContext) [4]float32 {
		return ctx.Texel(0, int(ctx.Coord[0]), int(ctx.Coord[1]))
	},
}

func testCompiler(desc gpu.PipelineDesc) (softgpu.FragmentFunc, error) {
	m := markerRe.FindStringSubmatch(desc.FragmentSource)
	if m == nil {
		return programs["solid"], nil
	}
	if m[1] == "broken" {
		return nil, &gpu.CompileError{
			Label: desc.Label,
			Stage: "fragment",
			Line:  lineOf(desc.FragmentSource, "//@broken"),
			Log:   "syntax error",
		}
	}
	fn, ok := programs[m[1]]
	if !ok {
		return nil, fmt.Errorf("no test program %q", m[1])
	}
	return fn, nil
}

func lineOf(src, needle string) int {
	return strings.Count(src[:strings.Index(src, needle)], "\n") + 1
}

func code(marker string) string {
	return "//@" + marker + "\nvoid mainImage(out vec4 fragColor, in vec2 fragCoord) { fragColor = vec4(0.0); }\n"
}

func bufferPass(id, marker string, ins ...api.Input) api.RenderPass {
	return api.RenderPass{
		Type:    api.PassBuffer,
		Code:    code(marker),
		Inputs:  ins,
		Outputs: []api.Output{{ID: api.FlexString(id)}},
	}
}

func imagePass(marker string, ins ...api.Input) api.RenderPass {
	return api.RenderPass{
		Type:    api.PassImage,
		Code:    code(marker),
		Inputs:  ins,
		Outputs: []api.Output{{ID: "image"}},
	}
}

func ref(id string, ch int) api.Input {
	return api.Input{ID: api.FlexString(id), CType: "buffer", Channel: &ch}
}

func testShader(passes ...api.RenderPass) *api.Shader {
	return &api.Shader{
		Info:       api.ShaderInfo{ID: "abc", Name: "test", Username: "tester"},
		RenderPass: passes,
	}
}

func newTestRenderer(t *testing.T, width, height int, opts Options) (*Renderer, *softgpu.Device) {
	t.Helper()
	dev := softgpu.New(width, height, testCompiler)
	r, err := NewRenderer(dev, media.DirSource{Root: t.TempDir()}, opts)
	if err != nil {
		t.Fatal(err)
	}
	return r, dev
}

func surfaceRGBA(t *testing.T, r *Renderer, x, y int) [4]uint8 {
	t.Helper()
	img, err := r.Screenshot()
	if err != nil {
		t.Fatal(err)
	}
	c := img.RGBAAt(x, y)
	return [4]uint8{c.R, c.G, c.B, c.A}
}
