package renderer

import (
	"errors"
	"strings"
	"testing"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/gpu"
	"github.com/richinsley/toygraph/shader"
)

func TestLoadScene_PassOrder(t *testing.T) {
	r, _ := newTestRenderer(t, 4, 4, DefaultOptions())
	sh := testShader(
		api.RenderPass{Type: api.PassCommon, Code: "float shared_value() { return 1.0; }"},
		bufferPass("A", "solid"),
		api.RenderPass{Type: api.PassSound, Code: "vec2 mainSound(int s, float t) { return vec2(0.0); }"},
		bufferPass("B", "solid", ref("A", 0)),
		imagePass("solid", ref("B", 0)),
	)

	scene, err := r.LoadScene(sh)
	if err != nil {
		t.Fatal(err)
	}
	defer scene.Destroy()

	expIndex := []int{1, 3, 4}
	expType := []api.PassType{api.PassBuffer, api.PassBuffer, api.PassImage}
	if len(scene.Passes) != len(expIndex) {
		t.Fatalf("expected %d passes; got %d", len(expIndex), len(scene.Passes))
	}
	for i, pass := range scene.Passes {
		if pass.Index != expIndex[i] || pass.Type != expType[i] {
			t.Errorf("pass %d: expected index %d type %s; got index %d type %s", i, expIndex[i], expType[i], pass.Index, pass.Type)
		}
		if !strings.Contains(pass.Program.Fragment, "shared_value") {
			t.Errorf("pass %d: expected common code in fragment stage", i)
		}
		if (pass.Buffer != nil) != (pass.Type == api.PassBuffer) {
			t.Errorf("pass %d: expected a feedback buffer only on buffer passes", i)
		}
	}
	if scene.Passes[1].Producer(0) != 0 || scene.Passes[2].Producer(0) != 1 {
		t.Fatalf("expected producers [0] and [1]; got %d and %d", scene.Passes[1].Producer(0), scene.Passes[2].Producer(0))
	}
	if scene.Title != "test (tester)" {
		t.Fatalf("unexpected title %q", scene.Title)
	}
}

func TestLoadScene_PipelineFormats(t *testing.T) {
	r, dev := newTestRenderer(t, 4, 4, DefaultOptions())
	scene, err := r.LoadScene(testShader(bufferPass("A", "solid"), imagePass("solid")))
	if err != nil {
		t.Fatal(err)
	}
	defer scene.Destroy()

	type descer interface{ Desc() gpu.PipelineDesc }
	buf := scene.Passes[0].Pipeline.(descer).Desc()
	img := scene.Passes[1].Pipeline.(descer).Desc()
	if buf.ColorFormat != gpu.FormatRGBA32F || buf.DepthFormat != gpu.FormatNone {
		t.Errorf("expected buffer pipeline RGBA32F without depth; got %s/%s", buf.ColorFormat, buf.DepthFormat)
	}
	if img.ColorFormat != dev.Surface().ColorFormat() || img.DepthFormat != dev.Surface().DepthFormat() {
		t.Errorf("expected image pipeline in surface formats; got %s/%s", img.ColorFormat, img.DepthFormat)
	}
	for _, d := range []gpu.PipelineDesc{buf, img} {
		if d.DepthTest || d.DepthWrite {
			t.Errorf("%s: expected depth test and write disabled", d.Label)
		}
		if d.NumTextures != gpu.NumChannels {
			t.Errorf("%s: expected %d textures; got %d", d.Label, gpu.NumChannels, d.NumTextures)
		}
	}
}

func TestLoadScene_FlipY(t *testing.T) {
	const flip = "texcoord.y = iResolution.y - texcoord.y"
	specs := []struct {
		platform gpu.Platform
		exp      bool
	}{
		{gpu.PlatformSoftware, false},
		{gpu.PlatformGL, false},
		{gpu.PlatformVulkan, true},
		{gpu.PlatformD3D12, true},
	}
	for _, spec := range specs {
		r, dev := newTestRenderer(t, 2, 2, DefaultOptions())
		dev.SetPlatform(spec.platform)
		scene, err := r.LoadScene(testShader(bufferPass("A", "solid"), imagePass("solid")))
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(scene.Passes[0].Program.Fragment, flip) {
			t.Errorf("%s: expected buffer pass never to flip", spec.platform)
		}
		if got := strings.Contains(scene.Passes[1].Program.Fragment, flip); got != spec.exp {
			t.Errorf("%s: expected image pass flip %t; got %t", spec.platform, spec.exp, got)
		}
		scene.Destroy()
	}
}

func TestLoadScene_CompileFailure(t *testing.T) {
	r, dev := newTestRenderer(t, 4, 4, DefaultOptions())
	baseline := dev.Live()

	_, err := r.LoadScene(testShader(
		bufferPass("A", "solid", ref("A", 0)),
		imagePass("broken", ref("A", 0)),
	))

	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LoadError; got %v", err)
	}
	if lerr.Pass != 1 || lerr.Slot != shader.SlotCode || lerr.Shader != "test (tester)" {
		t.Fatalf("expected failure in code slot of pass 1; got %+v", lerr)
	}
	var cerr *gpu.CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected wrapped CompileError; got %v", err)
	}
	if dev.Live() != baseline {
		t.Fatalf("expected partial scene to be released; %d objects live, %d expected", dev.Live(), baseline)
	}
}

func TestLoadScene_MissingEntryPoint(t *testing.T) {
	r, _ := newTestRenderer(t, 4, 4, DefaultOptions())
	_, err := r.LoadScene(testShader(api.RenderPass{Type: api.PassImage, Code: "void main() {}"}))
	if !errors.Is(err, shader.ErrMissingEntryPoint) {
		t.Fatalf("expected ErrMissingEntryPoint; got %v", err)
	}
}

func TestLoadScene_NoRenderablePasses(t *testing.T) {
	r, _ := newTestRenderer(t, 4, 4, DefaultOptions())
	_, err := r.LoadScene(testShader(api.RenderPass{Type: api.PassCommon, Code: "float f() { return 0.0; }"}))
	if !errors.Is(err, ErrNoRenderablePasses) {
		t.Fatalf("expected ErrNoRenderablePasses; got %v", err)
	}
}

func TestLoadScene_StrictLinking(t *testing.T) {
	specs := []struct {
		name   string
		shader *api.Shader
		exp    error
	}{
		{
			"unknown producer",
			testShader(imagePass("solid", ref("X", 0))),
			ErrUnknownProducer,
		},
		{
			"duplicate output",
			testShader(bufferPass("A", "solid"), bufferPass("A", "solid"), imagePass("solid")),
			ErrDuplicateOutput,
		},
		{
			"image producer",
			testShader(bufferPass("A", "solid", ref("image", 0)), imagePass("solid")),
			ErrProducerNotBuffer,
		},
	}
	for _, spec := range specs {
		r, dev := newTestRenderer(t, 4, 4, DefaultOptions())
		baseline := dev.Live()
		_, err := r.LoadScene(spec.shader)
		if !errors.Is(err, spec.exp) {
			t.Errorf("%s: expected %v; got %v", spec.name, spec.exp, err)
		}
		if dev.Live() != baseline {
			t.Errorf("%s: expected no leaked objects; %d live", spec.name, dev.Live())
		}
	}
}

func TestLoadScene_LenientLinking(t *testing.T) {
	opts := DefaultOptions()
	opts.StrictGraph = false
	r, _ := newTestRenderer(t, 4, 4, opts)

	scene, err := r.LoadScene(testShader(
		bufferPass("A", "solid"),
		bufferPass("A", "solid"),
		imagePass("solid", ref("A", 0), ref("X", 1), ref("image", 2)),
	))
	if err != nil {
		t.Fatal(err)
	}
	defer scene.Destroy()

	img := scene.Passes[2]
	if img.Producer(0) != 0 {
		t.Errorf("expected first declared producer to win; got %d", img.Producer(0))
	}
	if img.Producer(1) != -1 || img.Producer(2) != -1 {
		t.Errorf("expected unresolved references to be unlinked; got %d and %d", img.Producer(1), img.Producer(2))
	}
}
