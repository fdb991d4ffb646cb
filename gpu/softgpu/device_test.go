package softgpu

import (
	"errors"
	"testing"

	"github.com/richinsley/toygraph/gpu"
)

func solid(c [4]float32) Compiler {
	return func(gpu.PipelineDesc) (FragmentFunc, error) {
		return func(*FragmentContext) [4]float32 { return c }, nil
	}
}

func pipelineDesc(format gpu.Format, textures int) gpu.PipelineDesc {
	return gpu.PipelineDesc{
		Label:          "test",
		VertexSource:   "v",
		FragmentSource: "f",
		NumTextures:    textures,
		ColorFormat:    format,
	}
}

func TestDevice_DrawSurface(t *testing.T) {
	dev := New(4, 3, solid([4]float32{1, 0.5, 0, 1}))
	p, err := dev.CreatePipeline(pipelineDesc(gpu.FormatRGBA8, 0))
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Draw(gpu.DrawCall{Pipeline: p, Target: dev.Surface(), VertexCount: 3}); err != nil {
		t.Fatal(err)
	}
	img, err := dev.ReadPixels(dev.Surface())
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect.Dx() != 4 || img.Rect.Dy() != 3 {
		t.Fatalf("expected 4x3 readback; got %v", img.Rect)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if c := img.RGBAAt(x, y); c.R != 255 || c.G != 128 || c.B != 0 || c.A != 255 {
				t.Fatalf("pixel (%d,%d): expected (255,128,0,255); got %v", x, y, c)
			}
		}
	}
}

func TestDevice_ReadPixelsTopRowFirst(t *testing.T) {
	dev := New(1, 2, func(gpu.PipelineDesc) (FragmentFunc, error) {
		return func(ctx *FragmentContext) [4]float32 {
			// bottom row white, top row black
			if ctx.Coord[1] < 1 {
				return [4]float32{1, 1, 1, 1}
			}
			return [4]float32{0, 0, 0, 1}
		}, nil
	})
	p, _ := dev.CreatePipeline(pipelineDesc(gpu.FormatRGBA8, 0))
	if err := dev.Draw(gpu.DrawCall{Pipeline: p, Target: dev.Surface(), VertexCount: 3}); err != nil {
		t.Fatal(err)
	}
	img, _ := dev.ReadPixels(dev.Surface())
	if img.RGBAAt(0, 0).R != 0 || img.RGBAAt(0, 1).R != 255 {
		t.Fatalf("expected top row black and bottom row white; got %v %v", img.RGBAAt(0, 0), img.RGBAAt(0, 1))
	}
}

func TestDevice_DrawRejectsFeedbackHazard(t *testing.T) {
	dev := New(2, 2, nil)
	tex, _ := dev.CreateRenderTexture(2, 2, gpu.FormatRGBA32F)
	smp, _ := dev.CreateSampler(gpu.SamplerDesc{})
	p, _ := dev.CreatePipeline(pipelineDesc(gpu.FormatRGBA32F, 1))

	err := dev.Draw(gpu.DrawCall{
		Pipeline:    p,
		Target:      tex,
		Textures:    []gpu.Texture{tex},
		Samplers:    []gpu.Sampler{smp},
		VertexCount: 3,
	})
	if err == nil {
		t.Fatal("expected draw sampling its own target to fail")
	}
}

func TestDevice_DrawRejectsFormatMismatch(t *testing.T) {
	dev := New(2, 2, nil)
	p, _ := dev.CreatePipeline(pipelineDesc(gpu.FormatRGBA32F, 0))
	if err := dev.Draw(gpu.DrawCall{Pipeline: p, Target: dev.Surface(), VertexCount: 3}); err == nil {
		t.Fatal("expected float pipeline drawing into the surface to fail")
	}
}

func TestDevice_LiveObjects(t *testing.T) {
	dev := New(2, 2, nil)
	tex, _ := dev.CreateRenderTexture(2, 2, gpu.FormatRGBA32F)
	smp, _ := dev.CreateSampler(gpu.SamplerDesc{})
	p, _ := dev.CreatePipeline(pipelineDesc(gpu.FormatRGBA8, 0))
	if dev.Live() != 3 {
		t.Fatalf("expected 3 live objects; got %d", dev.Live())
	}
	dev.ReleaseTexture(tex)
	dev.ReleaseSampler(smp)
	dev.ReleasePipeline(p)
	if dev.Live() != 0 {
		t.Fatalf("expected 0 live objects; got %d", dev.Live())
	}

	if err := dev.Draw(gpu.DrawCall{Pipeline: p, Target: dev.Surface(), VertexCount: 3}); !errors.Is(err, ErrForeignObject) {
		t.Fatalf("expected ErrForeignObject drawing with a released pipeline; got %v", err)
	}
}

func TestDevice_ClearTexture(t *testing.T) {
	dev := New(2, 2, nil)
	tex, _ := dev.CreateRenderTexture(3, 2, gpu.FormatRGBA32F)
	if err := dev.ClearTexture(tex, [4]float32{}); err != nil {
		t.Fatal(err)
	}
	st := tex.(*Texture)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if c := st.At(0, x, y, 0); c != ([4]float32{}) {
				t.Fatalf("texel (%d,%d): expected zero; got %v", x, y, c)
			}
		}
	}
}

func TestFragmentContext_Sample(t *testing.T) {
	dev := New(1, 1, nil)
	tex, err := dev.CreateTexture(&gpu.Image{
		Kind:   gpu.Texture2D,
		Format: gpu.FormatR8,
		Width:  2,
		Height: 1,
		Faces:  []gpu.MipChain{{{0, 255}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	point, _ := dev.CreateSampler(gpu.SamplerDesc{Filter: gpu.FilterPoint, Wrap: gpu.WrapClamp})
	linear, _ := dev.CreateSampler(gpu.SamplerDesc{Filter: gpu.FilterLinear, Wrap: gpu.WrapClamp})

	ctx := &FragmentContext{
		textures: []*Texture{tex.(*Texture), tex.(*Texture)},
		samplers: []*Sampler{point.(*Sampler), linear.(*Sampler)},
	}
	if got := ctx.Sample(0, [2]float32{0.8, 0.5})[0]; got != 1 {
		t.Errorf("expected point sample 1; got %v", got)
	}
	if got := ctx.Sample(1, [2]float32{0.5, 0.5})[0]; got != 0.5 {
		t.Errorf("expected linear sample 0.5; got %v", got)
	}
	if got := ctx.Texel(0, 5, 0)[0]; got != 1 {
		t.Errorf("expected clamped texel 1; got %v", got)
	}
}
