// Package softgpu is a CPU implementation of gpu.Device. Fragment stages are
// Go functions produced by a Compiler from the pipeline description, so the
// render graph can be exercised without a GPU or a window.
package softgpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"github.com/richinsley/toygraph/gpu"
)

var ErrForeignObject = errors.New("softgpu: object was not created by this device or was released")

// FragmentFunc computes the color of one fragment.
type FragmentFunc func(ctx *FragmentContext) [4]float32

// Compiler turns a pipeline description into a fragment function. It plays
// the part of the shader compiler and may reject the description.
type Compiler func(desc gpu.PipelineDesc) (FragmentFunc, error)

// Device renders with FragmentFuncs on the CPU.
type Device struct {
	compile  Compiler
	platform gpu.Platform
	dialect  gpu.ShaderDialect
	surface  *Surface

	live     map[interface{}]struct{}
	draws    int
	presents int
	finishes int
	drawErr  error
}

// New creates a device with a presentation surface of the given size. A nil
// compile yields pipelines that output transparent black.
func New(width, height int, compile Compiler) *Device {
	if compile == nil {
		compile = func(gpu.PipelineDesc) (FragmentFunc, error) {
			return func(*FragmentContext) [4]float32 { return [4]float32{} }, nil
		}
	}
	d := &Device{
		compile:  compile,
		platform: gpu.PlatformSoftware,
		dialect:  gpu.DialectSeparate,
		live:     make(map[interface{}]struct{}),
	}
	d.surface = &Surface{dev: d}
	d.surface.tex = newTexture(gpu.Texture2D, gpu.FormatRGBA8, width, height, 1, 1)
	return d
}

// SetPlatform changes the reported platform, which drives y flipping of image passes.
func (d *Device) SetPlatform(p gpu.Platform) { d.platform = p }

func (d *Device) SetDialect(dialect gpu.ShaderDialect) { d.dialect = dialect }

// Resize changes the size of the presentation surface and clears it.
func (d *Device) Resize(width, height int) {
	d.surface.tex = newTexture(gpu.Texture2D, gpu.FormatRGBA8, width, height, 1, 1)
}

// FailDraws makes every following Draw return err. A nil err restores normal operation.
func (d *Device) FailDraws(err error) { d.drawErr = err }

// Live returns the number of textures, samplers and pipelines not yet released.
func (d *Device) Live() int { return len(d.live) }

// Draws returns the number of successful draws.
func (d *Device) Draws() int { return d.draws }

// Presents returns the number of presented frames.
func (d *Device) Presents() int { return d.presents }

// Finishes returns how many times Finish was called.
func (d *Device) Finishes() int { return d.finishes }

func (d *Device) Platform() gpu.Platform     { return d.platform }
func (d *Device) Dialect() gpu.ShaderDialect { return d.dialect }
func (d *Device) Surface() gpu.Surface       { return d.surface }
func (d *Device) Present() error             { d.presents++; return nil }
func (d *Device) Finish() error              { d.finishes++; return nil }

func (d *Device) isLive(obj interface{}) bool {
	_, ok := d.live[obj]
	return ok
}

func (d *Device) CreateSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	s := &Sampler{desc: desc}
	d.live[s] = struct{}{}
	return s, nil
}

func (d *Device) CreateTexture(img *gpu.Image) (gpu.Texture, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	layers := len(img.Faces)
	depth := 1
	if img.Kind == gpu.Texture3D {
		depth = img.Depth
	}
	t := newTexture(img.Kind, img.Format, img.Width, img.Height, depth, layers)
	t.source = img.Faces
	t.levels = len(img.Faces[0])

	// Only level 0 is sampled.
	n := img.Width * img.Height * depth
	for layer, chain := range img.Faces {
		base := chain[0]
		for i := 0; i < n; i++ {
			t.data[layer][i] = decodeTexel(img.Format, base, i)
		}
	}
	d.live[t] = struct{}{}
	return t, nil
}

func (d *Device) CreateRenderTexture(width, height int, format gpu.Format) (gpu.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("softgpu: invalid render texture size %dx%d", width, height)
	}
	if format != gpu.FormatRGBA8 && format != gpu.FormatRGBA32F {
		return nil, fmt.Errorf("softgpu: unsupported render texture format %s", format)
	}
	t := newTexture(gpu.Texture2D, format, width, height, 1, 1)
	t.target = true
	// Fresh render textures hold garbage until cleared.
	for i := range t.data[0] {
		t.data[0][i] = [4]float32{math32.NaN(), 1, 0, 1}
	}
	d.live[t] = struct{}{}
	return t, nil
}

func (d *Device) ClearTexture(tex gpu.Texture, color [4]float32) error {
	t, ok := tex.(*Texture)
	if !ok || !d.isLive(t) {
		return ErrForeignObject
	}
	for _, layer := range t.data {
		for i := range layer {
			layer[i] = color
		}
	}
	return nil
}

func (d *Device) CreatePipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	if desc.VertexSource == "" || desc.FragmentSource == "" {
		return nil, &gpu.CompileError{Label: desc.Label, Stage: "link", Log: "missing shader stage"}
	}
	fn, err := d.compile(desc)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{desc: desc, fn: fn}
	d.live[p] = struct{}{}
	return p, nil
}

func (d *Device) ReleaseSampler(s gpu.Sampler)   { d.release(s) }
func (d *Device) ReleaseTexture(t gpu.Texture)   { d.release(t) }
func (d *Device) ReleasePipeline(p gpu.Pipeline) { d.release(p) }

func (d *Device) release(obj interface{}) {
	delete(d.live, obj)
}

func (d *Device) Draw(call gpu.DrawCall) error {
	if d.drawErr != nil {
		return d.drawErr
	}
	p, ok := call.Pipeline.(*Pipeline)
	if !ok || !d.isLive(p) {
		return fmt.Errorf("draw: pipeline: %w", ErrForeignObject)
	}
	target, err := d.target(call.Target)
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	if target.format != p.desc.ColorFormat {
		return fmt.Errorf("softgpu: pipeline %s renders %s into a %s target", p.desc.Label, p.desc.ColorFormat, target.format)
	}
	if len(call.Textures) != p.desc.NumTextures || len(call.Samplers) != p.desc.NumTextures {
		return fmt.Errorf("softgpu: pipeline %s expects %d textures; got %d textures and %d samplers",
			p.desc.Label, p.desc.NumTextures, len(call.Textures), len(call.Samplers))
	}
	if call.VertexCount != 3 {
		return fmt.Errorf("softgpu: full-screen draw needs 3 vertices; got %d", call.VertexCount)
	}

	ctx := &FragmentContext{
		textures: make([]*Texture, len(call.Textures)),
		samplers: make([]*Sampler, len(call.Samplers)),
	}
	if call.Uniforms != nil {
		ctx.Uniforms = *call.Uniforms
	}
	for i, tex := range call.Textures {
		t, ok := tex.(*Texture)
		if !ok || !d.isLive(t) {
			return fmt.Errorf("draw: texture %d: %w", i, ErrForeignObject)
		}
		if t == target {
			return fmt.Errorf("softgpu: texture %d is also the render target", i)
		}
		ctx.textures[i] = t
	}
	for i, smp := range call.Samplers {
		s, ok := smp.(*Sampler)
		if !ok || !d.isLive(s) {
			return fmt.Errorf("draw: sampler %d: %w", i, ErrForeignObject)
		}
		ctx.samplers[i] = s
	}

	out := target.data[0]
	for y := 0; y < target.height; y++ {
		for x := 0; x < target.width; x++ {
			ctx.Coord = [2]float32{float32(x) + 0.5, float32(y) + 0.5}
			c := p.fn(ctx)
			if target.format == gpu.FormatRGBA8 {
				for k := range c {
					c[k] = quantize(c[k])
				}
			}
			out[y*target.width+x] = c
		}
	}
	d.draws++
	return nil
}

func (d *Device) target(obj interface{}) (*Texture, error) {
	switch t := obj.(type) {
	case *Surface:
		if t != d.surface {
			return nil, ErrForeignObject
		}
		return t.tex, nil
	case *Texture:
		if !d.isLive(t) {
			return nil, ErrForeignObject
		}
		if !t.target {
			return nil, errors.New("softgpu: texture is not a render target")
		}
		return t, nil
	}
	return nil, fmt.Errorf("softgpu: invalid render target %T", obj)
}

// ReadPixels returns the target contents top row first, clamped to 8 bits.
func (d *Device) ReadPixels(target interface{}) (*image.RGBA, error) {
	t, err := d.target(target)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	for y := 0; y < t.height; y++ {
		row := t.height - 1 - y
		for x := 0; x < t.width; x++ {
			c := t.data[0][row*t.width+x]
			o := img.PixOffset(x, y)
			for k := 0; k < 4; k++ {
				img.Pix[o+k] = uint8(math32.Floor(clamp01(c[k])*255 + 0.5))
			}
		}
	}
	return img, nil
}

// Surface is the presentation target of a Device.
type Surface struct {
	dev *Device
	tex *Texture
}

func (s *Surface) Size() (int, int)        { return s.tex.width, s.tex.height }
func (s *Surface) ColorFormat() gpu.Format { return gpu.FormatRGBA8 }
func (s *Surface) DepthFormat() gpu.Format { return gpu.FormatDepth24 }

// Pixel returns the stored color at (x, y), y counted from the bottom row.
func (s *Surface) Pixel(x, y int) [4]float32 { return s.tex.data[0][y*s.tex.width+x] }

type Sampler struct {
	desc gpu.SamplerDesc
}

func (s *Sampler) Desc() gpu.SamplerDesc { return s.desc }

type Pipeline struct {
	desc gpu.PipelineDesc
	fn   FragmentFunc
}

func (p *Pipeline) Label() string { return p.desc.Label }

// Desc returns the description the pipeline was created from.
func (p *Pipeline) Desc() gpu.PipelineDesc { return p.desc }

func quantize(v float32) float32 {
	return math32.Floor(clamp01(v)*255+0.5) / 255
}

func clamp01(v float32) float32 {
	if math32.IsNaN(v) {
		return 0
	}
	return math32.Max(0, math32.Min(1, v))
}
