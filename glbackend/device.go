// Package glbackend implements gpu.Device on desktop OpenGL 4.1 core. Shader
// stages arrive in the WebGL2 dialect and are translated to GLSL 4.10 before
// compilation.
package glbackend

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/toygraph/gpu"
	"github.com/richinsley/toygraph/graphics"
	"github.com/richinsley/toygraph/log"
)

var logger = log.New("glbackend")

var _ gpu.Device = (*Device)(nil)

var ErrForeignObject = errors.New("glbackend: object was not created by this device")

var (
	glInitOnce sync.Once
	glInitErr  error
)

// Device renders through the GL context owned by a graphics.Context. All
// methods must be called from the thread the context is current on.
type Device struct {
	ctx     graphics.Context
	vao     uint32
	ubo     uint32
	surface *Surface
}

// Surface is either the default framebuffer of the window or, for devices
// made by NewOffscreen, an RGBA8 framebuffer object of a fixed size.
type Surface struct {
	ctx graphics.Context

	offscreen     bool
	fbo           uint32
	color, depth  uint32
	width, height int
}

func (s *Surface) Size() (int, int) {
	if s.offscreen {
		return s.width, s.height
	}
	return s.ctx.GetFramebufferSize()
}

func (s *Surface) ColorFormat() gpu.Format { return gpu.FormatRGBA8 }
func (s *Surface) DepthFormat() gpu.Format { return gpu.FormatDepth24 }

// New makes ctx current, loads the GL entry points and creates the empty
// vertex array used by every full-screen draw. The Parameters uniform block
// is fed from a buffer bound to slot 0.
func New(ctx graphics.Context) (*Device, error) {
	ctx.MakeCurrent()
	glInitOnce.Do(func() {
		glInitErr = gl.Init()
	})
	if glInitErr != nil {
		return nil, fmt.Errorf("glbackend: gl.Init failed: %w", glInitErr)
	}
	logger.Infof("OpenGL %s (%s)", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))

	d := &Device{ctx: ctx, surface: &Surface{ctx: ctx}}
	gl.GenVertexArrays(1, &d.vao)

	gl.GenBuffers(1, &d.ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, d.ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, gpu.UniformBlockSize, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, parametersBinding, d.ubo)
	if err := checkError("create uniform buffer"); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// NewOffscreen is New with a surface that lives in a framebuffer object of
// width x height instead of the window. The window only provides the
// context and may stay hidden; reads of the surface are well defined
// whatever the window or display scale.
func NewOffscreen(ctx graphics.Context, width, height int) (*Device, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("glbackend: invalid offscreen size %dx%d", width, height)
	}
	d, err := New(ctx)
	if err != nil {
		return nil, err
	}

	s := &Surface{ctx: ctx, offscreen: true, width: width, height: height}
	gl.GenFramebuffers(1, &s.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)
	gl.GenTextures(1, &s.color)
	gl.BindTexture(gl.TEXTURE_2D, s.color)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, s.color, 0)
	gl.GenRenderbuffers(1, &s.depth)
	gl.BindRenderbuffer(gl.RENDERBUFFER, s.depth)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, s.depth)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	d.surface = s
	if status != gl.FRAMEBUFFER_COMPLETE {
		d.Close()
		return nil, fmt.Errorf("glbackend: offscreen framebuffer incomplete: 0x%04x", status)
	}
	logger.Infof("rendering offscreen at %dx%d", width, height)
	return d, nil
}

func (d *Device) Platform() gpu.Platform     { return gpu.PlatformGL }
func (d *Device) Dialect() gpu.ShaderDialect { return gpu.DialectWebGL2 }
func (d *Device) Surface() gpu.Surface       { return d.surface }

// Close releases the vertex array, the uniform buffer and an offscreen
// surface. Objects created by the device must be released by their owners
// beforehand.
func (d *Device) Close() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
	if d.ubo != 0 {
		gl.DeleteBuffers(1, &d.ubo)
		d.ubo = 0
	}
	if s := d.surface; s.offscreen {
		if s.fbo != 0 {
			gl.DeleteFramebuffers(1, &s.fbo)
			s.fbo = 0
		}
		if s.color != 0 {
			gl.DeleteTextures(1, &s.color)
			s.color = 0
		}
		if s.depth != 0 {
			gl.DeleteRenderbuffers(1, &s.depth)
			s.depth = 0
		}
	}
}

// Present swaps the window buffers. An offscreen surface is only flushed.
func (d *Device) Present() error {
	if d.surface.offscreen {
		gl.Flush()
		return checkError("present")
	}
	d.ctx.SwapBuffers()
	return nil
}

func (d *Device) Finish() error {
	gl.Finish()
	return checkError("finish")
}

func (d *Device) Draw(call gpu.DrawCall) error {
	p, ok := call.Pipeline.(*Pipeline)
	if !ok || p.program == 0 {
		return ErrForeignObject
	}
	if call.VertexCount != 3 {
		return fmt.Errorf("glbackend: full-screen draw needs 3 vertices; got %d", call.VertexCount)
	}
	if len(call.Textures) != p.desc.NumTextures || len(call.Samplers) != p.desc.NumTextures {
		return fmt.Errorf("glbackend: pipeline %q needs %d textures and samplers; got %d and %d",
			p.desc.Label, p.desc.NumTextures, len(call.Textures), len(call.Samplers))
	}

	var fbo uint32
	var width, height int
	switch target := call.Target.(type) {
	case *Surface:
		if target != d.surface {
			return ErrForeignObject
		}
		fbo = target.fbo
		width, height = target.Size()
		if p.desc.ColorFormat != target.ColorFormat() {
			return fmt.Errorf("glbackend: pipeline %q writes %s but the surface is %s", p.desc.Label, p.desc.ColorFormat, target.ColorFormat())
		}
	case *Texture:
		if target.fbo == 0 {
			return fmt.Errorf("glbackend: texture is not a render target")
		}
		if p.desc.ColorFormat != target.format {
			return fmt.Errorf("glbackend: pipeline %q writes %s but the target is %s", p.desc.Label, p.desc.ColorFormat, target.format)
		}
		fbo, width, height = target.fbo, target.width, target.height
	default:
		return ErrForeignObject
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Viewport(0, 0, int32(width), int32(height))
	if p.desc.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(p.desc.DepthWrite)

	gl.UseProgram(p.program)
	if call.Uniforms != nil && p.block != gl.INVALID_INDEX {
		data := call.Uniforms.Std140()
		gl.BindBuffer(gl.UNIFORM_BUFFER, d.ubo)
		gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(data), gl.Ptr(data))
		gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	}
	for i := 0; i < p.desc.NumTextures; i++ {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		tex, ok := call.Textures[i].(*Texture)
		if !ok || tex.id == 0 {
			return ErrForeignObject
		}
		if call.Target == call.Textures[i] {
			return fmt.Errorf("glbackend: texture %d is also the draw target", i)
		}
		smp, ok := call.Samplers[i].(*Sampler)
		if !ok || smp.id == 0 {
			return ErrForeignObject
		}
		gl.BindTexture(tex.target, tex.id)
		gl.BindSampler(uint32(i), smp.id)
	}

	gl.BindVertexArray(d.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(call.VertexCount))
	gl.BindVertexArray(0)
	return checkError("draw " + p.desc.Label)
}

func (d *Device) ReadPixels(target interface{}) (*image.RGBA, error) {
	var fbo uint32
	var width, height int
	switch t := target.(type) {
	case *Surface:
		fbo = t.fbo
		width, height = t.Size()
	case *Texture:
		if t.fbo == 0 {
			return nil, fmt.Errorf("glbackend: texture is not a render target")
		}
		fbo, width, height = t.fbo, t.width, t.height
	default:
		return nil, ErrForeignObject
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	if err := checkError("read pixels"); err != nil {
		return nil, err
	}
	flipRows(img)
	return img, nil
}

// flipRows converts GL's bottom-up row order to image.RGBA's top-down order.
func flipRows(img *image.RGBA) {
	h := img.Rect.Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}

func checkError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("glbackend: %s: GL error 0x%04x", op, code)
	}
	return nil
}
