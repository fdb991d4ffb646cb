package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/toygraph/gpu"
)

// Texture is a GL texture object. Render textures own a framebuffer object.
type Texture struct {
	id     uint32
	fbo    uint32
	target uint32
	kind   gpu.TextureKind
	format gpu.Format
	width  int
	height int
	depth  int
}

func (t *Texture) Kind() gpu.TextureKind { return t.kind }
func (t *Texture) Format() gpu.Format    { return t.format }
func (t *Texture) Size() (int, int, int) { return t.width, t.height, t.depth }

type Sampler struct {
	id   uint32
	desc gpu.SamplerDesc
}

func (s *Sampler) Desc() gpu.SamplerDesc { return s.desc }

// pixelFormat returns the internal format, pixel format and component type
// used to upload f.
func pixelFormat(f gpu.Format) (internal int32, format, xtype uint32, err error) {
	switch f {
	case gpu.FormatR8:
		return gl.R8, gl.RED, gl.UNSIGNED_BYTE, nil
	case gpu.FormatRGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	case gpu.FormatRGBA32F:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT, nil
	}
	return 0, 0, 0, fmt.Errorf("glbackend: unsupported texture format %s", f)
}

func textureTarget(k gpu.TextureKind) uint32 {
	switch k {
	case gpu.TextureCube:
		return gl.TEXTURE_CUBE_MAP
	case gpu.Texture3D:
		return gl.TEXTURE_3D
	}
	return gl.TEXTURE_2D
}

func (d *Device) CreateTexture(img *gpu.Image) (gpu.Texture, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	internal, format, xtype, err := pixelFormat(img.Format)
	if err != nil {
		return nil, err
	}
	t := &Texture{
		target: textureTarget(img.Kind),
		kind:   img.Kind,
		format: img.Format,
		width:  img.Width,
		height: img.Height,
		depth:  1,
	}
	if img.Kind == gpu.Texture3D {
		t.depth = img.Depth
	}

	gl.GenTextures(1, &t.id)
	gl.BindTexture(t.target, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	levels := len(img.Faces[0])
	for face, chain := range img.Faces {
		for level, data := range chain {
			w := int32(gpu.MipSize(t.width, level))
			h := int32(gpu.MipSize(t.height, level))
			switch img.Kind {
			case gpu.Texture3D:
				dd := int32(gpu.MipSize(t.depth, level))
				gl.TexImage3D(t.target, int32(level), internal, w, h, dd, 0, format, xtype, gl.Ptr(data))
			case gpu.TextureCube:
				gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), int32(level), internal, w, h, 0, format, xtype, gl.Ptr(data))
			default:
				gl.TexImage2D(t.target, int32(level), internal, w, h, 0, format, xtype, gl.Ptr(data))
			}
		}
	}
	gl.TexParameteri(t.target, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(t.target, gl.TEXTURE_MAX_LEVEL, int32(levels-1))
	gl.BindTexture(t.target, 0)

	if err := checkError("create texture"); err != nil {
		gl.DeleteTextures(1, &t.id)
		return nil, err
	}
	return t, nil
}

func (d *Device) CreateRenderTexture(width, height int, format gpu.Format) (gpu.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("glbackend: invalid render texture size %dx%d", width, height)
	}
	internal, pf, xtype, err := pixelFormat(format)
	if err != nil {
		return nil, err
	}
	t := &Texture{
		target: gl.TEXTURE_2D,
		kind:   gpu.Texture2D,
		format: format,
		width:  width,
		height: height,
		depth:  1,
	}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(width), int32(height), 0, pf, xtype, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.id, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		d.ReleaseTexture(t)
		return nil, fmt.Errorf("glbackend: framebuffer incomplete: 0x%04x", status)
	}
	return t, nil
}

func (d *Device) ClearTexture(tex gpu.Texture, color [4]float32) error {
	t, ok := tex.(*Texture)
	if !ok || t.id == 0 {
		return ErrForeignObject
	}
	if t.fbo == 0 {
		return fmt.Errorf("glbackend: texture is not a render target")
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, int32(t.width), int32(t.height))
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return checkError("clear texture")
}

func (d *Device) ReleaseTexture(tex gpu.Texture) {
	t, ok := tex.(*Texture)
	if !ok {
		return
	}
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

// samplerParams returns the GL min filter, mag filter and wrap mode for desc.
func samplerParams(desc gpu.SamplerDesc) (minFilter, magFilter, wrap int32) {
	switch desc.Filter {
	case gpu.FilterPoint:
		minFilter, magFilter = gl.NEAREST, gl.NEAREST
	case gpu.FilterTrilinear:
		minFilter, magFilter = gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	default:
		minFilter, magFilter = gl.LINEAR, gl.LINEAR
	}
	wrap = gl.REPEAT
	if desc.Wrap == gpu.WrapClamp {
		wrap = gl.CLAMP_TO_EDGE
	}
	return minFilter, magFilter, wrap
}

func (d *Device) CreateSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	s := &Sampler{desc: desc}
	minFilter, magFilter, wrap := samplerParams(desc)
	gl.GenSamplers(1, &s.id)
	gl.SamplerParameteri(s.id, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.SamplerParameteri(s.id, gl.TEXTURE_MAG_FILTER, magFilter)
	gl.SamplerParameteri(s.id, gl.TEXTURE_WRAP_S, wrap)
	gl.SamplerParameteri(s.id, gl.TEXTURE_WRAP_T, wrap)
	gl.SamplerParameteri(s.id, gl.TEXTURE_WRAP_R, wrap)
	if err := checkError("create sampler"); err != nil {
		gl.DeleteSamplers(1, &s.id)
		return nil, err
	}
	return s, nil
}

func (d *Device) ReleaseSampler(smp gpu.Sampler) {
	if s, ok := smp.(*Sampler); ok && s.id != 0 {
		gl.DeleteSamplers(1, &s.id)
		s.id = 0
	}
}
