// Package gpu describes the narrow slice of a graphics API the render graph
// needs: textures, samplers, two-stage pipelines, render targets, full-screen
// draws and presentation. Backends live in their own packages.
package gpu

import (
	"fmt"
	"image"
)

// NumChannels is the fixed number of texture inputs every pass declares.
const NumChannels = 4

// TextureKind is the dimensionality of a texture, used to type the channel
// declarations of a composed shader.
type TextureKind int

const (
	Texture2D TextureKind = iota
	TextureCube
	Texture3D
)

func (k TextureKind) String() string {
	switch k {
	case TextureCube:
		return "Cube"
	case Texture3D:
		return "3D"
	default:
		return "2D"
	}
}

// Format is a texel format.
type Format int

const (
	FormatNone Format = iota
	FormatR8
	FormatRGBA8
	FormatRGBA32F
	FormatDepth24
)

// BytesPerTexel returns the size of one texel, or 0 for formats without a CPU layout.
func (f Format) BytesPerTexel() int {
	switch f {
	case FormatR8:
		return 1
	case FormatRGBA8:
		return 4
	case FormatRGBA32F:
		return 16
	}
	return 0
}

func (f Format) String() string {
	switch f {
	case FormatR8:
		return "R8"
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA32F:
		return "RGBA32F"
	case FormatDepth24:
		return "Depth24"
	}
	return "None"
}

type Filter int

const (
	FilterLinear Filter = iota
	FilterPoint
	FilterTrilinear
)

type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClamp
)

// SamplerDesc configures a sampler object. The zero value is linear/repeat.
type SamplerDesc struct {
	Filter Filter
	Wrap   Wrap
}

// MipChain holds one texture layer, level 0 first.
type MipChain [][]byte

// Image is decoded texel data ready for upload. Faces has one entry for 2D
// and 3D textures and six entries for cubemaps.
type Image struct {
	Kind   TextureKind
	Format Format
	Width  int
	Height int
	Depth  int
	Faces  []MipChain
}

// HasMipmaps reports whether the image carries more than the base level.
func (im *Image) HasMipmaps() bool {
	return len(im.Faces) > 0 && len(im.Faces[0]) > 1
}

// Validate checks that the face and level data match the declared dimensions.
func (im *Image) Validate() error {
	faces := 1
	if im.Kind == TextureCube {
		faces = 6
	}
	if len(im.Faces) != faces {
		return fmt.Errorf("gpu: %s image needs %d faces; got %d", im.Kind, faces, len(im.Faces))
	}
	bpt := im.Format.BytesPerTexel()
	if bpt == 0 {
		return fmt.Errorf("gpu: format %s cannot be uploaded", im.Format)
	}
	depth := im.Depth
	if im.Kind != Texture3D {
		depth = 1
	}
	for f, chain := range im.Faces {
		if len(chain) == 0 {
			return fmt.Errorf("gpu: face %d has no data", f)
		}
		for level, data := range chain {
			w, h, d := MipSize(im.Width, level), MipSize(im.Height, level), MipSize(depth, level)
			if len(data) != w*h*d*bpt {
				return fmt.Errorf("gpu: face %d level %d has %d bytes; expected %d", f, level, len(data), w*h*d*bpt)
			}
		}
	}
	return nil
}

// MipSize returns the extent of a dimension at the given mip level.
func MipSize(size, level int) int {
	size >>= level
	if size < 1 {
		return 1
	}
	return size
}

// Texture is a sampled texture. Render textures created with
// Device.CreateRenderTexture are also valid draw targets.
type Texture interface {
	Kind() TextureKind
	Format() Format
	Size() (width, height, depth int)
}

type Sampler interface {
	Desc() SamplerDesc
}

// Pipeline is a compiled vertex+fragment program with its fixed state.
type Pipeline interface {
	Label() string
}

// Surface is the presentation target.
type Surface interface {
	Size() (width, height int)
	ColorFormat() Format
	DepthFormat() Format
}

// PipelineDesc describes a two-stage pipeline. Textures and samplers occupy
// slots 0..NumTextures-1 of the fragment stage and the uniform block slot 0.
type PipelineDesc struct {
	Label          string
	VertexSource   string
	FragmentSource string
	NumTextures    int
	ColorFormat    Format
	DepthFormat    Format
	DepthTest      bool
	DepthWrite     bool
}

// DrawCall is one full-screen draw. Target is either the Surface or a render texture.
type DrawCall struct {
	Pipeline    Pipeline
	Target      interface{}
	Uniforms    *Uniforms
	Textures    []Texture
	Samplers    []Sampler
	VertexCount int
}

// Device is a graphics backend.
type Device interface {
	Platform() Platform
	Dialect() ShaderDialect

	CreateSampler(desc SamplerDesc) (Sampler, error)
	CreateTexture(img *Image) (Texture, error)
	CreateRenderTexture(width, height int, format Format) (Texture, error)
	ClearTexture(tex Texture, color [4]float32) error
	CreatePipeline(desc PipelineDesc) (Pipeline, error)

	ReleaseSampler(s Sampler)
	ReleaseTexture(t Texture)
	ReleasePipeline(p Pipeline)

	Surface() Surface
	Draw(call DrawCall) error
	Present() error
	// Finish blocks until all submitted work has completed.
	Finish() error
	// ReadPixels returns the contents of the surface or of an RGBA render
	// texture, top row first.
	ReadPixels(target interface{}) (*image.RGBA, error)
}
