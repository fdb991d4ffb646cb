// Package inputs classifies the declared inputs of a render pass and turns
// them into channel bindings: static textures loaded from media, references
// to another pass's output, or nothing.
package inputs

import (
	"fmt"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/gpu"
)

type BindingKind int

const (
	// Unbound channels are fed the default texture at draw time.
	Unbound BindingKind = iota
	// Static channels own a texture uploaded once at load time.
	Static
	// PassRef channels read the front buffer of the producing pass.
	PassRef
)

func (k BindingKind) String() string {
	switch k {
	case Static:
		return "static"
	case PassRef:
		return "pass"
	}
	return "unbound"
}

// Binding is what one channel of a pass is wired to.
type Binding struct {
	Kind BindingKind
	// TextureKind types the channel declaration in the composed shader.
	TextureKind gpu.TextureKind
	// Source is the media path of a static binding.
	Source string
	// ProducerID is the output id a PassRef binding reads.
	ProducerID string

	SamplerDesc gpu.SamplerDesc
	Texture     gpu.Texture
	Sampler     gpu.Sampler
}

// Channels holds the bindings of all channels of a pass, indexed by channel.
type Channels [gpu.NumChannels]Binding

// Kinds returns the texture kind of every channel.
func (c *Channels) Kinds() [gpu.NumChannels]gpu.TextureKind {
	var kinds [gpu.NumChannels]gpu.TextureKind
	for i, b := range c {
		kinds[i] = b.TextureKind
	}
	return kinds
}

// Release frees the textures and samplers owned by the bindings.
func (c *Channels) Release(dev gpu.Device) {
	for i := range c {
		c[i].release(dev)
	}
}

func (b *Binding) release(dev gpu.Device) {
	if b.Texture != nil {
		dev.ReleaseTexture(b.Texture)
	}
	if b.Sampler != nil {
		dev.ReleaseSampler(b.Sampler)
	}
	*b = Binding{}
}

// SamplerDesc maps the sampler settings of a description input. Unknown or
// missing values fall back to linear filtering and repeat wrapping.
func SamplerDesc(s api.Sampler) gpu.SamplerDesc {
	desc := gpu.SamplerDesc{Filter: gpu.FilterLinear, Wrap: gpu.WrapRepeat}
	if s.Wrap == "clamp" {
		desc.Wrap = gpu.WrapClamp
	}
	switch s.Filter {
	case "point", "nearest":
		desc.Filter = gpu.FilterPoint
	case "mipmap":
		desc.Filter = gpu.FilterTrilinear
	}
	return desc
}

type Status int

const (
	Resolved Status = iota
	// Partial inputs are bound but some of their data is missing.
	Partial
	// Failed inputs leave their channel unbound.
	Failed
)

func (s Status) String() string {
	switch s {
	case Partial:
		return "partial"
	case Failed:
		return "failed"
	}
	return "resolved"
}

// Result reports how one declared input was resolved.
type Result struct {
	Input   int
	Channel int
	Status  Status
	// Gaps names the resources that were missing from a Partial input.
	Gaps []string
	Err  error
}

// DecodeError reports a media resource that could not be opened or decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("inputs: failed to load %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
