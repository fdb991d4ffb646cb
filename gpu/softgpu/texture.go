package softgpu

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
	"github.com/richinsley/toygraph/gpu"
)

// Texture stores texels as RGBA float32, one slice per layer (cube face).
// Row 0 is the first row of the uploaded data, which for render targets is
// the bottom row of the framebuffer.
type Texture struct {
	kind   gpu.TextureKind
	format gpu.Format
	width  int
	height int
	depth  int
	levels int
	target bool

	data   [][][4]float32
	source []gpu.MipChain
}

func newTexture(kind gpu.TextureKind, format gpu.Format, width, height, depth, layers int) *Texture {
	t := &Texture{
		kind:   kind,
		format: format,
		width:  width,
		height: height,
		depth:  depth,
		levels: 1,
		data:   make([][][4]float32, layers),
	}
	for i := range t.data {
		t.data[i] = make([][4]float32, width*height*depth)
	}
	return t
}

func (t *Texture) Kind() gpu.TextureKind { return t.kind }
func (t *Texture) Format() gpu.Format    { return t.format }
func (t *Texture) Size() (int, int, int) { return t.width, t.height, t.depth }

// Levels returns the number of mip levels that were uploaded.
func (t *Texture) Levels() int { return t.levels }

// Layers returns 6 for cubemaps and 1 otherwise.
func (t *Texture) Layers() int { return len(t.data) }

// Data returns the bytes uploaded for a layer and mip level, or nil for
// render targets.
func (t *Texture) Data(layer, level int) []byte {
	if layer >= len(t.source) || level >= len(t.source[layer]) {
		return nil
	}
	return t.source[layer][level]
}

// At returns the texel at (x, y, z) of a layer.
func (t *Texture) At(layer, x, y, z int) [4]float32 {
	return t.data[layer][(z*t.height+y)*t.width+x]
}

func decodeTexel(format gpu.Format, data []byte, i int) [4]float32 {
	switch format {
	case gpu.FormatR8:
		return [4]float32{float32(data[i]) / 255, 0, 0, 1}
	case gpu.FormatRGBA8:
		p := data[i*4 : i*4+4]
		return [4]float32{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
	case gpu.FormatRGBA32F:
		var c [4]float32
		for k := range c {
			c[k] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*16+k*4:]))
		}
		return c
	}
	return [4]float32{}
}

// FragmentContext carries the inputs of one fragment invocation.
type FragmentContext struct {
	// Coord is gl_FragCoord.xy: pixel centers, origin at the bottom left.
	Coord    [2]float32
	Uniforms gpu.Uniforms

	textures []*Texture
	samplers []*Sampler
}

// Texture returns the texture bound to a channel.
func (c *FragmentContext) Texture(channel int) *Texture { return c.textures[channel] }

// Texel fetches layer 0 of a channel at integer coordinates, like texelFetch
// with clamping.
func (c *FragmentContext) Texel(channel, x, y int) [4]float32 {
	t := c.textures[channel]
	x = clampInt(x, 0, t.width-1)
	y = clampInt(y, 0, t.height-1)
	return t.At(0, x, y, 0)
}

// Sample filters layer 0 of a 2D channel at normalized coordinates using
// the channel's sampler. Trilinear filtering samples level 0 only.
func (c *FragmentContext) Sample(channel int, uv [2]float32) [4]float32 {
	t := c.textures[channel]
	desc := c.samplers[channel].desc

	fx := uv[0]*float32(t.width) - 0.5
	fy := uv[1]*float32(t.height) - 0.5
	if desc.Filter == gpu.FilterPoint {
		x := wrap(int(math32.Floor(fx+0.5)), t.width, desc.Wrap)
		y := wrap(int(math32.Floor(fy+0.5)), t.height, desc.Wrap)
		return t.At(0, x, y, 0)
	}

	x0, y0 := math32.Floor(fx), math32.Floor(fy)
	ax, ay := fx-x0, fy-y0
	ix, iy := int(x0), int(y0)
	var out [4]float32
	for _, s := range [4]struct {
		dx, dy int
		w      float32
	}{
		{0, 0, (1 - ax) * (1 - ay)},
		{1, 0, ax * (1 - ay)},
		{0, 1, (1 - ax) * ay},
		{1, 1, ax * ay},
	} {
		texel := t.At(0, wrap(ix+s.dx, t.width, desc.Wrap), wrap(iy+s.dy, t.height, desc.Wrap), 0)
		for k := range out {
			out[k] += texel[k] * s.w
		}
	}
	return out
}

func wrap(i, n int, mode gpu.Wrap) int {
	if mode == gpu.WrapClamp {
		return clampInt(i, 0, n-1)
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
