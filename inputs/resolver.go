package inputs

import (
	"errors"
	"fmt"
	"image"
	"path"
	"strings"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/gpu"
	"github.com/richinsley/toygraph/log"
	"github.com/richinsley/toygraph/media"
)

var (
	ErrInvalidChannel = errors.New("inputs: channel index out of range")
	ErrUnsupported    = errors.New("inputs: unsupported input type")
	ErrReplaced       = errors.New("inputs: replaced by a later input on the same channel")
)

var logger = log.New("inputs")

// Resolver loads the static inputs of passes onto a device.
type Resolver struct {
	Device gpu.Device
	Media  media.Source
}

// Resolve binds every declared input to its channel. Inputs without an
// explicit channel use their position. Failures never abort resolution: the
// affected channel stays unbound and the failure is reported in the results.
// When two inputs name the same channel the later one wins and the earlier
// result is marked Failed with ErrReplaced.
// The caller owns the returned bindings and frees them with Channels.Release.
func (r *Resolver) Resolve(ins []api.Input) (Channels, []Result) {
	var (
		channels Channels
		results  = make([]Result, 0, len(ins))
		owner    [gpu.NumChannels]int
	)
	for ch := range owner {
		owner[ch] = -1
	}
	for i, in := range ins {
		ch := in.ChannelIndex(i)
		res := Result{Input: i, Channel: ch}
		if ch < 0 || ch >= gpu.NumChannels {
			res.Status = Failed
			res.Err = fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
			logger.Warningf("input %d: %v", i, res.Err)
			results = append(results, res)
			continue
		}

		b, status, gaps, err := r.resolve(in)
		res.Status, res.Gaps, res.Err = status, gaps, err
		switch status {
		case Failed:
			logger.Warningf("channel %d: %v; using default texture", ch, err)
		case Partial:
			logger.Warningf("channel %d: %s is missing %s", ch, in.Src, strings.Join(gaps, ", "))
		}

		if prev := owner[ch]; prev >= 0 {
			logger.Warningf("channel %d is declared more than once; input %d replaces it", ch, i)
			if results[prev].Status != Failed {
				results[prev].Status = Failed
				results[prev].Err = fmt.Errorf("%w (input %d)", ErrReplaced, i)
			}
		}
		channels[ch].release(r.Device)
		channels[ch] = b
		owner[ch] = len(results)
		results = append(results, res)
	}
	return channels, results
}

func (r *Resolver) resolve(in api.Input) (Binding, Status, []string, error) {
	desc := SamplerDesc(in.Sampler)

	if in.IsPassReference() {
		// Render targets carry no mip chain.
		if desc.Filter == gpu.FilterTrilinear {
			desc.Filter = gpu.FilterLinear
		}
		b := Binding{Kind: PassRef, TextureKind: gpu.Texture2D, ProducerID: string(in.ID), SamplerDesc: desc}
		smp, err := r.Device.CreateSampler(desc)
		if err != nil {
			return Binding{}, Failed, nil, err
		}
		b.Sampler = smp
		return b, Resolved, nil, nil
	}

	var (
		img  *gpu.Image
		gaps []string
		err  error
	)
	switch strings.ToLower(in.CType) {
	case "", "texture", "2d":
		img, err = r.loadFlat(in.Src, in.Sampler.Flip(), desc)
	case "cubemap":
		img, gaps, err = r.loadCube(in.Src, in.Sampler.Flip(), desc)
	case "volume":
		if path.Ext(in.Src) == ".bin" {
			img, err = r.loadVolume(in.Src, in.Sampler.Flip(), desc)
		} else {
			img, err = r.loadFlat(in.Src, in.Sampler.Flip(), desc)
		}
	default:
		err = fmt.Errorf("%w %q", ErrUnsupported, in.CType)
	}
	if err != nil {
		return Binding{}, Failed, nil, err
	}

	tex, err := r.Device.CreateTexture(img)
	if err != nil {
		return Binding{}, Failed, nil, fmt.Errorf("failed to upload %s: %w", in.Src, err)
	}
	smp, err := r.Device.CreateSampler(desc)
	if err != nil {
		r.Device.ReleaseTexture(tex)
		return Binding{}, Failed, nil, err
	}

	b := Binding{
		Kind:        Static,
		TextureKind: img.Kind,
		Source:      in.Src,
		SamplerDesc: desc,
		Texture:     tex,
		Sampler:     smp,
	}
	if len(gaps) > 0 {
		return b, Partial, gaps, nil
	}
	return b, Resolved, nil, nil
}

func (r *Resolver) loadRGBA(name string, flip bool) (*image.RGBA, error) {
	img, err := media.LoadImage(r.Media, name)
	if err != nil {
		return nil, &DecodeError{Path: name, Err: err}
	}
	if flip {
		media.FlipY(img)
	}
	return img, nil
}

func (r *Resolver) loadFlat(name string, flip bool, desc gpu.SamplerDesc) (*gpu.Image, error) {
	rgba, err := r.loadRGBA(name, flip)
	if err != nil {
		return nil, err
	}
	return &gpu.Image{
		Kind:   gpu.Texture2D,
		Format: gpu.FormatRGBA8,
		Width:  rgba.Rect.Dx(),
		Height: rgba.Rect.Dy(),
		Faces:  []gpu.MipChain{chain(rgba, desc.Filter == gpu.FilterTrilinear)},
	}, nil
}

// loadCube loads face 0 from name and faces 1..5 from the names derived by
// media.CubeFaceName. Missing or mismatched faces are zero filled and
// returned as gaps.
func (r *Resolver) loadCube(name string, flip bool, desc gpu.SamplerDesc) (*gpu.Image, []string, error) {
	base, err := r.loadRGBA(name, flip)
	if err != nil {
		return nil, nil, err
	}
	w, h := base.Rect.Dx(), base.Rect.Dy()
	mips := desc.Filter == gpu.FilterTrilinear

	img := &gpu.Image{
		Kind:   gpu.TextureCube,
		Format: gpu.FormatRGBA8,
		Width:  w,
		Height: h,
		Faces:  make([]gpu.MipChain, 6),
	}
	img.Faces[0] = chain(base, mips)

	var gaps []string
	for k := 1; k < 6; k++ {
		faceName := media.CubeFaceName(name, k)
		face, err := r.loadRGBA(faceName, flip)
		if err == nil && (face.Rect.Dx() != w || face.Rect.Dy() != h) {
			err = fmt.Errorf("face is %dx%d, expected %dx%d", face.Rect.Dx(), face.Rect.Dy(), w, h)
		}
		if err != nil {
			logger.Debugf("cubemap %s face %d: %v", name, k, err)
			gaps = append(gaps, faceName)
			face = image.NewRGBA(image.Rect(0, 0, w, h))
		}
		img.Faces[k] = chain(face, mips)
	}
	return img, gaps, nil
}

func (r *Resolver) loadVolume(name string, flip bool, desc gpu.SamplerDesc) (*gpu.Image, error) {
	vol, err := media.LoadVolume(r.Media, name)
	if err != nil {
		return nil, &DecodeError{Path: name, Err: err}
	}
	if flip {
		vol.FlipY()
	}

	format := gpu.FormatRGBA8
	if vol.Components == 1 {
		format = gpu.FormatR8
	}
	levels := gpu.MipChain{vol.Data}
	if desc.Filter == gpu.FilterTrilinear {
		levels = vol.Mipmaps()
	}
	return &gpu.Image{
		Kind:   gpu.Texture3D,
		Format: format,
		Width:  vol.Width,
		Height: vol.Height,
		Depth:  vol.Depth,
		Faces:  []gpu.MipChain{levels},
	}, nil
}

func chain(img *image.RGBA, mips bool) gpu.MipChain {
	if !mips {
		return gpu.MipChain{img.Pix}
	}
	levels := media.Mipmaps(img)
	c := make(gpu.MipChain, len(levels))
	for i, l := range levels {
		c[i] = l.Pix
	}
	return c
}
