// Package renderer builds the render graph of a shader description and
// executes it frame by frame: buffer passes render into double-buffered
// float targets, image passes into the presentation surface.
package renderer

import (
	"fmt"
	"image"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/gpu"
	"github.com/richinsley/toygraph/inputs"
	"github.com/richinsley/toygraph/log"
	"github.com/richinsley/toygraph/media"
)

var logger = log.New("renderer")

type Options struct {
	// StrictGraph fails the load of a shader whose pass references do not
	// name exactly one buffer pass.
	StrictGraph bool
	// DefaultTextureSize is the edge length of the texture bound to unbound channels.
	DefaultTextureSize int
}

func DefaultOptions() Options {
	return Options{
		StrictGraph:        true,
		DefaultTextureSize: 32,
	}
}

type Renderer struct {
	dev      gpu.Device
	resolver *inputs.Resolver
	opts     Options
	scene    *Scene

	defaultTexture gpu.Texture
	defaultSampler gpu.Sampler
}

// NewRenderer creates a renderer drawing with dev and loading static inputs from src.
func NewRenderer(dev gpu.Device, src media.Source, opts Options) (*Renderer, error) {
	if opts.DefaultTextureSize <= 0 {
		opts.DefaultTextureSize = DefaultOptions().DefaultTextureSize
	}
	r := &Renderer{
		dev:      dev,
		resolver: &inputs.Resolver{Device: dev, Media: src},
		opts:     opts,
	}

	size := opts.DefaultTextureSize
	tex, err := dev.CreateTexture(&gpu.Image{
		Kind:   gpu.Texture2D,
		Format: gpu.FormatRGBA8,
		Width:  size,
		Height: size,
		Faces:  []gpu.MipChain{{make([]byte, size*size*4)}},
	})
	if err != nil {
		return nil, &DeviceError{Op: "create default texture", Err: err}
	}
	smp, err := dev.CreateSampler(gpu.SamplerDesc{Filter: gpu.FilterLinear, Wrap: gpu.WrapRepeat})
	if err != nil {
		dev.ReleaseTexture(tex)
		return nil, &DeviceError{Op: "create default sampler", Err: err}
	}
	r.defaultTexture, r.defaultSampler = tex, smp
	return r, nil
}

func (r *Renderer) Device() gpu.Device { return r.dev }

// Scene returns the active scene, or nil before the first successful switch.
func (r *Renderer) Scene() *Scene { return r.scene }

// SwitchScene waits for the device to go idle, builds the scene of sh and
// replaces the active scene with it. When the build fails the active scene
// is kept and the LoadError is returned.
func (r *Renderer) SwitchScene(sh *api.Shader) error {
	if err := r.dev.Finish(); err != nil {
		return &DeviceError{Op: "finish", Err: err}
	}
	scene, err := r.LoadScene(sh)
	if err != nil {
		return err
	}
	r.scene.Destroy()
	r.scene = scene

	logger.Noticef("%s", sh.Title())
	if sh.Info.Description != "" {
		logger.Info(sh.Info.Description)
	}
	if sh.Info.ID != "" {
		logger.Info(sh.URL())
	}
	return nil
}

// Drawable reports whether the surface has a non-zero size. A minimized
// window reports 0x0.
func (r *Renderer) Drawable() bool {
	w, h := r.dev.Surface().Size()
	return w > 0 && h > 0
}

// RenderFrame executes every pass of the active scene once. A frame for a
// zero sized surface is skipped without resizing buffers or drawing.
func (r *Renderer) RenderFrame(fs *FrameState) error {
	scene := r.scene
	if scene == nil {
		return ErrNoScene
	}

	width, height := r.dev.Surface().Size()
	if width <= 0 || height <= 0 {
		return nil
	}
	for _, pass := range scene.Passes {
		if pass.Buffer == nil {
			continue
		}
		resized, err := pass.Buffer.Ensure(width, height)
		if err != nil {
			return &DeviceError{Op: "resize buffer", Err: err}
		}
		if resized {
			logger.Debugf("pass %d buffers resized to %dx%d", pass.Index, width, height)
		}
	}

	frame := fs.Uniforms(width, height)
	for _, pass := range scene.Passes {
		uniforms := frame
		textures := make([]gpu.Texture, gpu.NumChannels)
		samplers := make([]gpu.Sampler, gpu.NumChannels)
		for ch := range pass.Channels {
			tex, smp := r.bindChannel(scene, pass, ch)
			if tex == nil {
				tex, smp = r.defaultTexture, r.defaultSampler
			} else {
				w, h, _ := tex.Size()
				uniforms.ChannelResolution[ch] = [3]float32{float32(w), float32(h), 1}
				if tex.Kind() == gpu.Texture3D {
					_, _, d := tex.Size()
					uniforms.ChannelResolution[ch][2] = float32(d)
				}
			}
			textures[ch], samplers[ch] = tex, smp
		}

		var target interface{} = r.dev.Surface()
		if pass.Buffer != nil {
			target = pass.Buffer.Back()
		}
		err := r.dev.Draw(gpu.DrawCall{
			Pipeline:    pass.Pipeline,
			Target:      target,
			Uniforms:    &uniforms,
			Textures:    textures,
			Samplers:    samplers,
			VertexCount: 3,
		})
		if err != nil {
			return &DeviceError{Op: fmt.Sprintf("draw pass %d", pass.Index), Err: err}
		}
		if pass.Buffer != nil {
			pass.Buffer.SwapBuffers()
		}
	}
	return nil
}

// bindChannel returns the texture and sampler feeding a channel, or nil
// when the channel falls back to the default texture.
func (r *Renderer) bindChannel(scene *Scene, pass *RenderPass, ch int) (gpu.Texture, gpu.Sampler) {
	b := &pass.Channels[ch]
	switch b.Kind {
	case inputs.Static:
		return b.Texture, b.Sampler
	case inputs.PassRef:
		if j := pass.producers[ch]; j >= 0 {
			return scene.Passes[j].Buffer.Front(), b.Sampler
		}
	}
	return nil, nil
}

// Present shows the frame rendered into the surface.
func (r *Renderer) Present() error {
	if err := r.dev.Present(); err != nil {
		return &DeviceError{Op: "present", Err: err}
	}
	return nil
}

// Screenshot reads back the presentation surface.
func (r *Renderer) Screenshot() (*image.RGBA, error) {
	img, err := r.dev.ReadPixels(r.dev.Surface())
	if err != nil {
		return nil, &DeviceError{Op: "read pixels", Err: err}
	}
	return img, nil
}

// Shutdown waits for the device and releases the scene and the default resources.
func (r *Renderer) Shutdown() {
	if err := r.dev.Finish(); err != nil {
		logger.Warningf("finish on shutdown: %v", err)
	}
	r.scene.Destroy()
	r.scene = nil
	if r.defaultTexture != nil {
		r.dev.ReleaseTexture(r.defaultTexture)
		r.defaultTexture = nil
	}
	if r.defaultSampler != nil {
		r.dev.ReleaseSampler(r.defaultSampler)
		r.defaultSampler = nil
	}
}
