package renderer

import (
	"errors"
	"fmt"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/gpu"
	"github.com/richinsley/toygraph/inputs"
	"github.com/richinsley/toygraph/shader"
)

// RenderPass is one node of the render graph.
type RenderPass struct {
	// Index is the position of the pass in the shader description.
	Index    int
	Type     api.PassType
	OutputID string

	Channels inputs.Channels
	Results  []inputs.Result
	Program  *shader.Program
	Pipeline gpu.Pipeline
	// Buffer is set for buffer passes only.
	Buffer *Buffer

	// producers maps each channel to the scene index of the pass whose
	// front buffer it reads, or -1.
	producers [gpu.NumChannels]int
}

// Producer returns the scene index of the pass feeding a channel, or -1.
func (p *RenderPass) Producer(channel int) int {
	return p.producers[channel]
}

// createRenderPass resolves the inputs of a renderable pass, composes its
// shader stages and compiles the pipeline. Nothing is left allocated on error.
func (r *Renderer) createRenderPass(index int, rp *api.RenderPass, common string) (*RenderPass, error) {
	pass := &RenderPass{
		Index:    index,
		Type:     rp.Type,
		OutputID: rp.OutputID(),
	}
	for i := range pass.producers {
		pass.producers[i] = -1
	}

	pass.Channels, pass.Results = r.resolver.Resolve(rp.Inputs)

	flip := rp.Type == api.PassImage && r.dev.Platform().FlipsY()
	prog, err := shader.Compose(shader.PassSource{
		Dialect:  r.dev.Dialect(),
		Channels: pass.Channels.Kinds(),
		FlipY:    flip,
		Common:   common,
		Code:     rp.Code,
	})
	if err != nil {
		pass.Destroy(r.dev)
		return nil, &LoadError{Pass: index, Err: err}
	}
	pass.Program = prog

	desc := gpu.PipelineDesc{
		Label:          fmt.Sprintf("%s pass %d", rp.Type, index),
		VertexSource:   prog.Vertex,
		FragmentSource: prog.Fragment,
		NumTextures:    gpu.NumChannels,
		ColorFormat:    BufferFormat,
		DepthFormat:    gpu.FormatNone,
	}
	if rp.Type == api.PassImage {
		surface := r.dev.Surface()
		desc.ColorFormat = surface.ColorFormat()
		desc.DepthFormat = surface.DepthFormat()
	}

	logger.Debugf("compiling %s", desc.Label)
	pipeline, err := r.dev.CreatePipeline(desc)
	if err != nil {
		pass.Destroy(r.dev)
		lerr := &LoadError{Pass: index, Err: err}
		var cerr *gpu.CompileError
		if errors.As(err, &cerr) && cerr.Stage == "fragment" {
			lerr.Slot = prog.SlotAt(cerr.Line)
		}
		return nil, lerr
	}
	pass.Pipeline = pipeline

	if rp.Type == api.PassBuffer {
		pass.Buffer = NewBuffer(r.dev)
	}
	return pass, nil
}

// Destroy releases the pipeline, the feedback buffer and the static inputs of the pass.
func (p *RenderPass) Destroy(dev gpu.Device) {
	if p.Pipeline != nil {
		dev.ReleasePipeline(p.Pipeline)
		p.Pipeline = nil
	}
	if p.Buffer != nil {
		p.Buffer.Destroy()
		p.Buffer = nil
	}
	p.Channels.Release(dev)
}
