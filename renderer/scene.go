package renderer

import (
	"fmt"

	"github.com/richinsley/toygraph/api"
	"github.com/richinsley/toygraph/gpu"
	"github.com/richinsley/toygraph/inputs"
)

// Scene encapsulates all the resources and render passes of one shader.
type Scene struct {
	Title  string
	Shader *api.Shader
	// Passes keeps the declaration order of the description.
	Passes []*RenderPass

	dev gpu.Device
}

// Destroy releases every resource of the scene.
func (s *Scene) Destroy() {
	if s == nil {
		return
	}
	logger.Infof("destroying scene %s", s.Title)
	for _, pass := range s.Passes {
		pass.Destroy(s.dev)
	}
	s.Passes = nil
}

// Results returns the input resolution results of every pass, keyed by the
// pass index in the description.
func (s *Scene) Results() map[int][]inputs.Result {
	results := make(map[int][]inputs.Result, len(s.Passes))
	for _, pass := range s.Passes {
		results[pass.Index] = pass.Results
	}
	return results
}

// LoadScene builds the render graph of a shader: one node per buffer or
// image pass in declaration order, each with its inputs resolved and its
// pipeline compiled, and every pass reference linked to its producer. On
// error everything created so far is released.
func (r *Renderer) LoadScene(sh *api.Shader) (*Scene, error) {
	scene := &Scene{
		Title:  sh.Title(),
		Shader: sh,
		dev:    r.dev,
	}

	common := sh.CommonCode()
	for i := range sh.RenderPass {
		rp := &sh.RenderPass[i]
		if !rp.Type.Renderable() {
			logger.Debugf("skipping %s pass %d", rp.Type, i)
			continue
		}
		pass, err := r.createRenderPass(i, rp, common)
		if err != nil {
			scene.Destroy()
			return nil, withShader(err, scene.Title)
		}
		scene.Passes = append(scene.Passes, pass)
	}

	if len(scene.Passes) == 0 {
		return nil, &LoadError{Shader: scene.Title, Pass: -1, Err: ErrNoRenderablePasses}
	}
	if sh.CountPasses(api.PassImage) == 0 {
		logger.Warningf("%s has no image pass; nothing will be presented", scene.Title)
	}

	if err := scene.link(r.opts.StrictGraph); err != nil {
		scene.Destroy()
		return nil, withShader(err, scene.Title)
	}

	logger.Infof("loaded scene %s with %d passes", scene.Title, len(scene.Passes))
	return scene, nil
}

// link resolves every pass reference to the index of the pass producing it.
// In strict mode unknown, ambiguous and non-buffer producers fail the load;
// otherwise the first producer in declaration order wins and the rest fall
// back to the default texture.
func (s *Scene) link(strict bool) error {
	producers := make(map[string]int)
	for i, pass := range s.Passes {
		if pass.OutputID == "" {
			continue
		}
		if j, ok := producers[pass.OutputID]; ok {
			err := fmt.Errorf("%w: %q by passes %d and %d", ErrDuplicateOutput, pass.OutputID, s.Passes[j].Index, pass.Index)
			if strict {
				return &LoadError{Pass: pass.Index, Err: err}
			}
			logger.Warningf("%v; using pass %d", err, s.Passes[j].Index)
			continue
		}
		producers[pass.OutputID] = i
	}

	for _, pass := range s.Passes {
		for ch, b := range pass.Channels {
			if b.Kind != inputs.PassRef {
				continue
			}
			j, ok := producers[b.ProducerID]
			var err error
			switch {
			case !ok:
				err = fmt.Errorf("%w: channel %d reads %q", ErrUnknownProducer, ch, b.ProducerID)
			case s.Passes[j].Buffer == nil:
				err = fmt.Errorf("%w: channel %d reads %q of %s pass %d", ErrProducerNotBuffer, ch, b.ProducerID, s.Passes[j].Type, s.Passes[j].Index)
			}
			if err != nil {
				if strict {
					return &LoadError{Pass: pass.Index, Err: err}
				}
				logger.Warningf("pass %d: %v; using default texture", pass.Index, err)
				continue
			}
			pass.producers[ch] = j
		}
	}
	return nil
}

func withShader(err error, title string) error {
	if lerr, ok := err.(*LoadError); ok {
		lerr.Shader = title
		return lerr
	}
	return &LoadError{Shader: title, Pass: -1, Err: err}
}
