// Package translator converts WebGL2 shader sources into desktop GLSL using
// the ANGLE based goshadertranslator.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
	"github.com/richinsley/toygraph/log"
)

var logger = log.New("translator")

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// Stage is a shader stage name as understood by the translator.
type Stage string

const (
	StageVertex   Stage = "vertex"
	StageFragment Stage = "fragment"
)

// Shader is a translated stage.
type Shader struct {
	Code string
	// Names maps a declared uniform name to the name it carries in Code.
	Names map[string]string
}

// MappedName returns the translated name of a uniform, or ok=false when the
// translator dropped it as unused.
func (s *Shader) MappedName(name string) (string, bool) {
	mapped, ok := s.Names[name]
	return mapped, ok
}

// Get returns the process wide translator, creating it on first use.
func Get() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
		if initErr != nil {
			logger.Errorf("failed to create shader translator: %v", initErr)
		}
	})
	return translator, initErr
}

// Translate converts a WebGL2 stage source into GLSL 4.10.
func Translate(source string, stage Stage) (*Shader, error) {
	t, err := Get()
	if err != nil {
		return nil, fmt.Errorf("translator: %w", err)
	}
	out, err := t.TranslateShader(source, string(stage), gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return nil, err
	}
	s := &Shader{
		Code:  out.Code,
		Names: make(map[string]string, len(out.Variables)),
	}
	for name, v := range out.Variables {
		s.Names[name] = v.MappedName
	}
	return s, nil
}
