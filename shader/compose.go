// Package shader assembles the vertex and fragment source of a render pass
// from a uniform preamble, typed channel declarations, shared common code,
// the pass code and a generated entry point.
package shader

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/richinsley/toygraph/gpu"
)

var ErrMissingEntryPoint = errors.New("shader: pass code does not define mainImage")

// Slot names, in the order they appear in a fragment stage.
const (
	SlotPreamble = "preamble"
	SlotChannels = "channels"
	SlotCommon   = "common"
	SlotCode     = "code"
	SlotEntry    = "entry"
)

var slotOrder = []string{SlotPreamble, SlotChannels, SlotCommon, SlotCode, SlotEntry}

var entryPointRe = regexp.MustCompile(`\bmainImage\s*\(`)

var dialects = map[gpu.ShaderDialect]*template.Template{
	gpu.DialectSeparate: template.Must(template.New("separate").Parse(separateTemplates)),
	gpu.DialectWebGL2:   template.Must(template.New("webgl2").Parse(webgl2Templates)),
}

// PassSource is everything the composer needs to know about one pass.
type PassSource struct {
	Dialect  gpu.ShaderDialect
	Channels [gpu.NumChannels]gpu.TextureKind
	// FlipY mirrors gl_FragCoord.y before it reaches mainImage.
	FlipY  bool
	Common string
	Code   string
}

// Slot is the line range [Start, End] (1-based, inclusive) a slot occupies
// in the fragment stage. Empty slots have End < Start.
type Slot struct {
	Name  string
	Start int
	End   int
}

// Program is a composed pair of shader stages.
type Program struct {
	Vertex   string
	Fragment string
	Slots    []Slot
}

// SlotAt returns the name of the fragment slot containing line, or "" when
// the line is out of range.
func (p *Program) SlotAt(line int) string {
	for _, s := range p.Slots {
		if line >= s.Start && line <= s.End {
			return s.Name
		}
	}
	return ""
}

// Compose builds both stages of a pass.
func Compose(src PassSource) (*Program, error) {
	tmpl, ok := dialects[src.Dialect]
	if !ok {
		return nil, fmt.Errorf("shader: unknown dialect %d", src.Dialect)
	}
	if !entryPointRe.MatchString(src.Code) && !entryPointRe.MatchString(src.Common) {
		return nil, ErrMissingEntryPoint
	}

	data := struct {
		PassSource
		Common string
		Code   string
	}{
		PassSource: src,
		Common:     terminate(src.Common),
		Code:       terminate(src.Code),
	}

	var (
		frag  strings.Builder
		slots = make([]Slot, 0, len(slotOrder))
		line  = 1
	)
	for _, name := range slotOrder {
		var text string
		switch name {
		case SlotCommon:
			text = data.Common
		case SlotCode:
			text = data.Code
		default:
			var b strings.Builder
			if err := tmpl.ExecuteTemplate(&b, name, data); err != nil {
				return nil, fmt.Errorf("shader: failed to render %s slot: %w", name, err)
			}
			text = b.String()
		}
		n := strings.Count(text, "\n")
		slots = append(slots, Slot{Name: name, Start: line, End: line + n - 1})
		line += n
		frag.WriteString(text)
	}

	vertex, err := VertexShader(src.Dialect)
	if err != nil {
		return nil, err
	}
	return &Program{
		Vertex:   vertex,
		Fragment: frag.String(),
		Slots:    slots,
	}, nil
}

// VertexShader returns the full-screen triangle vertex stage shared by every
// pass. It draws three vertices and takes no attributes.
func VertexShader(dialect gpu.ShaderDialect) (string, error) {
	tmpl, ok := dialects[dialect]
	if !ok {
		return "", fmt.Errorf("shader: unknown dialect %d", dialect)
	}
	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, "vertex", nil); err != nil {
		return "", err
	}
	return b.String(), nil
}

func terminate(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
