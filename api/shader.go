package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	ErrMalformed      = errors.New("api: malformed shader description")
	ErrNoRenderPasses = errors.New("api: shader has no render passes")
)

// PassType is the kind of a render pass.
type PassType string

const (
	PassCommon PassType = "common"
	PassBuffer PassType = "buffer"
	PassImage  PassType = "image"
	PassSound  PassType = "sound"
)

// Renderable reports whether a pass of this type becomes a node of the render graph.
func (t PassType) Renderable() bool {
	return t == PassBuffer || t == PassImage
}

// Document is the top level of a shader description file.
type Document struct {
	Shader *Shader `json:"Shader"`
	Error  string  `json:"Error,omitempty"`
}

type Shader struct {
	Info       ShaderInfo   `json:"info"`
	RenderPass []RenderPass `json:"renderpass"`
}

type ShaderInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Description string `json:"description"`
}

type RenderPass struct {
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Type    PassType `json:"type"`
}

// Input is one channel input of a render pass. Channel is nil when the
// description leaves the channel index out.
type Input struct {
	ID      FlexString `json:"id"`
	Src     string     `json:"src"`
	CType   string     `json:"ctype"`
	Channel *int       `json:"channel"`
	Sampler Sampler    `json:"sampler"`
}

type Output struct {
	ID      FlexString `json:"id"`
	Channel int        `json:"channel"`
}

type Sampler struct {
	Filter   string     `json:"filter"`
	Wrap     string     `json:"wrap"`
	VFlip    FlexString `json:"vflip"`
	SRGB     FlexString `json:"srgb"`
	Internal string     `json:"internal"`
}

// IsZero reports whether the description carried no sampler settings at all.
func (s Sampler) IsZero() bool {
	return s.Filter == "" && s.Wrap == "" && s.VFlip == "" && s.SRGB == "" && s.Internal == ""
}

// Flip reports whether the input image is to be flipped vertically before upload.
func (s Sampler) Flip() bool {
	return s.VFlip == "true"
}

// UnmarshalJSON accepts both the API form (src, ctype) and the raw site
// export form (filepath, type) of an input.
func (in *Input) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       FlexString `json:"id"`
		Src      string     `json:"src"`
		Filepath string     `json:"filepath"`
		CType    string     `json:"ctype"`
		Type     string     `json:"type"`
		Channel  *int       `json:"channel"`
		Sampler  Sampler    `json:"sampler"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*in = Input{
		ID:      raw.ID,
		Src:     raw.Src,
		CType:   raw.CType,
		Channel: raw.Channel,
		Sampler: raw.Sampler,
	}
	if in.Src == "" {
		in.Src = raw.Filepath
	}
	if in.CType == "" {
		in.CType = raw.Type
	}
	return nil
}

// ChannelIndex returns the explicit channel of the input, or pos when none was given.
func (in Input) ChannelIndex(pos int) int {
	if in.Channel != nil {
		return *in.Channel
	}
	return pos
}

// IsPassReference reports whether the input receives another pass's output
// rather than a media resource.
func (in Input) IsPassReference() bool {
	return in.Src == "" || in.CType == "buffer"
}

// OutputID returns the id of the buffer this pass produces, or "" when it declares none.
func (p RenderPass) OutputID() string {
	if len(p.Outputs) == 0 {
		return ""
	}
	return string(p.Outputs[0].ID)
}

// CommonCode concatenates the code of every common pass, in declaration order.
func (s *Shader) CommonCode() string {
	var b strings.Builder
	for _, rp := range s.RenderPass {
		if rp.Type == PassCommon {
			b.WriteString(rp.Code)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Title is the display name of the shader.
func (s *Shader) Title() string {
	if s.Info.Username == "" {
		return s.Info.Name
	}
	return fmt.Sprintf("%s (%s)", s.Info.Name, s.Info.Username)
}

// URL is the shadertoy.com page of the shader.
func (s *Shader) URL() string {
	return "https://shadertoy.com/view/" + s.Info.ID
}

// CountPasses returns how many passes of type t the shader declares.
func (s *Shader) CountPasses(t PassType) int {
	n := 0
	for _, rp := range s.RenderPass {
		if rp.Type == t {
			n++
		}
	}
	return n
}

// Parse decodes a shader description. Both the {"Shader": {...}} document and
// the raw [{...}] array export are accepted.
func Parse(data []byte) (*Shader, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	var shader *Shader
	if data[0] == '[' {
		var raw []Shader
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("%w: empty shader array", ErrMalformed)
		}
		shader = &raw[0]
	} else {
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if doc.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrMalformed, doc.Error)
		}
		if doc.Shader == nil {
			return nil, fmt.Errorf("%w: 'Shader' key is missing", ErrMalformed)
		}
		shader = doc.Shader
	}

	if len(shader.RenderPass) == 0 {
		return nil, ErrNoRenderPasses
	}
	return shader, nil
}

// LoadFile reads and parses a shader description file.
func LoadFile(path string) (*Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader description %s: %w", path, err)
	}
	shader, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return shader, nil
}

// FlexString decodes a JSON string, number or boolean into its textual form.
// Shader exports are inconsistent about the type of ids and sampler flags.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*f = FlexString(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("api: unsupported value %s", data)
		}
		if i, err := n.Int64(); err == nil {
			*f = FlexString(strconv.FormatInt(i, 10))
		} else {
			*f = FlexString(n.String())
		}
	}
	return nil
}
