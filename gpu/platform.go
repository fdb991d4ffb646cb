package gpu

// Platform identifies the graphics API behind a Device.
type Platform int

const (
	PlatformGL Platform = iota
	PlatformGLES
	PlatformVulkan
	PlatformMetal
	PlatformD3D11
	PlatformD3D12
	PlatformSoftware
)

func (p Platform) String() string {
	switch p {
	case PlatformGL:
		return "OpenGL"
	case PlatformGLES:
		return "OpenGLES"
	case PlatformVulkan:
		return "Vulkan"
	case PlatformMetal:
		return "Metal"
	case PlatformD3D11:
		return "Direct3D11"
	case PlatformD3D12:
		return "Direct3D12"
	case PlatformSoftware:
		return "Software"
	}
	return "Unknown"
}

// FlipsY reports whether the presentation surface's vertical axis runs
// opposite to the shader's gl_FragCoord convention.
func (p Platform) FlipsY() bool {
	switch p {
	case PlatformVulkan, PlatformMetal, PlatformD3D11, PlatformD3D12:
		return true
	}
	return false
}

// ShaderDialect selects the source language a Device consumes.
type ShaderDialect int

const (
	// DialectSeparate is GLSL 4.20 with separate texture/sampler objects,
	// explicit set/binding slots and a std140 uniform block.
	DialectSeparate ShaderDialect = iota
	// DialectWebGL2 is GLSL ES 3.00 with combined samplers and loose uniforms.
	DialectWebGL2
)

func (d ShaderDialect) String() string {
	if d == DialectWebGL2 {
		return "webgl2"
	}
	return "separate"
}
