package shader

// Every dialect defines the same set of named slot templates. The fragment
// stage is rendered slot by slot in slotOrder.

const separateTemplates = `
{{- define "preamble" -}}
#version 420 core

layout(std140, binding = 0) uniform Parameters {
	vec3 iChannelResolution[4];
	vec4 iChannelTime;
	vec3 iResolution;
	vec4 iMouse;
	vec4 iDate;
	float iTime;
	float iTimeDelta;
	float iFrameRate;
	int iFrame;
};

#define HW_PERFORMANCE 1

layout(location = 0) out vec4 out_color;
{{end -}}

{{- define "channels" -}}
{{range $i, $kind := .Channels -}}
layout(binding = {{$i}}, set = 2) uniform sampler iSampler{{$i}};
layout(binding = {{$i}}, set = 1) uniform texture{{$kind}} iTexture{{$i}};
#define iChannel{{$i}} sampler{{$kind}}(iTexture{{$i}}, iSampler{{$i}})
{{end -}}
{{end -}}

{{- define "entry" -}}
void main() {
	vec2 texcoord = gl_FragCoord.xy;
{{- if .FlipY}}
	texcoord.y = iResolution.y - texcoord.y;
{{- end}}
	vec4 color = vec4(0.0);
	mainImage(color, texcoord);
	out_color = color;
}
{{end -}}

{{- define "vertex" -}}
#version 420 core

void main() {
	vec2 position = vec2((gl_VertexIndex << 1) & 2, gl_VertexIndex & 2);
	gl_Position = vec4(position * 2.0 - 1.0, 0.0, 1.0);
}
{{end -}}
`

const webgl2Templates = `
{{- define "preamble" -}}
#version 300 es
precision highp float;
precision highp int;
precision mediump sampler3D;

layout(std140) uniform Parameters {
	vec3 iChannelResolution[4];
	vec4 iChannelTime;
	vec3 iResolution;
	vec4 iMouse;
	vec4 iDate;
	float iTime;
	float iTimeDelta;
	float iFrameRate;
	int iFrame;
};

#define HW_PERFORMANCE 1

out vec4 out_color;
{{end -}}

{{- define "channels" -}}
{{range $i, $kind := .Channels -}}
uniform sampler{{$kind}} iTexture{{$i}};
#define iChannel{{$i}} iTexture{{$i}}
{{end -}}
{{end -}}

{{- define "entry" -}}
void main() {
	vec2 texcoord = gl_FragCoord.xy;
{{- if .FlipY}}
	texcoord.y = iResolution.y - texcoord.y;
{{- end}}
	vec4 color = vec4(0.0);
	mainImage(color, texcoord);
	out_color = color;
}
{{end -}}

{{- define "vertex" -}}
#version 300 es

void main() {
	vec2 position = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
	gl_Position = vec4(position * 2.0 - 1.0, 0.0, 1.0);
}
{{end -}}
`
