package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/phanxgames/canopy"
)

// Attribute locations shared by both programs.
const (
	attrPosition = 0
	attrUV       = 1
	attrInstance = 2 // x, y, size, rotation
	attrColor    = 3 // r, g, b, a
)

const spriteVertexSrc = `#version 410 core
layout(location = 0) in vec2 aPosition;
layout(location = 1) in vec2 aUV;

uniform mat4 uProjection;
uniform mat4 uModel;

out vec2 vUV;

void main() {
	vUV = aUV;
	gl_Position = uProjection * uModel * vec4(aPosition, 0.0, 1.0);
}
`

// Textures hold premultiplied color; the output is premultiplied too.
const spriteFragmentSrc = `#version 410 core
in vec2 vUV;

uniform sampler2D uTex;
uniform vec4 uColor;
uniform vec4 uTone;
uniform vec4 uFlash;
uniform float uHue;
uniform float uOpacity;

out vec4 fragColor;

vec3 hueShift(vec3 c, float deg) {
	float a = radians(deg);
	vec3 k = vec3(0.57735);
	float ca = cos(a);
	return c * ca + cross(k, c) * sin(a) + k * dot(k, c) * (1.0 - ca);
}

void main() {
	vec4 c = texture(uTex, vUV);
	if (c.a == 0.0) {
		discard;
	}
	c.rgb /= c.a;
	if (dot(uColor, uColor) > 0.0) {
		c *= uColor;
	}
	c.rgb = clamp(c.rgb + uTone.rgb, 0.0, 1.0);
	if (uTone.a > 0.0) {
		float l = dot(c.rgb, vec3(0.299, 0.587, 0.114));
		c.rgb = mix(c.rgb, vec3(l), uTone.a);
	}
	if (uHue != 0.0) {
		c.rgb = clamp(hueShift(c.rgb, uHue), 0.0, 1.0);
	}
	if (uFlash.a > 0.0) {
		c.rgb = mix(c.rgb, uFlash.rgb, uFlash.a);
	}
	c.a *= uOpacity;
	fragColor = vec4(c.rgb * c.a, c.a);
}
`

const particleVertexSrc = `#version 410 core
layout(location = 0) in vec2 aPosition;
layout(location = 1) in vec2 aUV;
layout(location = 2) in vec4 aInstance;
layout(location = 3) in vec4 aColor;

uniform mat4 uProjection;
uniform mat4 uModel;

out vec2 vUV;
out vec4 vColor;

void main() {
	float s = sin(aInstance.w);
	float c = cos(aInstance.w);
	vec2 p = aPosition * aInstance.z;
	p = vec2(p.x * c - p.y * s, p.x * s + p.y * c) + aInstance.xy;
	vUV = aUV;
	vColor = vec4(aColor.rgb * aColor.a, aColor.a);
	gl_Position = uProjection * uModel * vec4(p, 0.0, 1.0);
}
`

const particleFragmentSrc = `#version 410 core
in vec2 vUV;
in vec4 vColor;

uniform sampler2D uTex;
uniform float uRound;

out vec4 fragColor;

void main() {
	if (uRound > 0.0) {
		vec2 d = vUV - vec2(0.5);
		if (dot(d, d) > 0.25) {
			discard;
		}
	}
	fragColor = texture(uTex, vUV) * vColor;
}
`

func programSource(kind canopy.ProgramKind) (vertex, fragment string, ok bool) {
	switch kind {
	case canopy.ProgramSprite:
		return spriteVertexSrc, spriteFragmentSrc, true
	case canopy.ProgramParticle:
		return particleVertexSrc, particleFragmentSrc, true
	default:
		return "", "", false
	}
}

// compileProgram compiles vertex and fragment shaders and links them.
func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vs, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", gl.GoStr(&log[0]))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, gl.GoStr(&log[0]))
	}
	return shader, nil
}
