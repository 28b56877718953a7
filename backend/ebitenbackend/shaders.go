package ebitenbackend

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/phanxgames/canopy"
)

// --- Kage shader sources ---
// Both shaders use //kage:unit pixels. Textures are premultiplied; the
// sprite shader un-premultiplies, applies tint, tone, hue, flash, and
// opacity, and re-premultiplies.

const spriteShaderSrc = `//kage:unit pixels
package main

var Color vec4
var Tone vec4
var Flash vec4
var Hue float
var Opacity float
var Wrap float

func hueShift(c vec3, deg float) vec3 {
	a := deg * 3.14159265 / 180.0
	k := vec3(0.57735)
	ca := cos(a)
	return c*ca + cross(k, c)*sin(a) + k*dot(k, c)*(1.0-ca)
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	p := src
	if Wrap > 0 {
		origin := imageSrc0Origin()
		p = mod(src-origin, imageSrc0Size()) + origin
	}
	c := imageSrc0At(p)
	if c.a == 0 {
		return vec4(0)
	}
	c.rgb /= c.a
	if dot(Color, Color) > 0 {
		c *= Color
	}
	c.rgb = clamp(c.rgb+Tone.rgb, vec3(0), vec3(1))
	if Tone.a > 0 {
		l := dot(c.rgb, vec3(0.299, 0.587, 0.114))
		c.rgb = mix(c.rgb, vec3(l), Tone.a)
	}
	if Hue != 0 {
		c.rgb = clamp(hueShift(c.rgb, Hue), vec3(0), vec3(1))
	}
	if Flash.a > 0 {
		c.rgb = mix(c.rgb, Flash.rgb, Flash.a)
	}
	c.a *= Opacity
	return vec4(c.rgb*c.a, c.a)
}
`

// The particle shader receives premultiplied per-instance color as the
// vertex color.
const particleShaderSrc = `//kage:unit pixels
package main

var Round float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	if Round > 0 {
		p := (src-imageSrc0Origin())/imageSrc0Size() - vec2(0.5)
		if dot(p, p) > 0.25 {
			discard()
		}
	}
	return imageSrc0At(src) * color
}
`

const uniformWrap = "Wrap"

// kageName maps a canopy uniform name to the exported Kage variable name.
func kageName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func shaderSource(kind canopy.ProgramKind) (string, bool) {
	switch kind {
	case canopy.ProgramSprite:
		return spriteShaderSrc, true
	case canopy.ProgramParticle:
		return particleShaderSrc, true
	default:
		return "", false
	}
}

// shader returns the compiled program for kind, compiling it on first use.
func (b *Backend) shader(kind canopy.ProgramKind) (*ebiten.Shader, error) {
	if s, ok := b.shaders[kind]; ok {
		return s, nil
	}
	src, ok := shaderSource(kind)
	if !ok {
		return nil, fmt.Errorf("ebitenbackend: program %d: %w", kind, ErrUnknownHandle)
	}
	s, err := ebiten.NewShader([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("ebitenbackend: compile %s shader: %w", kind, err)
	}
	b.log.Debug("compiled shader", zap.Stringer("kind", kind))
	b.shaders[kind] = s
	return s, nil
}
