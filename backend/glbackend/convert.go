package glbackend

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/canopy"
)

// flipY mirrors clip space vertically. Offscreen targets are drawn through
// it so that row 0 of their texture holds the top of the image, matching
// uploaded textures.
var flipY = mgl32.Scale3D(1, -1, 1)

// uniformName maps a canopy uniform name to its GLSL name: "color" becomes
// "uColor".
func uniformName(name string) string {
	if name == "" {
		return name
	}
	return "u" + strings.ToUpper(name[:1]) + name[1:]
}

// glBlend returns the equation and factors to hand to OpenGL. Fragment
// output is premultiplied, so a source factor of SRC_ALPHA becomes ONE.
func glBlend(bl canopy.Blend) (op, src, dst uint32) {
	src = bl.Src
	if src == canopy.BlendSrcAlpha {
		src = canopy.BlendOne
	}
	return bl.Op, src, bl.Dst
}

// viewportRect converts a top-left-origin rectangle to the x, y, width,
// height of gl.Viewport on a surface surfaceH pixels tall. flipped surfaces
// are drawn through flipY and need no conversion.
func viewportRect(r canopy.Rect, surfaceH int, flipped bool) [4]int32 {
	x := int32(math.Round(r.X))
	y := int32(math.Round(r.Y))
	w := int32(math.Round(r.Width))
	h := int32(math.Round(r.Height))
	if !flipped {
		y = int32(surfaceH) - y - h
	}
	return [4]int32{x, y, w, h}
}

// premultiply converts a straight-alpha color to premultiplied.
func premultiply(c [4]float32) [4]float32 {
	return [4]float32{c[0] * c[3], c[1] * c[3], c[2] * c[3], c[3]}
}
