package ebitenbackend

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canopy"
)

var blendFactors = map[uint32]ebiten.BlendFactor{
	canopy.BlendZero:             ebiten.BlendFactorZero,
	canopy.BlendOne:              ebiten.BlendFactorOne,
	canopy.BlendSrcColor:         ebiten.BlendFactorSourceColor,
	canopy.BlendOneMinusSrcColor: ebiten.BlendFactorOneMinusSourceColor,
	canopy.BlendSrcAlpha:         ebiten.BlendFactorSourceAlpha,
	canopy.BlendOneMinusSrcAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
	canopy.BlendDstAlpha:         ebiten.BlendFactorDestinationAlpha,
	canopy.BlendOneMinusDstAlpha: ebiten.BlendFactorOneMinusDestinationAlpha,
	canopy.BlendDstColor:         ebiten.BlendFactorDestinationColor,
	canopy.BlendOneMinusDstColor: ebiten.BlendFactorOneMinusDestinationColor,
}

var blendOps = map[uint32]ebiten.BlendOperation{
	canopy.BlendOpAdd:             ebiten.BlendOperationAdd,
	canopy.BlendOpSubtract:        ebiten.BlendOperationSubtract,
	canopy.BlendOpReverseSubtract: ebiten.BlendOperationReverseSubtract,
	canopy.BlendOpMin:             ebiten.BlendOperationMin,
	canopy.BlendOpMax:             ebiten.BlendOperationMax,
}

// ebitenBlend converts GL blend codes to an ebiten.Blend. Shader output is
// premultiplied, so a source factor of SrcAlpha becomes One. Codes without
// an Ebitengine equivalent yield source-over and false.
func ebitenBlend(bl canopy.Blend) (ebiten.Blend, bool) {
	src, ok := blendFactors[bl.Src]
	if !ok {
		return ebiten.BlendSourceOver, false
	}
	dst, ok := blendFactors[bl.Dst]
	if !ok {
		return ebiten.BlendSourceOver, false
	}
	op, ok := blendOps[bl.Op]
	if !ok {
		return ebiten.BlendSourceOver, false
	}
	if bl.Src == canopy.BlendSrcAlpha {
		src = ebiten.BlendFactorOne
	}
	return ebiten.Blend{
		BlendFactorSourceRGB:        src,
		BlendFactorSourceAlpha:      src,
		BlendFactorDestinationRGB:   dst,
		BlendFactorDestinationAlpha: dst,
		BlendOperationRGB:           op,
		BlendOperationAlpha:         op,
	}, true
}
