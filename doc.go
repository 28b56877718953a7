// Package canopy is a retained-mode 2D scene graph and compositing renderer.
//
// Canopy keeps drawables in z-sorted batches, nests render-to-texture
// viewports, and simulates tens of thousands of particles per emitter, all
// on top of a narrow [Backend] interface. Two backends ship with it:
// backend/ebitenbackend for [Ebitengine] and backend/glbackend for OpenGL
// 4.1 through go-gl.
//
// # Quick start
//
// The host owns one [Graphics] and one root [Batch], and per tick calls
// [UpdateAll] and then [Graphics.Frame]:
//
//	gfx, _ := canopy.NewGraphics(backend, 640, 480)
//	root := canopy.NewBatch()
//
//	hero, _ := canopy.NewSprite(gfx, root, heroImage)
//	hero.SetPosition(100, 50)
//
//	// every tick
//	canopy.UpdateAll(root, 1.0/60)
//	gfx.Frame(root, 1, canopy.ColorBlack)
//
// With Ebitengine, ebitenbackend.Run drives this loop.
//
// # Drawables
//
// Every drawable embeds a [Renderable], which carries a [Transform]
// (position, pivot, scale, angle, velocity, size) and a [Visual] (tint,
// [Tone], hue, opacity, flash, [Blend]). The variants are [Sprite],
// [AtlasSprite], [Plane], [Viewport], and [Emitter]. Constructors take the
// Batch to register in; a drawable belongs to at most one Batch.
//
// A Batch draws its members by ascending z. Members with equal z draw in the
// order they were added, so later ones end up on top.
//
// # Viewports
//
// A [Viewport] owns a Batch of its own. Each frame it renders that Batch
// into an offscreen texture cleared to BackColor, then draws the texture as
// a quad wherever the viewport itself is registered. Viewports nest.
//
// # Particles
//
// An [Emitter] is configured with an [EmitterConfig] whose fields are
// [Param] values, either [Fixed] or [Between]. Presets can be written in
// YAML and read with [LoadEmitterConfig].
//
// # Tweens
//
// [TweenPosition], [TweenScale], [TweenAngle], [TweenOpacity], and
// [TweenColor] animate drawables with easing functions from [gween].
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package canopy
