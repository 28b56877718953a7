// Package ecs hosts canopy drawables inside a [Donburi] world.
//
// Each drawable becomes an entity carrying a [DrawableComponent]. Run
// [UpdateSystem] once per tick instead of canopy.UpdateAll: it advances every
// live drawable, removes entities whose drawable was disposed, and publishes
// a [DisposedEvent] for each of them. Rendering still goes through the batch
// the drawable was created in.
//
// Usage:
//
//	world := donburi.NewWorld()
//	e := ecs.Attach(world, sprite)
//	...
//	if err := ecs.UpdateSystem(world, 1.0/60); err != nil { ... }
//	ecs.DisposedEventType.ProcessEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
