package ecs

import (
	"errors"
	"fmt"

	"github.com/phanxgames/canopy"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// DrawableData is the component payload: the drawable an entity stands for.
type DrawableData struct {
	Drawable canopy.Drawable
}

// DrawableComponent marks entities backed by a canopy drawable.
var DrawableComponent = donburi.NewComponentType[DrawableData]()

// DisposedEvent is published when UpdateSystem removes an entity whose
// drawable was disposed.
type DisposedEvent struct {
	Entity donburi.Entity
}

// DisposedEventType carries DisposedEvent. Subscribe to it and call
// ProcessEvents after UpdateSystem.
var DisposedEventType = events.NewEventType[DisposedEvent]()

var drawables = donburi.NewQuery(filter.Contains(DrawableComponent))

// Attach creates an entity for d.
func Attach(world donburi.World, d canopy.Drawable) donburi.Entity {
	e := world.Create(DrawableComponent)
	DrawableComponent.SetValue(world.Entry(e), DrawableData{Drawable: d})
	return e
}

// Drawable returns the drawable of entity e, or nil if e is gone or has no
// drawable.
func Drawable(world donburi.World, e donburi.Entity) canopy.Drawable {
	if !world.Valid(e) {
		return nil
	}
	entry := world.Entry(e)
	if !entry.HasComponent(DrawableComponent) {
		return nil
	}
	return DrawableComponent.Get(entry).Drawable
}

// UpdateSystem advances every live drawable by delta seconds. Entities whose
// drawable is nil or disposed are removed and announced with DisposedEvent.
// Update errors are joined; one failing drawable does not stop the rest.
func UpdateSystem(world donburi.World, delta float64) error {
	var (
		errs []error
		dead []donburi.Entity
	)
	drawables.Each(world, func(entry *donburi.Entry) {
		d := DrawableComponent.Get(entry).Drawable
		if d == nil || d.Disposed() {
			dead = append(dead, entry.Entity())
			return
		}
		if err := d.Update(delta); err != nil {
			errs = append(errs, fmt.Errorf("ecs: entity %v: %w", entry.Entity(), err))
		}
	})
	for _, e := range dead {
		world.Remove(e)
		DisposedEventType.Publish(world, DisposedEvent{Entity: e})
	}
	return errors.Join(errs...)
}

// DisposeAll disposes every drawable in the world and removes its entity.
func DisposeAll(world donburi.World) {
	var all []donburi.Entity
	drawables.Each(world, func(entry *donburi.Entry) {
		if d := DrawableComponent.Get(entry).Drawable; d != nil {
			d.Dispose()
		}
		all = append(all, entry.Entity())
	})
	for _, e := range all {
		world.Remove(e)
	}
}

// Count returns the number of entities carrying a drawable.
func Count(world donburi.World) int {
	return drawables.Count(world)
}
