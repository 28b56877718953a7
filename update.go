package canopy

import (
	"errors"
	"fmt"
)

// UpdateAll advances every live drawable reachable from root by delta
// seconds: root's members in draw order, and for each viewport the members
// of its own Batch right after the viewport itself. Each Batch's member list
// is captured before its pass; members disposed by an earlier update in the
// same pass are skipped.
func UpdateAll(root *Batch, delta float64) error {
	return updateBatch(root, delta, 0)
}

func updateBatch(b *Batch, delta float64, depth int) error {
	if depth > MaxViewportDepth {
		return fmt.Errorf("canopy: update viewport at depth %d: %w", depth, ErrViewportDepth)
	}
	var errs []error
	for _, d := range b.Items() {
		if d.Disposed() {
			continue
		}
		if err := d.Update(delta); err != nil {
			errs = append(errs, err)
		}
		if vp, ok := d.(*Viewport); ok && !vp.Disposed() {
			if err := updateBatch(vp.children, delta, depth+1); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
