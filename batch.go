package canopy

import (
	"errors"
	"fmt"
)

// batchEntry pairs a member with the sequence number it was added under.
// The sequence breaks ties between members at the same depth.
type batchEntry struct {
	d   Drawable
	seq uint64
}

// Batch is an ordered set of drawables sharing one render target. Members
// are enumerated by ascending Z; members at equal Z keep the order they were
// added in. The order is recomputed lazily, on the first enumeration after a
// member was added or changed depth.
//
// A drawable belongs to at most one Batch at a time.
type Batch struct {
	entries []batchEntry
	sortBuf []batchEntry
	seq     uint64
	invalid bool
}

// NewBatch returns an empty Batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Add appends d. It returns false without changing anything if d is already
// a member. A drawable registered in another Batch is moved out of it first.
func (b *Batch) Add(d Drawable) (bool, error) {
	if d == nil {
		return false, fmt.Errorf("canopy: batch add <nil>: %w", ErrCapability)
	}
	r := d.base()
	if r == nil {
		return false, fmt.Errorf("canopy: batch add %T: %w", d, ErrCapability)
	}
	if r.disposed {
		return false, fmt.Errorf("canopy: batch add: %w", ErrDisposed)
	}
	if r.batch == b {
		return false, nil
	}
	if r.batch != nil {
		r.batch.Remove(d)
	}
	b.entries = append(b.entries, batchEntry{d: d, seq: b.seq})
	b.seq++
	r.batch = b
	b.invalid = true
	return true, nil
}

// Remove takes d out of the Batch. It reports whether d was a member.
func (b *Batch) Remove(d Drawable) bool {
	if !b.Contains(d) {
		return false
	}
	for i := range b.entries {
		if b.entries[i].d == d {
			copy(b.entries[i:], b.entries[i+1:])
			b.entries[len(b.entries)-1] = batchEntry{}
			b.entries = b.entries[:len(b.entries)-1]
			break
		}
	}
	d.base().batch = nil
	return true
}

// Contains reports whether d is a member.
func (b *Batch) Contains(d Drawable) bool {
	if d == nil {
		return false
	}
	r := d.base()
	return r != nil && r.batch == b
}

// Invalidate forces a sort before the next enumeration.
func (b *Batch) Invalidate() { b.invalid = true }

// Invalid reports whether the next enumeration will sort.
func (b *Batch) Invalid() bool { return b.invalid }

// Len returns the number of members.
func (b *Batch) Len() int { return len(b.entries) }

// At returns the i-th member in draw order.
func (b *Batch) At(i int) Drawable {
	b.sort()
	return b.entries[i].d
}

// Items returns the members in draw order. The slice is freshly allocated.
func (b *Batch) Items() []Drawable {
	b.sort()
	out := make([]Drawable, len(b.entries))
	for i := range b.entries {
		out[i] = b.entries[i].d
	}
	return out
}

// Each calls fn for every member in draw order. fn must not add or remove
// members of b.
func (b *Batch) Each(fn func(Drawable)) {
	b.sort()
	for i := range b.entries {
		fn(b.entries[i].d)
	}
}

// Render draws every live member in order. Errors from individual members
// do not stop the pass; they are joined and returned together.
func (b *Batch) Render(alpha float64) error {
	b.sort()
	var errs []error
	for i := range b.entries {
		d := b.entries[i].d
		if d.Disposed() {
			continue
		}
		if err := d.Render(alpha); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sort restores draw order if the Batch is invalid.
func (b *Batch) sort() {
	if !b.invalid {
		return
	}
	b.mergeSort()
	b.invalid = false
}

// entryLessOrEqual reports whether a draws before or at the same position
// as b.
func entryLessOrEqual(a, b batchEntry) bool {
	za, zb := a.d.Z(), b.d.Z()
	if za != zb {
		return za < zb
	}
	return a.seq <= b.seq
}

// mergeSort sorts b.entries in place using b.sortBuf as scratch space.
// Bottom-up: no allocations once the scratch buffer reaches its high-water
// mark.
func (b *Batch) mergeSort() {
	n := len(b.entries)
	if n <= 1 {
		return
	}
	if cap(b.sortBuf) < n {
		b.sortBuf = make([]batchEntry, n)
	}
	b.sortBuf = b.sortBuf[:n]

	src := b.entries
	dst := b.sortBuf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeEntries(src, dst, lo, mid, hi)
		}
		src, dst = dst, src
		swapped = !swapped
	}

	if swapped {
		copy(b.entries, b.sortBuf)
	}
	clear(b.sortBuf)
}

// mergeEntries merges the sorted runs [lo, mid) and [mid, hi) of src into dst.
func mergeEntries(src, dst []batchEntry, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if entryLessOrEqual(src[i], src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], src[i:mid])
	copy(dst[k:], src[j:hi])
}
