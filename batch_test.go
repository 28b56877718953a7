package canopy

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

func newTestSprite(t *testing.T, g *Graphics, b *Batch, z int) *Sprite {
	t.Helper()
	s, err := NewSprite(g, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.SetZ(z)
	return s
}

func TestBatchOrdersByZThenInsertion(t *testing.T) {
	g, _ := newTestGraphics(t)
	b := NewBatch()
	first := newTestSprite(t, g, b, 5)
	low := newTestSprite(t, g, b, 1)
	second := newTestSprite(t, g, b, 5)

	got := b.Items()
	want := []Drawable{low, first, second}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Items()[%d] = sprite %d, want sprite %d", i, got[i].(*Sprite).ID(), want[i].(*Sprite).ID())
		}
	}
}

func TestBatchStableForManyMembers(t *testing.T) {
	g, _ := newTestGraphics(t)
	b := NewBatch()
	for i := 0; i < 100; i++ {
		newTestSprite(t, g, b, (i*7)%5)
	}

	items := b.Items()
	for i := 1; i < len(items); i++ {
		prev, cur := items[i-1].(*Sprite), items[i].(*Sprite)
		if prev.Z() > cur.Z() {
			t.Fatalf("z out of order at %d: %d > %d", i, prev.Z(), cur.Z())
		}
		if prev.Z() == cur.Z() && prev.ID() > cur.ID() {
			t.Fatalf("equal z not in insertion order at %d: id %d before %d", i, prev.ID(), cur.ID())
		}
	}
}

func TestBatchAddIsIdempotent(t *testing.T) {
	g, _ := newTestGraphics(t)
	b := NewBatch()
	s := newTestSprite(t, g, b, 0)

	added, err := b.Add(s)
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("second Add should report false")
	}
	if b.Len() != 1 {
		t.Errorf("Len = %d, want 1", b.Len())
	}
}

func TestBatchAddRejects(t *testing.T) {
	g, _ := newTestGraphics(t)
	b := NewBatch()

	if _, err := b.Add(nil); !errors.Is(err, ErrCapability) {
		t.Errorf("Add(nil) = %v, want ErrCapability", err)
	}

	s := newTestSprite(t, g, nil, 0)
	s.Dispose()
	if _, err := b.Add(s); !errors.Is(err, ErrDisposed) {
		t.Errorf("Add(disposed) = %v, want ErrDisposed", err)
	}
	if b.Len() != 0 {
		t.Errorf("Len = %d, want 0", b.Len())
	}
}

func TestBatchRejectsTypedNil(t *testing.T) {
	b := NewBatch()
	tests := []struct {
		name string
		d    Drawable
	}{
		{"sprite", (*Sprite)(nil)},
		{"atlas sprite", (*AtlasSprite)(nil)},
		{"plane", (*Plane)(nil)},
		{"viewport", (*Viewport)(nil)},
		{"emitter", (*Emitter)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := b.Add(tt.d); !errors.Is(err, ErrCapability) {
				t.Errorf("Add = %v, want ErrCapability", err)
			}
			if b.Contains(tt.d) || b.Remove(tt.d) {
				t.Error("a nil drawable is never a member")
			}
			if b.Len() != 0 {
				t.Errorf("Len = %d, want 0", b.Len())
			}
		})
	}
}

func TestBatchAddMovesMember(t *testing.T) {
	g, _ := newTestGraphics(t)
	from, to := NewBatch(), NewBatch()
	s := newTestSprite(t, g, from, 0)

	added, err := to.Add(s)
	if err != nil || !added {
		t.Fatalf("Add = %v, %v", added, err)
	}
	if from.Len() != 0 || from.Contains(s) {
		t.Error("sprite should have left its previous batch")
	}
	if s.Parent() != to {
		t.Error("Parent should be the new batch")
	}
}

func TestBatchRemove(t *testing.T) {
	g, _ := newTestGraphics(t)
	b := NewBatch()
	a := newTestSprite(t, g, b, 0)
	c := newTestSprite(t, g, b, 0)

	if !b.Remove(a) {
		t.Fatal("Remove of a member should report true")
	}
	if b.Remove(a) {
		t.Error("second Remove should report false")
	}
	if a.Parent() != nil {
		t.Error("removed sprite still has a parent")
	}
	if b.Len() != 1 || b.At(0) != c {
		t.Error("remaining member should be c")
	}
	if b.Remove(nil) {
		t.Error("Remove(nil) should report false")
	}
}

func TestBatchResortsAfterSetZ(t *testing.T) {
	g, _ := newTestGraphics(t)
	b := NewBatch()
	a := newTestSprite(t, g, b, 0)
	c := newTestSprite(t, g, b, 1)

	if b.At(0) != a {
		t.Fatal("a should draw first")
	}
	if b.Invalid() {
		t.Error("enumeration should leave the batch valid")
	}

	a.SetZ(2)
	if !b.Invalid() {
		t.Error("SetZ should invalidate the batch")
	}
	if b.At(0) != c {
		t.Error("c should draw first after a moved behind it")
	}

	c.SetZ(1)
	if b.Invalid() {
		t.Error("SetZ to the same depth should not invalidate")
	}
}

func TestBatchDisposeRemovesMember(t *testing.T) {
	g, _ := newTestGraphics(t)
	b := NewBatch()
	s := newTestSprite(t, g, b, 0)
	s.Dispose()
	if b.Len() != 0 {
		t.Errorf("Len = %d after dispose, want 0", b.Len())
	}
}

func TestBatchEach(t *testing.T) {
	g, _ := newTestGraphics(t)
	b := NewBatch()
	newTestSprite(t, g, b, 3)
	newTestSprite(t, g, b, -1)
	newTestSprite(t, g, b, 0)

	var zs []int
	b.Each(func(d Drawable) { zs = append(zs, d.Z()) })
	want := []int{-1, 0, 3}
	for i := range want {
		if zs[i] != want[i] {
			t.Errorf("Each z[%d] = %d, want %d", i, zs[i], want[i])
		}
	}
}

func TestBatchRenderInOrder(t *testing.T) {
	g, rec := newTestGraphics(t)
	b := NewBatch()
	imgs := []*Image{newTestImage(t, g, 2, 2), newTestImage(t, g, 2, 2), newTestImage(t, g, 2, 2)}
	for i, z := range []int{2, 0, 1} {
		s, err := NewSprite(g, b, imgs[i])
		if err != nil {
			t.Fatal(err)
		}
		s.SetZ(z)
	}

	if err := b.Render(1); err != nil {
		t.Fatal(err)
	}
	want := []Texture{imgs[1].Texture(), imgs[2].Texture(), imgs[0].Texture()}
	if len(rec.draws) != len(want) {
		t.Fatalf("draws = %d, want %d", len(rec.draws), len(want))
	}
	for i, tex := range want {
		if rec.draws[i].texture != tex {
			t.Errorf("draw %d texture = %d, want %d", i, rec.draws[i].texture, tex)
		}
	}
}

func TestBatchRenderJoinsErrors(t *testing.T) {
	g, rec := newTestGraphics(t)
	b := NewBatch()
	for i := 0; i < 2; i++ {
		s := newTestSprite(t, g, b, 0)
		if err := s.SetSize(4, 4); err != nil {
			t.Fatal(err)
		}
	}
	rec.failDraw = errDrawFailed

	err := b.Render(1)
	if !errors.Is(err, errDrawFailed) {
		t.Fatalf("Render = %v, want errDrawFailed", err)
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) || len(joined.Unwrap()) != 2 {
		t.Errorf("expected both failures to be reported, got %v", err)
	}
}

func TestBatchOrderUnderRandomMutation(t *testing.T) {
	g, _ := newTestGraphics(t)
	b := NewBatch()
	rng := rand.New(rand.NewPCG(7, 11))

	type member struct {
		s   *Sprite
		seq int
	}
	var (
		model   []member
		removed []*Sprite
		seq     int
	)
	for step := 0; step < 2000; step++ {
		switch op := rng.IntN(6); {
		case op == 0 || len(model) == 0:
			s := newTestSprite(t, g, b, rng.IntN(5))
			model = append(model, member{s, seq})
			seq++
		case op == 1:
			i := rng.IntN(len(model))
			if !b.Remove(model[i].s) {
				t.Fatalf("step %d: Remove reported false for a member", step)
			}
			removed = append(removed, model[i].s)
			model = slices.Delete(model, i, i+1)
		case op == 2 && len(removed) > 0:
			s := removed[len(removed)-1]
			removed = removed[:len(removed)-1]
			if added, err := b.Add(s); err != nil || !added {
				t.Fatalf("step %d: re-Add = %v, %v", step, added, err)
			}
			model = append(model, member{s, seq})
			seq++
		case op == 3:
			m := model[rng.IntN(len(model))]
			if added, _ := b.Add(m.s); added {
				t.Fatalf("step %d: Add of a member reported true", step)
			}
		case op == 4:
			model[rng.IntN(len(model))].s.SetZ(rng.IntN(5))
		default:
			i := rng.IntN(len(model))
			model[i].s.Dispose()
			model = slices.Delete(model, i, i+1)
		}

		if rng.IntN(3) > 0 {
			continue
		}
		want := slices.Clone(model)
		slices.SortFunc(want, func(a, c member) int {
			if a.s.Z() != c.s.Z() {
				return a.s.Z() - c.s.Z()
			}
			return a.seq - c.seq
		})
		got := b.Items()
		if len(got) != len(want) {
			t.Fatalf("step %d: Len = %d, want %d", step, len(got), len(want))
		}
		for i := range want {
			if got[i] != Drawable(want[i].s) {
				t.Fatalf("step %d: position %d holds id %d, want id %d",
					step, i, got[i].(*Sprite).ID(), want[i].s.ID())
			}
		}
	}
}
