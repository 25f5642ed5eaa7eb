package media

import (
	"image"
	"testing"
)

// recordingVisitor captures the traversal a draw frame produces.
type recordingVisitor struct {
	pushes []FrameTransform
	visits []Frame
	pops   int
}

func (v *recordingVisitor) Push(t FrameTransform) { v.pushes = append(v.pushes, t) }
func (v *recordingVisitor) Visit(f Frame)         { v.visits = append(v.visits, f) }
func (v *recordingVisitor) Pop()                  { v.pops++ }

func testFrame() Frame {
	return &MemFrame{Pix: image.NewRGBA(image.Rect(0, 0, 2, 2))}
}

func TestEmptyDraw(t *testing.T) {
	t.Parallel()

	d := EmptyDraw()
	if !d.IsEmpty() {
		t.Error("EmptyDraw().IsEmpty(): got false, want true")
	}
	if got := d.Transform.Opacity; got != 1 {
		t.Errorf("empty frame opacity: got %v, want 1", got)
	}

	v := &recordingVisitor{}
	d.Accept(v)
	if len(v.visits) != 0 {
		t.Errorf("empty frame visits: got %d, want 0", len(v.visits))
	}
	if len(v.pushes) != 1 || v.pops != 1 {
		t.Errorf("empty frame push/pop: got %d/%d, want 1/1", len(v.pushes), v.pops)
	}
}

func TestDrawFrameAcceptLeaf(t *testing.T) {
	t.Parallel()

	tr := IdentityTransform()
	tr.Opacity = 0.5
	d := NewDrawFrame(testFrame(), tr)

	v := &recordingVisitor{}
	d.Accept(v)

	if len(v.visits) != 1 {
		t.Fatalf("visits: got %d, want 1", len(v.visits))
	}
	if len(v.pushes) != 1 || v.pushes[0].Opacity != 0.5 {
		t.Errorf("pushed transform: got %+v, want opacity 0.5", v.pushes)
	}
}

func TestInterlaceAssignsFields(t *testing.T) {
	t.Parallel()

	f := testFrame()
	a := NewDrawFrame(f, IdentityTransform())
	b := NewDrawFrame(f, IdentityTransform())

	woven := Interlace(a, b, Upper)
	if woven.IsEmpty() {
		t.Fatal("interlaced frame is empty")
	}

	v := &recordingVisitor{}
	woven.Accept(v)

	// Root push plus one per field.
	if len(v.pushes) != 3 {
		t.Fatalf("pushes: got %d, want 3", len(v.pushes))
	}
	if got := v.pushes[1].FieldMode; got != Upper {
		t.Errorf("first field: got %v, want Upper", got)
	}
	if got := v.pushes[2].FieldMode; got != Lower {
		t.Errorf("second field: got %v, want Lower", got)
	}
	if got := v.pushes[2].Volume; got != 0 {
		t.Errorf("second field volume: got %v, want 0 (same audio must not mix twice)", got)
	}
	if len(v.visits) != 2 {
		t.Errorf("visits: got %d, want 2", len(v.visits))
	}
}

func TestInterlaceProgressivePassthrough(t *testing.T) {
	t.Parallel()

	a := NewDrawFrame(testFrame(), IdentityTransform())
	b := NewDrawFrame(testFrame(), IdentityTransform())

	woven := Interlace(a, b, Progressive)
	if woven.Frame() != a.Frame() {
		t.Error("progressive interlace should return the first frame unchanged")
	}
}

func TestTransformCombine(t *testing.T) {
	t.Parallel()

	parent := IdentityTransform()
	parent.Opacity = 0.5
	parent.Volume = 0.5
	parent.FillScale = [2]float64{0.5, 0.5}
	parent.FillTranslation = [2]float64{0.25, 0.25}

	child := IdentityTransform()
	child.Opacity = 0.5
	child.FillTranslation = [2]float64{0.5, 0.5}

	got := parent.Combine(child)
	if got.Opacity != 0.25 {
		t.Errorf("opacity: got %v, want 0.25", got.Opacity)
	}
	if got.Volume != 0.5 {
		t.Errorf("volume: got %v, want 0.5", got.Volume)
	}
	// Child offset lands halfway into the parent's half-size rect.
	if got.FillTranslation != [2]float64{0.5, 0.5} {
		t.Errorf("translation: got %v, want [0.5 0.5]", got.FillTranslation)
	}
	if got.FillScale != [2]float64{0.5, 0.5} {
		t.Errorf("scale: got %v, want [0.5 0.5]", got.FillScale)
	}
}
