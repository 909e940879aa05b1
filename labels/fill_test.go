package labels

import (
	"errors"
	"testing"

	"github.com/janelia-flyem/dvidseg/dvid"
	"github.com/janelia-flyem/dvidseg/labelmap"
)

func blankSlice(rows, cols int) *labelmap.Slice {
	return &labelmap.Slice{Pixels: make([]uint16, rows*cols)}
}

func inCircle(x, y int, cx, cy, r float64) bool {
	dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
	return dx*dx+dy*dy <= r*r
}

func TestCircleRegion(t *testing.T) {
	region := NewCircleRegion(dvid.Vec2{X: 5, Y: 5}, dvid.Vec2{X: 5, Y: 7}, 10, 10)
	if region.Ellipse != (Ellipse{Left: 3, Top: 3, Width: 4, Height: 4}) {
		t.Errorf("bad ellipse from handles: %v\n", region.Ellipse)
	}
	if region.Box != (dvid.Rect{MinX: 3, MinY: 3, MaxX: 8, MaxY: 8}) {
		t.Errorf("bad bounding box: %v\n", region.Box)
	}

	clamped := NewCircleRegion(dvid.Vec2{X: 0, Y: 1}, dvid.Vec2{X: 3, Y: 1}, 4, 6)
	if clamped.Box != (dvid.Rect{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4}) {
		t.Errorf("expected box clamped to slice, got %v\n", clamped.Box)
	}
}

func TestEllipseContains(t *testing.T) {
	e := Ellipse{Left: 0, Top: 0, Width: 4, Height: 2}
	if !e.Contains(dvid.Vec2{X: 4, Y: 1}) {
		t.Errorf("expected boundary point to be inside\n")
	}
	if e.Contains(dvid.Vec2{X: 2, Y: 2.01}) {
		t.Errorf("expected point past minor axis to be outside\n")
	}
	point := Ellipse{Left: 2, Top: 2}
	if !point.Contains(dvid.Vec2{X: 2, Y: 2}) || point.Contains(dvid.Vec2{X: 2, Y: 2.5}) {
		t.Errorf("degenerate ellipse should only contain its center\n")
	}
}

func TestFillInsideCircle(t *testing.T) {
	rows, cols := 10, 12
	s := blankSlice(rows, cols)
	region := NewCircleRegion(dvid.Vec2{X: 5, Y: 5}, dvid.Vec2{X: 7, Y: 5}, rows, cols)
	if err := FillInsideCircle(s, rows, cols, 3, region); err != nil {
		t.Fatalf("unexpected fill error: %v\n", err)
	}
	var filled int
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			label := s.Pixels[y*cols+x]
			if want := inCircle(x, y, 5, 5, 2); want != (label == 3) {
				t.Errorf("pixel (%d,%d): expected inside=%t, got label %d\n", x, y, want, label)
			}
			if label == 3 {
				filled++
			}
		}
	}
	if filled != 12 {
		t.Errorf("expected 12 pixel centers within radius 2, got %d\n", filled)
	}
	if s.SegmentsPresent != nil {
		t.Errorf("fill should not update segments present\n")
	}
}

func TestFillOutsideCircle(t *testing.T) {
	rows, cols := 9, 9
	s := blankSlice(rows, cols)
	region := NewCircleRegion(dvid.Vec2{X: 4.5, Y: 4.5}, dvid.Vec2{X: 4.5, Y: 1.5}, rows, cols)
	if err := FillOutsideCircle(s, rows, cols, 2, region); err != nil {
		t.Fatalf("unexpected fill error: %v\n", err)
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			label := s.Pixels[y*cols+x]
			if inside := inCircle(x, y, 4.5, 4.5, 3); inside == (label == 2) {
				t.Errorf("pixel (%d,%d): inside=%t but label %d\n", x, y, inside, label)
			}
		}
	}
}

func TestInsideThenOutsideCoversSlice(t *testing.T) {
	rows, cols := 16, 20
	s := blankSlice(rows, cols)
	region := NewCircleRegion(dvid.Vec2{X: 14, Y: 3}, dvid.Vec2{X: 17, Y: 8}, rows, cols)
	if err := FillInsideCircle(s, rows, cols, 9, region); err != nil {
		t.Fatalf("inside fill failed: %v\n", err)
	}
	if err := FillOutsideCircle(s, rows, cols, 9, region); err != nil {
		t.Fatalf("outside fill failed: %v\n", err)
	}
	for i, label := range s.Pixels {
		if label != 9 {
			t.Fatalf("pixel %d not covered after inside+outside fills: %d\n", i, label)
		}
	}
}

func TestFillDescriptorMismatch(t *testing.T) {
	rows, cols := 4, 4
	s := blankSlice(rows, cols)
	rect := RectangleRegion{Box: dvid.Rect{MaxX: 4, MaxY: 4}}
	if err := FillInsideCircle(s, rows, cols, 1, rect); !errors.Is(err, dvid.ErrDescriptorMismatch) {
		t.Errorf("expected descriptor mismatch, got %v\n", err)
	}
	if err := FillOutsideCircle(s, rows, cols, 1, rect); !errors.Is(err, dvid.ErrDescriptorMismatch) {
		t.Errorf("expected descriptor mismatch, got %v\n", err)
	}
	if err := FillOutsideCircle(s, rows, cols, 1, nil); !errors.Is(err, dvid.ErrDescriptorMismatch) {
		t.Errorf("expected descriptor mismatch on nil region, got %v\n", err)
	}
	circle := NewCircleRegion(dvid.Vec2{X: 2, Y: 2}, dvid.Vec2{X: 3, Y: 2}, rows, cols)
	if err := FillInsideRectangle(s, rows, cols, 1, circle); !errors.Is(err, dvid.ErrDescriptorMismatch) {
		t.Errorf("expected descriptor mismatch, got %v\n", err)
	}
	for i, label := range s.Pixels {
		if label != 0 {
			t.Fatalf("refused fill mutated pixel %d\n", i)
		}
	}
}

func TestFillOutsideBoundingBox(t *testing.T) {
	rows, cols := 4, 5
	s := blankSlice(rows, cols)
	FillOutsideBoundingBox(s, rows, cols, 6, dvid.Rect{MinX: 1, MinY: 1, MaxX: 3, MaxY: 3})
	expected := []uint16{
		6, 6, 6, 6, 6,
		6, 0, 0, 6, 6,
		6, 0, 0, 6, 6,
		6, 6, 6, 6, 6,
	}
	for i := range expected {
		if s.Pixels[i] != expected[i] {
			t.Fatalf("bad outside bounding box fill.\nExpected %v\nGot %v\n", expected, s.Pixels)
		}
	}
}

func TestRectangleFills(t *testing.T) {
	rows, cols := 3, 4
	s := blankSlice(rows, cols)
	rect := RectangleRegion{Box: dvid.Rect{MinX: 2, MinY: 1, MaxX: 9, MaxY: 2}}
	if err := FillInsideRectangle(s, rows, cols, 4, rect); err != nil {
		t.Fatalf("rectangle fill failed: %v\n", err)
	}
	if err := FillOutsideRectangle(s, rows, cols, 1, rect); err != nil {
		t.Fatalf("outside rectangle fill failed: %v\n", err)
	}
	expected := []uint16{
		1, 1, 1, 1,
		1, 1, 4, 4,
		1, 1, 1, 1,
	}
	for i := range expected {
		if s.Pixels[i] != expected[i] {
			t.Fatalf("bad rectangle fills.\nExpected %v\nGot %v\n", expected, s.Pixels)
		}
	}
}
