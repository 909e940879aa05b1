package dvid

import (
	"fmt"
	"math"
)

// Vec2 is a 2d point in slice-pixel space.  Integer pixel (x, y) covers the
// unit square [x, x+1) x [y, y+1).
type Vec2 struct {
	X, Y float64
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}

// Distance returns the euclidean distance between two points.
func (v Vec2) Distance(w Vec2) float64 {
	return math.Hypot(v.X-w.X, v.Y-w.Y)
}

// Rect is a half-open integer rectangle [MinX, MaxX) x [MinY, MaxY) in pixel coordinates.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d)x[%d,%d)", r.MinX, r.MaxX, r.MinY, r.MaxY)
}

// Empty returns true if the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.MinX >= r.MaxX || r.MinY >= r.MaxY
}

// Contains returns true if pixel (x, y) is within the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x < r.MaxX && y >= r.MinY && y < r.MaxY
}

// Clamp returns the intersection of r with the slice [0, cols) x [0, rows).
func (r Rect) Clamp(rows, cols int) Rect {
	c := r
	if c.MinX < 0 {
		c.MinX = 0
	}
	if c.MinY < 0 {
		c.MinY = 0
	}
	if c.MaxX > cols {
		c.MaxX = cols
	}
	if c.MaxY > rows {
		c.MaxY = rows
	}
	if c.Empty() {
		return Rect{}
	}
	return c
}
