package labels

import (
	"math"

	"github.com/janelia-flyem/dvidseg/dvid"
)

// Ellipse is an axis-aligned ellipse given by its bounding box in slice-pixel space.
type Ellipse struct {
	Left, Top     float64
	Width, Height float64
}

// CircleFromHandles returns the circle centered on start that passes through end,
// as drawn by a radius drag.
func CircleFromHandles(start, end dvid.Vec2) Ellipse {
	r := start.Distance(end)
	return Ellipse{Left: start.X - r, Top: start.Y - r, Width: 2 * r, Height: 2 * r}
}

// Center returns the ellipse center.
func (e Ellipse) Center() dvid.Vec2 {
	return dvid.Vec2{X: e.Left + e.Width/2, Y: e.Top + e.Height/2}
}

// Contains returns true if p is inside or on the ellipse.
func (e Ellipse) Contains(p dvid.Vec2) bool {
	c := e.Center()
	rx, ry := e.Width/2, e.Height/2
	dx, dy := p.X-c.X, p.Y-c.Y
	if rx <= 0 || ry <= 0 {
		return dx == 0 && dy == 0
	}
	return (dx*dx)/(rx*rx)+(dy*dy)/(ry*ry) <= 1.0
}

// ContainsPixel samples the ellipse at the center of pixel (x, y).
func (e Ellipse) ContainsPixel(x, y int) bool {
	return e.Contains(dvid.Vec2{X: float64(x) + 0.5, Y: float64(y) + 0.5})
}

// BoundingBoxAroundEllipse returns the pixels that could have centers within the
// ellipse, clamped to a slice of rows x cols.
func BoundingBoxAroundEllipse(e Ellipse, rows, cols int) dvid.Rect {
	box := dvid.Rect{
		MinX: int(math.Floor(e.Left)),
		MinY: int(math.Floor(e.Top)),
		MaxX: int(math.Floor(e.Left+e.Width)) + 1,
		MaxY: int(math.Floor(e.Top+e.Height)) + 1,
	}
	return box.Clamp(rows, cols)
}
