package labels

import (
	"fmt"

	"github.com/janelia-flyem/dvidseg/dvid"
	"github.com/janelia-flyem/dvidseg/labelmap"
)

// Shape identifies the kind of interaction that produced a region descriptor.
type Shape uint8

const (
	UnknownShape Shape = iota
	CircleShape
	RectangleShape
)

func (s Shape) String() string {
	switch s {
	case CircleShape:
		return "circle"
	case RectangleShape:
		return "rectangle"
	default:
		return "unknown"
	}
}

// Region is the geometry of an interaction that a fill operation applies.
// Each fill requires a particular concrete region and refuses any other.
type Region interface {
	Shape() Shape
}

// CircleRegion is the descriptor produced by circular interactions such as a brush.
type CircleRegion struct {
	Ellipse Ellipse
	Box     dvid.Rect
}

func (CircleRegion) Shape() Shape { return CircleShape }

// NewCircleRegion builds a circle descriptor from the drag handles of a circle
// interaction on a slice of rows x cols.
func NewCircleRegion(start, end dvid.Vec2, rows, cols int) CircleRegion {
	e := CircleFromHandles(start, end)
	return CircleRegion{Ellipse: e, Box: BoundingBoxAroundEllipse(e, rows, cols)}
}

// RectangleRegion is the descriptor produced by rectangle interactions.
type RectangleRegion struct {
	Box dvid.Rect
}

func (RectangleRegion) Shape() Shape { return RectangleShape }

func circleRegion(op string, region Region) (CircleRegion, error) {
	circle, ok := region.(CircleRegion)
	if !ok {
		shape := shapeOf(region)
		dvid.Errorf("%s operation requires circle region, received %s\n", op, shape)
		return CircleRegion{}, fmt.Errorf("%s got %s region: %w", op, shape, dvid.ErrDescriptorMismatch)
	}
	return circle, nil
}

// FillInsideCircle sets every pixel of the region's bounding box whose center lies in
// the ellipse to segment.  The slice's SegmentsPresent is not updated.
func FillInsideCircle(slice *labelmap.Slice, rows, cols int, segment uint16, region Region) error {
	circle, err := circleRegion("FillInsideCircle", region)
	if err != nil {
		return err
	}
	box := circle.Box.Clamp(rows, cols)
	for y := box.MinY; y < box.MaxY; y++ {
		for x := box.MinX; x < box.MaxX; x++ {
			if circle.Ellipse.ContainsPixel(x, y) {
				slice.Pixels[y*cols+x] = segment
			}
		}
	}
	return nil
}

// FillOutsideCircle sets every pixel of the slice whose center lies outside the
// ellipse to segment.  Pixels outside the bounding box are filled first, then the
// pixels of the box outside the ellipse.  The slice's SegmentsPresent is not updated.
func FillOutsideCircle(slice *labelmap.Slice, rows, cols int, segment uint16, region Region) error {
	circle, err := circleRegion("FillOutsideCircle", region)
	if err != nil {
		return err
	}
	box := circle.Box.Clamp(rows, cols)
	FillOutsideBoundingBox(slice, rows, cols, segment, box)
	for y := box.MinY; y < box.MaxY; y++ {
		for x := box.MinX; x < box.MaxX; x++ {
			if !circle.Ellipse.ContainsPixel(x, y) {
				slice.Pixels[y*cols+x] = segment
			}
		}
	}
	return nil
}

// FillInsideRectangle sets every pixel of a rectangle region to segment.
func FillInsideRectangle(slice *labelmap.Slice, rows, cols int, segment uint16, region Region) error {
	rect, ok := region.(RectangleRegion)
	if !ok {
		return fmt.Errorf("FillInsideRectangle got %s region: %w", shapeOf(region), dvid.ErrDescriptorMismatch)
	}
	box := rect.Box.Clamp(rows, cols)
	for y := box.MinY; y < box.MaxY; y++ {
		row := slice.Pixels[y*cols+box.MinX : y*cols+box.MaxX]
		for i := range row {
			row[i] = segment
		}
	}
	return nil
}

// FillOutsideRectangle sets every pixel outside a rectangle region to segment.
func FillOutsideRectangle(slice *labelmap.Slice, rows, cols int, segment uint16, region Region) error {
	rect, ok := region.(RectangleRegion)
	if !ok {
		return fmt.Errorf("FillOutsideRectangle got %s region: %w", shapeOf(region), dvid.ErrDescriptorMismatch)
	}
	FillOutsideBoundingBox(slice, rows, cols, segment, rect.Box.Clamp(rows, cols))
	return nil
}

// FillOutsideBoundingBox sets every pixel of the slice outside box to segment.
func FillOutsideBoundingBox(slice *labelmap.Slice, rows, cols int, segment uint16, box dvid.Rect) {
	for y := 0; y < rows; y++ {
		row := slice.Pixels[y*cols : (y+1)*cols]
		if y < box.MinY || y >= box.MaxY || box.Empty() {
			for x := range row {
				row[x] = segment
			}
			continue
		}
		for x := 0; x < box.MinX; x++ {
			row[x] = segment
		}
		for x := box.MaxX; x < cols; x++ {
			row[x] = segment
		}
	}
}

func shapeOf(region Region) Shape {
	if region == nil {
		return UnknownShape
	}
	return region.Shape()
}
