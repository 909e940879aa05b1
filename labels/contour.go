/*
	Package labels holds the algorithms that operate on a single labelmap slice: boundary
	contour extraction for rendering and the geometric region fills used by brush tools.
	All coordinates are slice-pixel coordinates; projection onto a display is left to the
	caller.
*/
package labels

import (
	"github.com/janelia-flyem/dvidseg/dvid"
	"github.com/janelia-flyem/dvidseg/labelmap"
)

// EdgeKind distinguishes boundary edges from the short corner stitches.
type EdgeKind uint8

const (
	BoundaryEdge EdgeKind = iota
	CornerStitch
)

func (k EdgeKind) String() string {
	if k == CornerStitch {
		return "stitch"
	}
	return "edge"
}

// LineSegment is a straight line in slice-pixel space.
type LineSegment struct {
	Start, End dvid.Vec2
	Kind       EdgeKind
}

// Contours maps a segment id to the line segments outlining it.
type Contours map[uint16][]LineSegment

// NumEdges returns the number of boundary edges and corner stitches for a segment.
func (c Contours) NumEdges(segment uint16) (edges, stitches int) {
	for _, line := range c[segment] {
		if line.Kind == CornerStitch {
			stitches++
		} else {
			edges++
		}
	}
	return
}

// ExtractContours returns the outline of every segment on a slice of rows x cols pixels.
//
// A voxel side gets a boundary edge when the neighbor across it is outside the slice or
// has a different label.  Each edge is moved halfWidth toward the voxel interior so a
// stroke of width 2*halfWidth stays inscribed in the segment.  Collinear edges of
// neighboring voxels with the same label are joined, so an axis-aligned rectangle gives
// exactly four edges.
//
// Inset edges leave a gap at concave corners.  When a voxel's diagonal neighbor differs
// while both axis neighbors sharing that diagonal have the voxel's label, a stitch of
// length 2*halfWidth is added along the voxel's row-side to close it.
//
// Segment 0 is never outlined.  Every segment listed in the slice's SegmentsPresent has
// an entry, even if empty.
func ExtractContours(slice *labelmap.Slice, rows, cols int, halfWidth float64) Contours {
	contours := make(Contours, len(slice.SegmentsPresent))
	for _, segment := range slice.SegmentsPresent {
		contours[segment] = []LineSegment{}
	}
	pixels := slice.Pixels
	h := halfWidth

	// Horizontal boundary edges, joined along rows.
	for y := 0; y < rows; y++ {
		row := pixels[y*cols : (y+1)*cols]
		topY, bottomY := float64(y)+h, float64(y+1)-h
		top := newEdgeRun(contours, func(x0, x1 int) (dvid.Vec2, dvid.Vec2) {
			return dvid.Vec2{X: float64(x0), Y: topY}, dvid.Vec2{X: float64(x1), Y: topY}
		})
		bottom := newEdgeRun(contours, func(x0, x1 int) (dvid.Vec2, dvid.Vec2) {
			return dvid.Vec2{X: float64(x0), Y: bottomY}, dvid.Vec2{X: float64(x1), Y: bottomY}
		})
		for x := 0; x < cols; x++ {
			label := row[x]
			var topLabel, bottomLabel uint16
			if label != 0 {
				if y == 0 || pixels[(y-1)*cols+x] != label {
					topLabel = label
				}
				if y == rows-1 || pixels[(y+1)*cols+x] != label {
					bottomLabel = label
				}
			}
			top.next(x, topLabel)
			bottom.next(x, bottomLabel)
		}
		top.close(cols)
		bottom.close(cols)
	}

	// Vertical boundary edges, joined along columns.
	for x := 0; x < cols; x++ {
		leftX, rightX := float64(x)+h, float64(x+1)-h
		left := newEdgeRun(contours, func(y0, y1 int) (dvid.Vec2, dvid.Vec2) {
			return dvid.Vec2{X: leftX, Y: float64(y0)}, dvid.Vec2{X: leftX, Y: float64(y1)}
		})
		right := newEdgeRun(contours, func(y0, y1 int) (dvid.Vec2, dvid.Vec2) {
			return dvid.Vec2{X: rightX, Y: float64(y0)}, dvid.Vec2{X: rightX, Y: float64(y1)}
		})
		for y := 0; y < rows; y++ {
			label := pixels[y*cols+x]
			var leftLabel, rightLabel uint16
			if label != 0 {
				if x == 0 || pixels[y*cols+x-1] != label {
					leftLabel = label
				}
				if x == cols-1 || pixels[y*cols+x+1] != label {
					rightLabel = label
				}
			}
			left.next(y, leftLabel)
			right.next(y, rightLabel)
		}
		left.close(rows)
		right.close(rows)
	}

	// Corner stitches at concave 1-voxel notches.
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			label := pixels[y*cols+x]
			if label == 0 {
				continue
			}
			at := func(dx, dy int) uint16 { return pixels[(y+dy)*cols+x+dx] }
			hasTop, hasBottom := y > 0, y < rows-1
			hasLeft, hasRight := x > 0, x < cols-1
			fx, fy := float64(x), float64(y)

			if hasTop && hasLeft && at(-1, -1) != label && at(0, -1) == label && at(-1, 0) == label {
				addStitch(contours, label, dvid.Vec2{X: fx, Y: fy + h}, dvid.Vec2{X: fx + 2*h, Y: fy + h})
			}
			if hasTop && hasRight && at(1, -1) != label && at(0, -1) == label && at(1, 0) == label {
				addStitch(contours, label, dvid.Vec2{X: fx + 1, Y: fy + h}, dvid.Vec2{X: fx + 1 - 2*h, Y: fy + h})
			}
			if hasBottom && hasLeft && at(-1, 1) != label && at(0, 1) == label && at(-1, 0) == label {
				addStitch(contours, label, dvid.Vec2{X: fx, Y: fy + 1 - h}, dvid.Vec2{X: fx + 2*h, Y: fy + 1 - h})
			}
			if hasBottom && hasRight && at(1, 1) != label && at(0, 1) == label && at(1, 0) == label {
				addStitch(contours, label, dvid.Vec2{X: fx + 1, Y: fy + 1 - h}, dvid.Vec2{X: fx + 1 - 2*h, Y: fy + 1 - h})
			}
		}
	}
	return contours
}

func addStitch(contours Contours, label uint16, start, end dvid.Vec2) {
	contours[label] = append(contours[label], LineSegment{Start: start, End: end, Kind: CornerStitch})
}

// edgeRun joins consecutive boundary edges of the same label along one scan line.
// endpoints maps a run [from, to) on the line to its inset start and end points.
type edgeRun struct {
	contours  Contours
	endpoints func(from, to int) (dvid.Vec2, dvid.Vec2)
	label     uint16
	start     int
}

func newEdgeRun(contours Contours, endpoints func(from, to int) (dvid.Vec2, dvid.Vec2)) *edgeRun {
	return &edgeRun{contours: contours, endpoints: endpoints}
}

// next advances the run to position i where label (0 for none) needs an edge.
func (r *edgeRun) next(i int, label uint16) {
	if label == r.label {
		return
	}
	r.close(i)
	r.label = label
	r.start = i
}

// close emits the current run, if any, ending before position i.
func (r *edgeRun) close(i int) {
	if r.label == 0 {
		return
	}
	start, end := r.endpoints(r.start, i)
	r.contours[r.label] = append(r.contours[r.label], LineSegment{Start: start, End: end, Kind: BoundaryEdge})
	r.label = 0
}
