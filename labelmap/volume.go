/*
	Package labelmap implements the labelmap data model: a Volume holds the 16-bit label
	buffer for an entire image stack, and lazily created Slice views project one frame of
	that buffer without copying.
*/
package labelmap

import (
	"fmt"

	"github.com/janelia-flyem/dvidseg/dvid"
	"github.com/twinj/uuid"
)

// MaxSegments is the storage ceiling on segment ids for 16-bit labels.
const MaxSegments = 65535

// Snapshot is a compressed, timestamped copy of an entire Volume buffer.
type Snapshot struct {
	Time       uint64
	Compressed []byte
}

// Volume is the 3d labelmap for one segmentation of an image stack.  Slices are
// index-aligned with in-stack image positions and are nil where nothing is painted.
//
// A Volume is not safe for concurrent use.  Edits and history operations against
// the same volume must be serialized by the caller.
type Volume struct {
	ID         string
	Rows, Cols int
	SliceCount int

	Buffer []uint16
	Slices []*Slice

	// Metadata is optional application-specific data indexed by segment id.
	Metadata []interface{}

	ActiveSegmentIndex  uint16
	HiddenSegments      map[uint16]struct{}
	SegmentsPerLabelmap int

	Undo []Snapshot
	Redo []Snapshot

	// PendingCompressions is the number of in-flight asynchronous snapshot compressions.
	PendingCompressions int
}

// NewVolume returns an all-zero volume for a stack of sliceCount frames of rows x cols.
func NewVolume(rows, cols, sliceCount int) (*Volume, error) {
	if rows <= 0 || cols <= 0 || sliceCount <= 0 {
		return nil, fmt.Errorf("bad labelmap dimensions %d x %d x %d", cols, rows, sliceCount)
	}
	return newVolume(rows, cols, sliceCount, make([]uint16, rows*cols*sliceCount)), nil
}

// NewVolumeFromBuffer wraps an existing label buffer, building slice views for any
// frame that has a labeled voxel.
func NewVolumeFromBuffer(rows, cols, sliceCount int, buffer []uint16) (*Volume, error) {
	if rows <= 0 || cols <= 0 || sliceCount <= 0 {
		return nil, fmt.Errorf("bad labelmap dimensions %d x %d x %d", cols, rows, sliceCount)
	}
	if len(buffer) != rows*cols*sliceCount {
		return nil, fmt.Errorf("buffer has %d labels, expected %d for %d x %d x %d volume",
			len(buffer), rows*cols*sliceCount, cols, rows, sliceCount)
	}
	v := newVolume(rows, cols, sliceCount, buffer)
	v.Slices = v.buildSlices(buffer)
	return v, nil
}

func newVolume(rows, cols, sliceCount int, buffer []uint16) *Volume {
	return &Volume{
		ID:                  fmt.Sprintf("%x", uuid.NewV4().Bytes()),
		Rows:                rows,
		Cols:                cols,
		SliceCount:          sliceCount,
		Buffer:              buffer,
		Slices:              make([]*Slice, sliceCount),
		ActiveSegmentIndex:  1,
		HiddenSegments:      make(map[uint16]struct{}),
		SegmentsPerLabelmap: MaxSegments,
	}
}

func (v *Volume) String() string {
	return fmt.Sprintf("labelmap %s (%d x %d x %d)", v.ID, v.Cols, v.Rows, v.SliceCount)
}

// SliceLen is the number of labels in one frame.
func (v *Volume) SliceLen() int {
	return v.Rows * v.Cols
}

// SliceBytes is the serialized size of one frame, i.e., the stride between frames
// in a snapshot.
func (v *Volume) SliceBytes() int {
	return v.Rows * v.Cols * 2
}

// pixels returns the view of frame i within buf.
func (v *Volume) pixels(buf []uint16, i int) []uint16 {
	n := v.SliceLen()
	return buf[i*n : (i+1)*n : (i+1)*n]
}

// Labelmap2D returns the slice view for frame i, creating one if the frame has
// nothing painted yet.  The returned view is only retained by the volume once
// UpdateSlice finds a segment on it.
func (v *Volume) Labelmap2D(i int) *Slice {
	if s := v.Slices[i]; s != nil {
		return s
	}
	return &Slice{Pixels: v.pixels(v.Buffer, i)}
}

// UpdateSlice recomputes the segments present in frame i after a mutation of its
// pixels and keeps the volume's slice list sparse.  It returns the current view or
// nil if the frame is now empty.
func (v *Volume) UpdateSlice(i int) *Slice {
	s := v.Slices[i]
	if s == nil {
		s = &Slice{Pixels: v.pixels(v.Buffer, i)}
	}
	s.UpdateSegmentsPresent()
	if len(s.SegmentsPresent) == 0 {
		v.Slices[i] = nil
		return nil
	}
	v.Slices[i] = s
	return s
}

func (v *Volume) buildSlices(buf []uint16) []*Slice {
	slices := make([]*Slice, v.SliceCount)
	for i := range slices {
		s := &Slice{Pixels: v.pixels(buf, i)}
		s.UpdateSegmentsPresent()
		if len(s.SegmentsPresent) != 0 {
			slices[i] = s
		}
	}
	return slices
}

// ReplaceBuffer swaps in a whole new label buffer, e.g., from an undo snapshot.
// The prior slice views are invalidated wholesale.  The buffer and slices are only
// assigned after the new views are fully built.
func (v *Volume) ReplaceBuffer(buf []uint16) error {
	if len(buf) != len(v.Buffer) {
		return fmt.Errorf("replacement buffer has %d labels, %s needs %d: %w",
			len(buf), v, len(v.Buffer), dvid.ErrSnapshotSizeMismatch)
	}
	slices := v.buildSlices(buf)
	v.Buffer = buf
	v.Slices = slices
	return nil
}

// Bytes returns a little-endian copy of the label buffer.
func (v *Volume) Bytes() []byte {
	return dvid.Uint16sToBytes(v.Buffer)
}
