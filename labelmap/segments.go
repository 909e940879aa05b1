package labelmap

import "fmt"

// GetMetadata returns the metadata for a segment or nil if none has been set.
func (v *Volume) GetMetadata(segment uint16) interface{} {
	if int(segment) >= len(v.Metadata) {
		return nil
	}
	return v.Metadata[segment]
}

// SetMetadata sets application-specific metadata for a segment.
func (v *Volume) SetMetadata(segment uint16, metadata interface{}) {
	if int(segment) >= len(v.Metadata) {
		grown := make([]interface{}, int(segment)+1)
		copy(grown, v.Metadata)
		v.Metadata = grown
	}
	v.Metadata[segment] = metadata
}

func (v *Volume) maxSegment() uint16 {
	if v.SegmentsPerLabelmap <= 0 || v.SegmentsPerLabelmap > MaxSegments {
		return MaxSegments
	}
	return uint16(v.SegmentsPerLabelmap)
}

// SetActiveSegmentIndex sets the segment that edits on this volume paint with.
func (v *Volume) SetActiveSegmentIndex(segment uint16) error {
	if segment == 0 || segment > v.maxSegment() {
		return fmt.Errorf("segment %d outside valid range 1..%d", segment, v.maxSegment())
	}
	v.ActiveSegmentIndex = segment
	return nil
}

// IncrementActiveSegmentIndex moves to the next segment, wrapping back to 1.
func (v *Volume) IncrementActiveSegmentIndex() uint16 {
	if v.ActiveSegmentIndex >= v.maxSegment() {
		v.ActiveSegmentIndex = 1
	} else {
		v.ActiveSegmentIndex++
	}
	return v.ActiveSegmentIndex
}

// DecrementActiveSegmentIndex moves to the previous segment, wrapping to the last one.
func (v *Volume) DecrementActiveSegmentIndex() uint16 {
	if v.ActiveSegmentIndex <= 1 {
		v.ActiveSegmentIndex = v.maxSegment()
	} else {
		v.ActiveSegmentIndex--
	}
	return v.ActiveSegmentIndex
}

// IsSegmentVisible returns false if the segment has been hidden.
func (v *Volume) IsSegmentVisible(segment uint16) bool {
	_, hidden := v.HiddenSegments[segment]
	return !hidden
}

// ToggleSegmentVisibility flips a segment's visibility and returns the new state.
func (v *Volume) ToggleSegmentVisibility(segment uint16) bool {
	if _, hidden := v.HiddenSegments[segment]; hidden {
		delete(v.HiddenSegments, segment)
		return true
	}
	v.HiddenSegments[segment] = struct{}{}
	return false
}

// SegmentAt returns the label at pixel (x, y) of frame sliceIndex, or 0 if the
// frame has nothing painted.
func (v *Volume) SegmentAt(sliceIndex, x, y int) uint16 {
	s := v.Slices[sliceIndex]
	if s == nil {
		return 0
	}
	return s.Pixels[y*v.Cols+x]
}

// DeleteSegment zeroes every voxel of a segment and drops its metadata.
// It returns the indices of frames that were modified.
func (v *Volume) DeleteSegment(segment uint16) []int {
	if segment == 0 {
		return nil
	}
	var modified []int
	for i, s := range v.Slices {
		if s == nil || !s.HasSegment(segment) {
			continue
		}
		for j, label := range s.Pixels {
			if label == segment {
				s.Pixels[j] = 0
			}
		}
		v.UpdateSlice(i)
		modified = append(modified, i)
	}
	if int(segment) < len(v.Metadata) {
		v.Metadata[segment] = nil
	}
	return modified
}

// SegmentStats describes the extent of one segment within a volume.
type SegmentStats struct {
	Voxels   int
	MinSlice int
	MaxSlice int
}

// Stats returns voxel counts and frame extents for every segment in the volume.
func (v *Volume) Stats() map[uint16]SegmentStats {
	stats := make(map[uint16]SegmentStats)
	for i, s := range v.Slices {
		if s == nil {
			continue
		}
		for _, label := range s.Pixels {
			if label == 0 {
				continue
			}
			st, found := stats[label]
			if !found {
				st.MinSlice = i
			}
			st.Voxels++
			st.MaxSlice = i
			stats[label] = st
		}
	}
	return stats
}
