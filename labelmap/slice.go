package labelmap

// Slice is a 2d view of one frame of its parent Volume's buffer.  SegmentsPresent
// is derived and must be recomputed through UpdateSegmentsPresent after Pixels change.
type Slice struct {
	Pixels          []uint16
	SegmentsPresent []uint16
}

// UpdateSegmentsPresent recomputes the ascending list of nonzero segments in Pixels.
func (s *Slice) UpdateSegmentsPresent() {
	s.SegmentsPresent = SegmentsOnPixelData(s.Pixels)
}

// HasSegment returns true if segment was present when SegmentsPresent was last computed.
func (s *Slice) HasSegment(segment uint16) bool {
	for _, seg := range s.SegmentsPresent {
		if seg == segment {
			return true
		}
	}
	return false
}

// SegmentsOnPixelData returns the ascending nonzero labels found in pixels.
func SegmentsOnPixelData(pixels []uint16) []uint16 {
	var seen [(MaxSegments + 1) / 64]uint64
	var n int
	for _, label := range pixels {
		if label == 0 {
			continue
		}
		word, bit := label>>6, uint64(1)<<(label&63)
		if seen[word]&bit == 0 {
			seen[word] |= bit
			n++
		}
	}
	if n == 0 {
		return nil
	}
	segments := make([]uint16, 0, n)
	for word, bits := range seen {
		for b := 0; bits != 0; b++ {
			if bits&1 != 0 {
				segments = append(segments, uint16(word<<6|b))
			}
			bits >>= 1
		}
	}
	return segments
}
