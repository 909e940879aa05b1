package labels

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync/atomic"

	"github.com/coocood/freecache"
	"github.com/janelia-flyem/dvidseg/dvid"
	"github.com/janelia-flyem/dvidseg/labelmap"
)

// ContourCache memoizes ExtractContours keyed on slice contents, so re-rendering an
// unchanged slice does not re-trace it.  Any pixel change produces a new key, which
// makes explicit invalidation unnecessary.  It is safe for concurrent use.
type ContourCache struct {
	cache  *freecache.Cache
	hits   uint64
	misses uint64
}

// NewContourCache returns a cache holding roughly numBytes of encoded contours.
func NewContourCache(numBytes int) *ContourCache {
	c := &ContourCache{cache: freecache.NewCache(numBytes)}
	dvid.Infof("Created contour cache of ~ %s\n", dvid.HumanBytes(numBytes))
	return c
}

// Extract returns the contours of a slice, using a cached result when the slice
// contents, dimensions and half-width match a previous extraction.
func (c *ContourCache) Extract(slice *labelmap.Slice, rows, cols int, halfWidth float64) Contours {
	if c == nil || c.cache == nil {
		return ExtractContours(slice, rows, cols, halfWidth)
	}
	key := contourKey(slice, rows, cols, halfWidth)
	if encoded, err := c.cache.Get(key); err == nil {
		if contours, ok := decodeContours(encoded); ok {
			atomic.AddUint64(&c.hits, 1)
			return contours
		}
	} else if err != freecache.ErrNotFound {
		dvid.Errorf("contour cache get failed: %v\n", err)
	}
	atomic.AddUint64(&c.misses, 1)
	contours := ExtractContours(slice, rows, cols, halfWidth)
	if err := c.cache.Set(key, encodeContours(contours), 0); err != nil {
		dvid.Debugf("not caching contours for %d x %d slice: %v\n", cols, rows, err)
	}
	return contours
}

// Stats returns the number of cache hits and misses.
func (c *ContourCache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// Clear drops all cached contours.
func (c *ContourCache) Clear() {
	c.cache.Clear()
}

func contourKey(slice *labelmap.Slice, rows, cols int, halfWidth float64) []byte {
	h := fnv.New64a()
	var hdr [24]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(rows))
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(cols))
	binary.LittleEndian.PutUint64(hdr[16:24], math.Float64bits(halfWidth))
	h.Write(hdr[:])
	h.Write(dvid.Uint16sToBytes(slice.Pixels))
	for _, segment := range slice.SegmentsPresent {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], segment)
		h.Write(b[:])
	}
	return h.Sum(nil)
}

const lineBytes = 4*8 + 1

// encodeContours packs contours as repeated (segment uint16, count uint32, lines...).
func encodeContours(contours Contours) []byte {
	size := 0
	for _, lines := range contours {
		size += 6 + len(lines)*lineBytes
	}
	buf := make([]byte, 0, size)
	for segment, lines := range contours {
		buf = binary.LittleEndian.AppendUint16(buf, segment)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(lines)))
		for _, line := range lines {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(line.Start.X))
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(line.Start.Y))
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(line.End.X))
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(line.End.Y))
			buf = append(buf, byte(line.Kind))
		}
	}
	return buf
}

func decodeContours(buf []byte) (Contours, bool) {
	contours := make(Contours)
	f := func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }
	for len(buf) > 0 {
		if len(buf) < 6 {
			return nil, false
		}
		segment := binary.LittleEndian.Uint16(buf[0:2])
		n := int(binary.LittleEndian.Uint32(buf[2:6]))
		buf = buf[6:]
		if len(buf) < n*lineBytes {
			return nil, false
		}
		lines := make([]LineSegment, n)
		for i := range lines {
			b := buf[i*lineBytes:]
			lines[i] = LineSegment{
				Start: dvid.Vec2{X: f(b[0:]), Y: f(b[8:])},
				End:   dvid.Vec2{X: f(b[16:]), Y: f(b[24:])},
				Kind:  EdgeKind(b[32]),
			}
		}
		contours[segment] = lines
		buf = buf[n*lineBytes:]
	}
	return contours, true
}
