package labels

import (
	"reflect"
	"testing"
)

func TestContourCache(t *testing.T) {
	s, rows, cols := makeSlice([][]uint16{
		{0, 1, 1, 0},
		{0, 1, 2, 2},
		{0, 1, 1, 0},
	})
	cache := NewContourCache(4 << 20)

	first := cache.Extract(s, rows, cols, 0.5)
	if hits, misses := cache.Stats(); hits != 0 || misses != 1 {
		t.Errorf("expected a miss on first extraction, got %d hits %d misses\n", hits, misses)
	}
	second := cache.Extract(s, rows, cols, 0.5)
	if hits, _ := cache.Stats(); hits != 1 {
		t.Errorf("expected a hit on second extraction, got %d\n", hits)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached contours differ.\nFirst %v\nSecond %v\n", first, second)
	}
	if direct := ExtractContours(s, rows, cols, 0.5); !reflect.DeepEqual(direct, second) {
		t.Errorf("cached contours differ from direct extraction\n")
	}

	// A different half-width or any pixel change must not reuse the entry.
	cache.Extract(s, rows, cols, 1)
	s.Pixels[0] = 2
	s.UpdateSegmentsPresent()
	changed := cache.Extract(s, rows, cols, 0.5)
	if _, misses := cache.Stats(); misses != 3 {
		t.Errorf("expected 3 misses, got %d\n", misses)
	}
	if reflect.DeepEqual(changed[2], first[2]) {
		t.Errorf("expected new contours for modified slice\n")
	}

	cache.Clear()
	cache.Extract(s, rows, cols, 0.5)
	if _, misses := cache.Stats(); misses != 4 {
		t.Errorf("expected miss after clear, got %d misses\n", misses)
	}
}

func TestNilContourCache(t *testing.T) {
	var cache *ContourCache
	s, rows, cols := makeSlice([][]uint16{{1}})
	if edges, _ := cache.Extract(s, rows, cols, 0.5).NumEdges(1); edges != 4 {
		t.Errorf("expected nil cache to extract directly, got %d edges\n", edges)
	}
}

func TestContourEncoding(t *testing.T) {
	s, rows, cols := makeSlice([][]uint16{
		{0, 3, 0},
		{3, 3, 3},
		{0, 3, 9},
	})
	contours := ExtractContours(s, rows, cols, 0.75)
	decoded, ok := decodeContours(encodeContours(contours))
	if !ok {
		t.Fatalf("unable to decode encoded contours\n")
	}
	if !reflect.DeepEqual(decoded, contours) {
		t.Errorf("decoded contours differ.\nExpected %v\nGot %v\n", contours, decoded)
	}
	if _, ok := decodeContours([]byte{1, 0, 5}); ok {
		t.Errorf("expected truncated encoding to fail\n")
	}
}
