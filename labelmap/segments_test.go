package labelmap

import (
	"reflect"
	"testing"
)

func paintedVolume(t *testing.T) *Volume {
	buf := []uint16{
		1, 1, 0,
		0, 2, 0,

		0, 0, 0,
		0, 0, 0,

		2, 2, 2,
		1, 0, 0,
	}
	v, err := NewVolumeFromBuffer(2, 3, 3, buf)
	if err != nil {
		t.Fatalf("couldn't make volume: %v\n", err)
	}
	return v
}

func TestActiveSegmentIndex(t *testing.T) {
	v, _ := NewVolume(1, 1, 1)
	v.SegmentsPerLabelmap = 3
	if v.ActiveSegmentIndex != 1 {
		t.Fatalf("expected default active segment 1, got %d\n", v.ActiveSegmentIndex)
	}
	if got := v.DecrementActiveSegmentIndex(); got != 3 {
		t.Errorf("expected decrement to wrap to 3, got %d\n", got)
	}
	if got := v.IncrementActiveSegmentIndex(); got != 1 {
		t.Errorf("expected increment to wrap to 1, got %d\n", got)
	}
	if got := v.IncrementActiveSegmentIndex(); got != 2 {
		t.Errorf("expected 2, got %d\n", got)
	}
	if err := v.SetActiveSegmentIndex(0); err == nil {
		t.Errorf("expected error on segment 0\n")
	}
	if err := v.SetActiveSegmentIndex(4); err == nil {
		t.Errorf("expected error on segment past segments-per-labelmap\n")
	}
	if err := v.SetActiveSegmentIndex(3); err != nil || v.ActiveSegmentIndex != 3 {
		t.Errorf("couldn't set active segment: %v\n", err)
	}
}

func TestVisibilityAndMetadata(t *testing.T) {
	v, _ := NewVolume(1, 1, 1)
	if !v.IsSegmentVisible(5) {
		t.Errorf("expected segments visible by default\n")
	}
	if v.ToggleSegmentVisibility(5) {
		t.Errorf("expected toggle to hide segment\n")
	}
	if v.IsSegmentVisible(5) {
		t.Errorf("expected segment 5 hidden\n")
	}
	if !v.ToggleSegmentVisibility(5) || !v.IsSegmentVisible(5) {
		t.Errorf("expected second toggle to show segment\n")
	}

	if v.GetMetadata(9) != nil {
		t.Errorf("expected no metadata\n")
	}
	v.SetMetadata(9, map[string]string{"name": "liver"})
	v.SetMetadata(2, "kidney")
	if md, ok := v.GetMetadata(9).(map[string]string); !ok || md["name"] != "liver" {
		t.Errorf("bad metadata for 9: %v\n", v.GetMetadata(9))
	}
	if v.GetMetadata(2) != "kidney" {
		t.Errorf("bad metadata for 2: %v\n", v.GetMetadata(2))
	}
}

func TestSegmentAtAndStats(t *testing.T) {
	v := paintedVolume(t)
	if got := v.SegmentAt(0, 1, 1); got != 2 {
		t.Errorf("expected segment 2 at (1,1) of slice 0, got %d\n", got)
	}
	if got := v.SegmentAt(1, 1, 1); got != 0 {
		t.Errorf("expected unpainted slice to report 0, got %d\n", got)
	}

	stats := v.Stats()
	expected := map[uint16]SegmentStats{
		1: {Voxels: 3, MinSlice: 0, MaxSlice: 2},
		2: {Voxels: 4, MinSlice: 0, MaxSlice: 2},
	}
	if !reflect.DeepEqual(stats, expected) {
		t.Errorf("expected stats %v, got %v\n", expected, stats)
	}
}

func TestDeleteSegment(t *testing.T) {
	v := paintedVolume(t)
	v.SetMetadata(1, "gone")
	modified := v.DeleteSegment(1)
	if !reflect.DeepEqual(modified, []int{0, 2}) {
		t.Errorf("expected frames 0 and 2 modified, got %v\n", modified)
	}
	for i, label := range v.Buffer {
		if label == 1 {
			t.Fatalf("segment 1 still present at buffer index %d\n", i)
		}
	}
	if !reflect.DeepEqual(v.Slices[0].SegmentsPresent, []uint16{2}) {
		t.Errorf("bad segments after delete: %v\n", v.Slices[0].SegmentsPresent)
	}
	if v.GetMetadata(1) != nil {
		t.Errorf("expected metadata removed with segment\n")
	}

	v.DeleteSegment(2)
	for i, s := range v.Slices {
		if s != nil {
			t.Errorf("expected all slices dropped, slice %d remains\n", i)
		}
	}
}
