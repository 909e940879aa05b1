package labelmap

import (
	"errors"
	"reflect"
	"testing"

	"github.com/janelia-flyem/dvidseg/dvid"
)

func TestNewVolume(t *testing.T) {
	v, err := NewVolume(4, 5, 3)
	if err != nil {
		t.Fatalf("unable to make volume: %v\n", err)
	}
	if len(v.Buffer) != 4*5*3 {
		t.Errorf("expected buffer of %d labels, got %d\n", 4*5*3, len(v.Buffer))
	}
	if len(v.Slices) != 3 {
		t.Errorf("expected 3 slice entries, got %d\n", len(v.Slices))
	}
	for i, s := range v.Slices {
		if s != nil {
			t.Errorf("expected empty volume to have no slice views, got one at %d\n", i)
		}
	}
	if v.ID == "" {
		t.Errorf("expected volume to get an identity\n")
	}
	if _, err := NewVolume(0, 5, 3); err == nil {
		t.Errorf("expected error on zero rows\n")
	}
}

func TestSliceViewsShareBuffer(t *testing.T) {
	v, _ := NewVolume(2, 3, 2)
	s := v.Labelmap2D(1)
	if len(s.Pixels) != 6 {
		t.Fatalf("expected 6 pixels in slice view, got %d\n", len(s.Pixels))
	}
	s.Pixels[2] = 7
	if v.Buffer[6+2] != 7 {
		t.Errorf("slice view write did not land in volume buffer\n")
	}
	if v.Slices[1] != nil {
		t.Errorf("slice view retained before update\n")
	}
	if got := v.UpdateSlice(1); got == nil || !reflect.DeepEqual(got.SegmentsPresent, []uint16{7}) {
		t.Fatalf("bad slice after update: %v\n", got)
	}
	if v.Slices[1] == nil {
		t.Errorf("expected painted slice to be retained\n")
	}

	// Views are capped so appends can't run into the next frame.
	p := v.Labelmap2D(0).Pixels
	if cap(p) != 6 {
		t.Errorf("expected capped view, got cap %d\n", cap(p))
	}

	s.Pixels[2] = 0
	if got := v.UpdateSlice(1); got != nil {
		t.Errorf("expected cleared slice to be dropped\n")
	}
	if v.Slices[1] != nil {
		t.Errorf("expected sparse slices after clearing\n")
	}
}

func TestNewVolumeFromBuffer(t *testing.T) {
	buf := []uint16{
		0, 0, 0, 0,
		0, 3, 0, 1,
		0, 0, 0, 0,
	}
	v, err := NewVolumeFromBuffer(2, 2, 3, buf)
	if err != nil {
		t.Fatalf("error making volume from buffer: %v\n", err)
	}
	if v.Slices[0] != nil || v.Slices[2] != nil {
		t.Errorf("expected only middle slice to have a view\n")
	}
	if !reflect.DeepEqual(v.Slices[1].SegmentsPresent, []uint16{1, 3}) {
		t.Errorf("bad segments present: %v\n", v.Slices[1].SegmentsPresent)
	}
	if _, err := NewVolumeFromBuffer(2, 2, 2, buf); err == nil {
		t.Errorf("expected error for mismatched buffer length\n")
	}
}

func TestReplaceBuffer(t *testing.T) {
	v, _ := NewVolume(2, 2, 2)
	v.Labelmap2D(0).Pixels[0] = 4
	v.UpdateSlice(0)

	if err := v.ReplaceBuffer(make([]uint16, 3)); !errors.Is(err, dvid.ErrSnapshotSizeMismatch) {
		t.Fatalf("expected size mismatch, got %v\n", err)
	}
	if v.Buffer[0] != 4 || v.Slices[0] == nil {
		t.Fatalf("failed replacement modified volume\n")
	}

	if err := v.ReplaceBuffer([]uint16{0, 0, 0, 0, 0, 9, 0, 0}); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if v.Slices[0] != nil {
		t.Errorf("expected slice 0 to be dropped after replacement\n")
	}
	if v.Slices[1] == nil || v.Slices[1].Pixels[1] != 9 {
		t.Errorf("expected slice 1 to view replacement buffer\n")
	}
	v.Slices[1].Pixels[0] = 2
	if v.Buffer[4] != 2 {
		t.Errorf("rebuilt slice does not view new buffer\n")
	}
}

func TestSegmentsOnPixelData(t *testing.T) {
	got := SegmentsOnPixelData([]uint16{0, 65535, 3, 3, 64, 0, 1, 63})
	expected := []uint16{1, 3, 63, 64, 65535}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v\n", expected, got)
	}
	if got := SegmentsOnPixelData(make([]uint16, 10)); got != nil {
		t.Errorf("expected nil segments on empty data, got %v\n", got)
	}
}
