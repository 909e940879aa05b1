package datastore

import (
	"testing"

	. "github.com/janelia-flyem/go/gocheck"

	"github.com/janelia-flyem/dvidseg/labelmap"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type StoreSuite struct {
	resolver *StaticResolver
	store    *Store
}

var _ = Suite(&StoreSuite{})

func (s *StoreSuite) SetUpTest(c *C) {
	s.resolver = NewStaticResolver()
	s.resolver.Set("viewport-1", StackInfo{Key: "image:0", Rows: 4, Cols: 5, SliceCount: 3, CurrentSliceIndex: 1})
	s.resolver.Set("viewport-2", StackInfo{Key: "image:0", Rows: 4, Cols: 5, SliceCount: 3})
	s.store = NewStore(s.resolver)
}

func (s *StoreSuite) TestUnregisteredStack(c *C) {
	_, found := s.store.ResolveActive("viewport-1")
	c.Assert(found, Equals, false)
	_, found = s.store.ResolveActive("no-such-viewport")
	c.Assert(found, Equals, false)
	_, found = s.store.Labelmap2D("viewport-1")
	c.Assert(found, Equals, false)
	_, _, err := s.store.AddLabelmap("no-such-viewport")
	c.Assert(err, NotNil)
}

func (s *StoreSuite) TestAddLabelmap(c *C) {
	vol, index, err := s.store.AddLabelmap("viewport-1")
	c.Assert(err, IsNil)
	c.Assert(index, Equals, 0)
	c.Assert(vol.Rows, Equals, 4)
	c.Assert(vol.Cols, Equals, 5)
	c.Assert(vol.SliceCount, Equals, 3)
	c.Assert(len(vol.Buffer), Equals, 60)

	active, found := s.store.ResolveActive("viewport-1")
	c.Assert(found, Equals, true)
	c.Assert(active.Key, Equals, StackKey("image:0"))
	c.Assert(active.ActiveIndex, Equals, 0)
	c.Assert(active.CurrentSliceIndex, Equals, 1)

	// A second viewport on the same stack shares its state.
	got, found := s.store.ResolveVolume("viewport-2")
	c.Assert(found, Equals, true)
	c.Assert(got == vol, Equals, true)

	vol2, index, err := s.store.AddLabelmap("viewport-2")
	c.Assert(err, IsNil)
	c.Assert(index, Equals, 1)
	got, _ = s.store.ResolveVolume("viewport-1")
	c.Assert(got == vol2, Equals, true)
	got, _ = s.store.ResolveVolume("viewport-1", 0)
	c.Assert(got == vol, Equals, true)
	_, found = s.store.ResolveVolume("viewport-1", 2)
	c.Assert(found, Equals, false)

	got, found = s.store.ResolveVolumeByKey("image:0", 1)
	c.Assert(found, Equals, true)
	c.Assert(got == vol2, Equals, true)
}

func (s *StoreSuite) TestActiveIndex(c *C) {
	c.Assert(s.store.SetActiveLabelmapIndex("viewport-1", 2), IsNil)
	index, found := s.store.ActiveLabelmapIndex("viewport-1")
	c.Assert(found, Equals, true)
	c.Assert(index, Equals, 2)

	buffers, found := s.store.LabelmapBuffers("viewport-1")
	c.Assert(found, Equals, true)
	c.Assert(buffers, HasLen, 3)
	c.Assert(buffers[0], IsNil)
	c.Assert(buffers[2], HasLen, 60)

	c.Assert(s.store.SetActiveLabelmapIndex("viewport-1", -1), NotNil)
}

func (s *StoreSuite) TestSliceViews(c *C) {
	vol, _, err := s.store.AddLabelmap("viewport-1")
	c.Assert(err, IsNil)
	vol.Buffer[20] = 7

	s2d, found := s.store.Labelmap2D("viewport-1")
	c.Assert(found, Equals, true)
	c.Assert(s2d.Pixels[0], Equals, uint16(7))

	s2d, found = s.store.Labelmap2DByImageIDIndex("viewport-1", 2)
	c.Assert(found, Equals, true)
	c.Assert(s2d.Pixels, HasLen, 20)
	_, found = s.store.Labelmap2DByImageIDIndex("viewport-1", 3)
	c.Assert(found, Equals, false)

	buf, found := s.store.ActiveLabelmapBuffer("viewport-1")
	c.Assert(found, Equals, true)
	c.Assert(buf[20], Equals, uint16(7))

	s.resolver.SetCurrentSlice("viewport-1", 0)
	s2d, _ = s.store.Labelmap2D("viewport-1")
	c.Assert(s2d.Pixels[0], Equals, uint16(0))
}

func (s *StoreSuite) TestSetLabelmap(c *C) {
	vol, err := labelmap.NewVolume(4, 5, 3)
	c.Assert(err, IsNil)
	c.Assert(s.store.SetLabelmap("viewport-1", 1, vol), IsNil)
	got, found := s.store.ResolveVolumeByKey("image:0", 1)
	c.Assert(found, Equals, true)
	c.Assert(got == vol, Equals, true)
	_, found = s.store.ResolveVolumeByKey("image:0", 0)
	c.Assert(found, Equals, false)

	wrong, err := labelmap.NewVolume(5, 5, 3)
	c.Assert(err, IsNil)
	c.Assert(s.store.SetLabelmap("viewport-1", 0, wrong), NotNil)
}

func (s *StoreSuite) TestUnregister(c *C) {
	_, _, err := s.store.AddLabelmap("viewport-1")
	c.Assert(err, IsNil)
	c.Assert(s.store.Keys(), DeepEquals, []StackKey{"image:0"})
	s.store.Unregister("image:0")
	_, found := s.store.ResolveActive("viewport-1")
	c.Assert(found, Equals, false)
	c.Assert(s.store.Keys(), HasLen, 0)
}
