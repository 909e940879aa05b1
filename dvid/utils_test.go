package dvid

import (
	"path/filepath"

	. "github.com/janelia-flyem/go/gocheck"
)

type UtilsSuite struct{}

var _ = Suite(&UtilsSuite{})

func (s *UtilsSuite) TestLittleEndian(c *C) {
	b := Uint16sToBytes([]uint16{1, 0x0203, 65535})
	c.Assert(b, DeepEquals, []byte{1, 0, 3, 2, 0xff, 0xff})

	vals, err := BytesToUint16s(b)
	c.Assert(err, IsNil)
	c.Assert(vals, DeepEquals, []uint16{1, 0x0203, 65535})

	_, err = BytesToUint16s([]byte{1, 2, 3})
	c.Assert(err, NotNil)
}

func (s *UtilsSuite) TestConvertToAbsolute(c *C) {
	abs, err := ConvertToAbsolute("logs/seg.log", "/etc/dvidseg")
	c.Assert(err, IsNil)
	c.Assert(abs, Equals, filepath.Join("/etc/dvidseg", "logs", "seg.log"))

	abs, err = ConvertToAbsolute("/var/log/seg.log", "/etc/dvidseg")
	c.Assert(err, IsNil)
	c.Assert(abs, Equals, "/var/log/seg.log")
}

func (s *UtilsSuite) TestRect(c *C) {
	r := Rect{MinX: -2, MinY: 1, MaxX: 5, MaxY: 20}.Clamp(10, 4)
	c.Assert(r, Equals, Rect{MinX: 0, MinY: 1, MaxX: 4, MaxY: 10})
	c.Assert(r.Contains(3, 9), Equals, true)
	c.Assert(r.Contains(4, 9), Equals, false)

	c.Assert(Rect{MinX: 6, MaxX: 9, MaxY: 3}.Clamp(4, 4).Empty(), Equals, true)
}

func (s *UtilsSuite) TestHumanBytes(c *C) {
	c.Assert(HumanBytes(2048), Equals, "2.0 kB")
	c.Assert(HumanBytes(-1), Equals, "0 B")
}
