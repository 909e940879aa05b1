package dvid

import (
	"bytes"
	"errors"
	"math/rand"

	. "github.com/janelia-flyem/go/gocheck"
)

type CompressSuite struct {
	labels []byte
}

var _ = Suite(&CompressSuite{})

func (s *CompressSuite) SetUpSuite(c *C) {
	// Mostly zero with a few runs of labels, like a painted slice stack.
	vals := make([]uint16, 64*64*4)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		start := r.Intn(len(vals) - 100)
		label := uint16(r.Intn(5) + 1)
		for j := start; j < start+r.Intn(100); j++ {
			vals[j] = label
		}
	}
	s.labels = Uint16sToBytes(vals)
}

func (s *CompressSuite) TestRoundTrip(c *C) {
	for _, compression := range []Compression{Uncompressed, Deflate, Snappy, Zstd} {
		compressed, err := Compress(s.labels, compression)
		c.Assert(err, IsNil)
		if compression != Uncompressed && len(compressed) >= len(s.labels) {
			c.Errorf("%s did not compress sparse labels: %d >= %d bytes", compression, len(compressed), len(s.labels))
		}
		inflated, err := Decompress(compressed, compression, len(s.labels))
		c.Assert(err, IsNil)
		c.Assert(bytes.Equal(inflated, s.labels), Equals, true)
	}
}

func (s *CompressSuite) TestNoAliasing(c *C) {
	data := []byte{1, 2, 3, 4}
	out, err := Compress(data, Uncompressed)
	c.Assert(err, IsNil)
	out[0] = 9
	c.Assert(data[0], Equals, byte(1))
}

func (s *CompressSuite) TestCorruptDeflate(c *C) {
	compressed, err := Compress(s.labels, Deflate)
	c.Assert(err, IsNil)
	_, err = Decompress(compressed[:len(compressed)/2], Deflate, 0)
	c.Assert(err, NotNil)
}

func (s *CompressSuite) TestZeroValueIsDeflate(c *C) {
	var zero Compression
	c.Assert(zero, Equals, DefaultCompression)
	c.Assert(zero.String(), Equals, "deflate")
}

func (s *CompressSuite) TestDecompressLimit(c *C) {
	for _, compression := range []Compression{Uncompressed, Deflate, Snappy, Zstd} {
		compressed, err := Compress(s.labels, compression)
		c.Assert(err, IsNil)
		_, err = Decompress(compressed, compression, len(s.labels)-1)
		c.Assert(errors.Is(err, ErrSnapshotSizeMismatch), Equals, true)

		inflated, err := Decompress(compressed, compression, 0)
		c.Assert(err, IsNil)
		c.Assert(len(inflated), Equals, len(s.labels))
	}
}

func (s *CompressSuite) TestParseCompression(c *C) {
	cases := map[string]Compression{
		"":        DefaultCompression,
		"deflate": Deflate,
		"ZLIB":    Deflate,
		"snappy":  Snappy,
		" zstd ":  Zstd,
		"none":    Uncompressed,
	}
	for name, expected := range cases {
		got, err := ParseCompression(name)
		c.Assert(err, IsNil)
		c.Assert(got, Equals, expected)
	}
	_, err := ParseCompression("lzma")
	c.Assert(err, NotNil)
}
