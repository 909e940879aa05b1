/*
	This file supports the lossless compression formats used for labelmap snapshots.
*/

package dvid

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Compression is the format of compression for storing snapshot data.  The zero
// value is Deflate.
type Compression uint8

const (
	Deflate Compression = iota
	Snappy
	Zstd
	Uncompressed
)

// DefaultCompression is the snapshot compression used when none is configured.
// Deflate output is a zlib stream, readable by any inflate implementation.
const DefaultCompression = Deflate

func (compress Compression) String() string {
	switch compress {
	case Uncompressed:
		return "none"
	case Deflate:
		return "deflate"
	case Snappy:
		return "snappy"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompression returns the Compression for a name as used in TOML configs,
// e.g., "deflate", "snappy", "zstd", or "none".  An empty name gives DefaultCompression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultCompression, nil
	case "none", "uncompressed":
		return Uncompressed, nil
	case "deflate", "zlib", "gzip":
		return Deflate, nil
	case "snappy":
		return Snappy, nil
	case "zstd":
		return Zstd, nil
	default:
		return Uncompressed, fmt.Errorf("unknown compression %q", name)
	}
}

var zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))

// Compress returns a compressed copy of data.  The returned slice never aliases data.
func Compress(data []byte, compress Compression) ([]byte, error) {
	switch compress {
	case Uncompressed:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case Deflate:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Snappy:
		return snappy.Encode(nil, data), nil
	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("illegal compression (%s) requested", compress)
	}
}

// Decompress inverts Compress.  If limit is positive, decompression stops with an
// error wrapping ErrSnapshotSizeMismatch once the output would exceed limit bytes.
func Decompress(data []byte, compress Compression, limit int) ([]byte, error) {
	switch compress {
	case Uncompressed:
		if limit > 0 && len(data) > limit {
			return nil, tooLarge(limit)
		}
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case Deflate:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return readLimited(zr, limit)
	case Snappy:
		n, err := snappy.DecodedLen(data)
		if err != nil {
			return nil, err
		}
		if limit > 0 && n > limit {
			return nil, tooLarge(limit)
		}
		return snappy.Decode(nil, data)
	case Zstd:
		zr, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return readLimited(zr, limit)
	default:
		return nil, fmt.Errorf("illegal compression (%s) in decompression", compress)
	}
}

func readLimited(r io.Reader, limit int) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	out, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		return nil, tooLarge(limit)
	}
	return out, nil
}

func tooLarge(limit int) error {
	return fmt.Errorf("decompressed data exceeds %d bytes: %w", limit, ErrSnapshotSizeMismatch)
}
