package dvid

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Mega is the number of bytes in a megabyte as used for cache sizes.
const Mega = 1 << 20

// ConvertToAbsolute returns an absolute path for a path that may be relative to dir.
func ConvertToAbsolute(path, dir string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	abs, err := filepath.Abs(filepath.Join(dir, path))
	if err != nil {
		return "", fmt.Errorf("unable to make %q absolute relative to %q: %v", path, dir, err)
	}
	return abs, nil
}

// Uint16sToBytes returns the little-endian serialization of labels.
func Uint16sToBytes(labels []uint16) []byte {
	b := make([]byte, len(labels)*2)
	for i, v := range labels {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
	return b
}

// BytesToUint16s parses a little-endian sequence of uint16.  The byte length must be even.
func BytesToUint16s(b []byte) ([]uint16, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("expected even number of bytes for uint16 data, got %d", len(b))
	}
	labels := make([]uint16, len(b)/2)
	for i := range labels {
		labels[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return labels, nil
}

// HumanBytes formats a byte count for log messages.
func HumanBytes(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
