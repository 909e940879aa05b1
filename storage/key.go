package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Snapshot keys are laid out as
//
//	volume id | '/' | stack byte ('u' or 'r') | '/' | big-endian time
//
// so an ordered key-value engine iterates each stack in time order.

const keySep = '/'

// ErrBadKey is returned on parsing a key not written by this package.
var ErrBadKey = fmt.Errorf("malformed snapshot key")

func stackByte(stack Stack) byte {
	if stack == RedoStack {
		return 'r'
	}
	return 'u'
}

// CheckVolumeID returns an error if a volume id cannot be used in a snapshot key.
func CheckVolumeID(volumeID string) error {
	if volumeID == "" {
		return fmt.Errorf("empty volume id")
	}
	if bytes.IndexByte([]byte(volumeID), keySep) >= 0 {
		return fmt.Errorf("volume id %q may not contain %q", volumeID, keySep)
	}
	return nil
}

// VolumePrefix returns the key prefix shared by all records of a volume.
func VolumePrefix(volumeID string) []byte {
	b := make([]byte, 0, len(volumeID)+1)
	b = append(b, volumeID...)
	return append(b, keySep)
}

// StackPrefix returns the key prefix shared by all records of one stack of a volume.
func StackPrefix(volumeID string, stack Stack) []byte {
	return append(VolumePrefix(volumeID), stackByte(stack), keySep)
}

// SnapshotKey returns the key of a record.
func SnapshotKey(volumeID string, stack Stack, time uint64) []byte {
	b := StackPrefix(volumeID, stack)
	return binary.BigEndian.AppendUint64(b, time)
}

// ParseSnapshotKey is the inverse of SnapshotKey.
func ParseSnapshotKey(key []byte) (volumeID string, stack Stack, time uint64, err error) {
	if len(key) < 12 {
		err = ErrBadKey
		return
	}
	n := len(key) - 11
	if key[n] != keySep || key[n+2] != keySep || bytes.IndexByte(key[:n], keySep) >= 0 {
		err = ErrBadKey
		return
	}
	switch key[n+1] {
	case 'u':
		stack = UndoStack
	case 'r':
		stack = RedoStack
	default:
		err = ErrBadKey
		return
	}
	volumeID = string(key[:n])
	time = binary.BigEndian.Uint64(key[n+3:])
	return
}
