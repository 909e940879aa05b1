/*
	Package storage persists the undo and redo history of labelmap volumes so a
	segmentation session can survive a restart.

	Each storage engine implements SnapshotStore.  Values are the compressed snapshot
	bytes exactly as held in memory; serialization happens above the storage level.
	Records are kept per volume and per stack and are always returned in ascending
	time order.
*/
package storage

import (
	"fmt"

	"github.com/janelia-flyem/dvidseg/dvid"
)

// Stack selects the undo or redo history of a volume.
type Stack uint8

const (
	UndoStack Stack = iota
	RedoStack
)

func (s Stack) String() string {
	switch s {
	case UndoStack:
		return "undo"
	case RedoStack:
		return "redo"
	default:
		return fmt.Sprintf("stack %d", uint8(s))
	}
}

// Record is one persisted snapshot.
type Record struct {
	Time       uint64
	Compressed []byte
}

func (r Record) String() string {
	return fmt.Sprintf("snapshot @ %d (%s)", r.Time, dvid.HumanBytes(len(r.Compressed)))
}

// SnapshotStore is implemented by every storage engine.  A Put with the time of an
// existing record replaces it.  Deleting or clearing records that do not exist is
// not an error.
type SnapshotStore interface {
	fmt.Stringer

	Put(volumeID string, stack Stack, rec Record) error
	Delete(volumeID string, stack Stack, time uint64) error

	// Load returns both stacks of a volume in ascending time order.
	Load(volumeID string) (undo, redo []Record, err error)

	// Clear deletes all records of one stack of a volume.
	Clear(volumeID string, stack Stack) error

	// Volumes returns the ids of all volumes with persisted records.
	Volumes() ([]string, error)

	Close() error
}
