package dvid

import "errors"

var (
	// ErrDescriptorMismatch is returned when a fill operation receives a region
	// that does not describe its shape.  Nothing is mutated.
	ErrDescriptorMismatch = errors.New("region descriptor does not match operation")

	// ErrEmptyHistory is returned by undo/redo when there is nothing to pop.
	ErrEmptyHistory = errors.New("no history left")

	// ErrPendingCompression is returned by undo/redo while snapshot compressions
	// for the volume are still in flight.  The caller may retry.
	ErrPendingCompression = errors.New("snapshot compression still pending")

	// ErrSnapshotSizeMismatch is returned when an inflated snapshot does not fit the
	// volume it is being applied to.  The volume is left untouched.
	ErrSnapshotSizeMismatch = errors.New("snapshot size does not match volume")

	// ErrNoLabelmap is returned when a stack has no segmentation state for the
	// requested labelmap.
	ErrNoLabelmap = errors.New("no labelmap for stack")
)
