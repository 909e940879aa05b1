package badger

import (
	"github.com/dgraph-io/badger/v3"

	"github.com/janelia-flyem/dvidseg/dvid"
)

// Options tunes the BadgerDB underlying a snapshot store.  Zero values leave Badger's
// defaults in place.
type Options struct {
	ReadOnly bool

	// SyncWrites makes every write durable at the cost of speed.  Without it, writes
	// are synced periodically.
	SyncWrites bool

	// ValueThreshold is the size of values in bytes that if exceeded get stored in
	// the value log instead of the LSM tree.  Snapshots are usually well above it.
	ValueThreshold int64

	ValueLogFileSize int64

	// LowMemory shrinks memtables and caches for small machines.
	LowMemory bool
}

func (o Options) badgerOptions(path string) badger.Options {
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{}).
		WithNumVersionsToKeep(DefaultVersionsToKeep).
		WithSyncWrites(o.SyncWrites).
		WithReadOnly(o.ReadOnly)
	if o.ValueThreshold > 0 {
		opts = opts.WithValueThreshold(o.ValueThreshold)
	}
	if o.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(o.ValueLogFileSize)
	}
	if o.LowMemory {
		dvid.Infof("Using Badger with low memory options.\n")
		opts = opts.WithMemTableSize(8 << 20).
			WithNumMemtables(2).
			WithBlockCacheSize(8 << 20).
			WithIndexCacheSize(4 << 20)
		if o.ValueLogFileSize == 0 {
			opts = opts.WithValueLogFileSize(1<<24 - 1)
		}
	}
	return opts
}

// badgerLogger routes Badger's own logging through the dvid logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	dvid.Errorf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	dvid.Warningf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	dvid.Infof("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	dvid.Debugf("badger: "+format, args...)
}
