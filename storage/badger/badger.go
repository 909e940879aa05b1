/*
	Package badger is a snapshot store backed by BadgerDB, a pure Go embedded
	key-value database.
*/
package badger

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/blang/semver"
	"github.com/dgraph-io/badger/v3"

	"github.com/janelia-flyem/dvidseg/dvid"
	"github.com/janelia-flyem/dvidseg/storage"
)

const (
	// DefaultVersionsToKeep is the number of versions to keep per key.  Snapshot
	// times are part of the key so older badger versions are never needed.
	DefaultVersionsToKeep = 1

	// SyncInterval is how often buffered writes are synced when SyncWrites is off.
	SyncInterval = 30 * time.Second

	// DeleteBatchSize is the number of deletions flushed at a time by Clear.
	DeleteBatchSize = 10000
)

// FormatVersion is the version of the key layout written by this package.  Stores
// with a different major version are refused.
var FormatVersion = semver.MustParse("1.0.0")

// metadataKey sorts before any snapshot key since volume ids are non-empty text.
var metadataKey = []byte{0, 'f', 'o', 'r', 'm', 'a', 't'}

// DB is a storage.SnapshotStore in a BadgerDB directory.
type DB struct {
	// Directory of datastore
	directory string
	options   Options

	bdp *badger.DB

	// stopSyncCh is used to signal the sync goroutine to stop.
	stopSyncCh chan struct{}
	syncDone   chan struct{}
}

var _ storage.SnapshotStore = (*DB)(nil)

// Open returns a snapshot store at path, creating a new database there if needed.
func Open(path string, opt Options) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("path must be specified for BadgerDB snapshot store")
	}

	// Is there a database already at this path?  If not, create.
	var created bool
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if opt.ReadOnly {
			return nil, fmt.Errorf("no snapshot store at %s to open read-only", path)
		}
		dvid.TimeInfof("Snapshot store not already at path (%s). Creating directory...\n", path)
		created = true
		if err := os.MkdirAll(path, 0744); err != nil {
			return nil, fmt.Errorf("can't make directory at %s: %v", path, err)
		}
	}

	dvid.TimeInfof("Opening badger snapshot store @ path %s\n", path)
	bdp, err := badger.Open(opt.badgerOptions(path))
	if err != nil {
		return nil, err
	}
	db := &DB{
		directory: path,
		options:   opt,
		bdp:       bdp,
	}
	if err := db.checkFormat(created); err != nil {
		bdp.Close()
		return nil, err
	}
	if !opt.SyncWrites && !opt.ReadOnly {
		db.stopSyncCh = make(chan struct{})
		db.syncDone = make(chan struct{})
		go db.syncPeriodically()
	}
	return db, nil
}

// Destroy deletes the snapshot store directory at path if it exists.
func Destroy(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("can't delete snapshot store %q: %v", path, err)
		}
	}
	return nil
}

// checkFormat writes the format version into a new store or verifies the version
// of an existing one.
func (db *DB) checkFormat(created bool) error {
	var stored []byte
	err := db.bdp.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metadataKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		stored, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return err
	}
	if stored == nil {
		if !created {
			dvid.Infof("No format version found in %s, assuming empty store\n", db)
		}
		if db.options.ReadOnly {
			return nil
		}
		return db.bdp.Update(func(txn *badger.Txn) error {
			return txn.Set(metadataKey, []byte(FormatVersion.String()))
		})
	}
	ver, err := semver.Parse(string(stored))
	if err != nil {
		return fmt.Errorf("bad format version %q in %s: %v", stored, db, err)
	}
	if ver.Major != FormatVersion.Major {
		return fmt.Errorf("%s has format %s, incompatible with %s", db, ver, FormatVersion)
	}
	dvid.Debugf("Opened %s with format %s\n", db, ver)
	return nil
}

// Periodically sync to prevent too many writes from being buffered
// if server crashes.
func (db *DB) syncPeriodically() {
	defer close(db.syncDone)
	ticker := time.NewTicker(SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-db.stopSyncCh:
			dvid.Debugf("Stopping sync goroutine for %s\n", db)
			return
		case <-ticker.C:
			if err := db.bdp.Sync(); err != nil {
				dvid.Errorf("Unable to sync %s: %v\n", db, err)
			}
		}
	}
}

func (db *DB) String() string {
	return fmt.Sprintf("badger @ %s", db.directory)
}

// Close syncs and closes the database.  It is safe to call more than once.
func (db *DB) Close() error {
	if db == nil || db.bdp == nil {
		return nil
	}
	if db.stopSyncCh != nil {
		close(db.stopSyncCh)
		<-db.syncDone
		db.stopSyncCh = nil
	}
	err := db.bdp.Close()
	db.bdp = nil
	dvid.Infof("Closed %s\n", db)
	return err
}

func (db *DB) Put(volumeID string, stack storage.Stack, rec storage.Record) error {
	if err := storage.CheckVolumeID(volumeID); err != nil {
		return err
	}
	key := storage.SnapshotKey(volumeID, stack, rec.Time)
	return db.bdp.Update(func(txn *badger.Txn) error {
		return txn.Set(key, rec.Compressed)
	})
}

func (db *DB) Delete(volumeID string, stack storage.Stack, time uint64) error {
	key := storage.SnapshotKey(volumeID, stack, time)
	return db.bdp.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (db *DB) Load(volumeID string) (undo, redo []storage.Record, err error) {
	prefix := storage.VolumePrefix(volumeID)
	err = db.bdp.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			_, stack, time, err := storage.ParseSnapshotKey(item.Key())
			if err != nil {
				dvid.Warningf("Skipping unknown key %q in %s\n", item.Key(), db)
				continue
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			rec := storage.Record{Time: time, Compressed: v}
			if stack == storage.RedoStack {
				redo = append(redo, rec)
			} else {
				undo = append(undo, rec)
			}
		}
		return nil
	})
	return
}

func (db *DB) Clear(volumeID string, stack storage.Stack) error {
	prefix := storage.StackPrefix(volumeID, stack)

	var keys [][]byte
	err := db.bdp.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // key only
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil || len(keys) == 0 {
		return err
	}

	wb := db.bdp.NewWriteBatch()
	defer wb.Cancel()
	for i, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
		if (i+1)%DeleteBatchSize == 0 {
			if err := wb.Flush(); err != nil {
				return fmt.Errorf("error on flush of %s clear at key %d: %v", stack, i, err)
			}
			wb = db.bdp.NewWriteBatch()
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("error on last flush of %s clear: %v", stack, err)
	}
	dvid.Debugf("Cleared %d %s snapshots of volume %s in %s\n", len(keys), stack, volumeID, db)
	return nil
}

func (db *DB) Volumes() ([]string, error) {
	var ids []string
	err := db.bdp.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); {
			k := it.Item().Key()
			if bytes.HasPrefix(k, metadataKey) {
				it.Next()
				continue
			}
			id, _, _, err := storage.ParseSnapshotKey(k)
			if err != nil {
				it.Next()
				continue
			}
			ids = append(ids, id)
			// skip the rest of this volume's keys
			it.Seek(append([]byte(id), '/'+1))
		}
		return nil
	})
	return ids, err
}
