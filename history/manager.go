/*
	Package history keeps the undo and redo history of labelmap volumes.

	Every push captures a copy of a volume buffer under a logical timestamp and turns it
	into a compressed Snapshot, either synchronously or through a background Compressor.
	Background results can land in any order, but the undo stack is always ordered by
	timestamp.  Undo and redo are refused while compressions for the volume are in flight.

	A Manager is driven from a single goroutine.  Completed background compressions are
	applied on that goroutine by Drain or WaitIdle, so volumes are never touched by the
	compression goroutines.
*/
package history

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DmitriyVTitov/size"

	"github.com/janelia-flyem/dvidseg/datastore"
	"github.com/janelia-flyem/dvidseg/dvid"
	"github.com/janelia-flyem/dvidseg/labelmap"
	"github.com/janelia-flyem/dvidseg/storage"
)

// DefaultDebounceWindow is the settling time after which a new push fires.
const DefaultDebounceWindow = 100 * time.Millisecond

// Config configures a Manager.  The zero value gives synchronous deflate compression
// with no debouncing and no persistence.
type Config struct {
	DebounceWindow time.Duration

	// Compression of every snapshot.  It is replaced by the compression of a
	// Compressor that implements Codec.
	Compression dvid.Compression

	// Clock is used for debouncing.  Defaults to time.Now.
	Clock func() time.Time

	// Compressor, if set, compresses pushes in the background.
	Compressor Compressor

	Notifier Notifier

	// Snapshots, if set, receives every change to undo and redo history.
	Snapshots storage.SnapshotStore
}

// Manager applies history operations to the volumes of a datastore.Store.
// It is not safe for concurrent use.
type Manager struct {
	store       *datastore.Store
	compression dvid.Compression
	clock       func() time.Time
	window      time.Duration
	compressor  Compressor
	notifier    Notifier
	snapshots   storage.SnapshotStore

	lastTime   uint64
	debouncers map[string]*Debouncer

	persistFailures int
}

// NewManager returns a Manager for volumes in store.
func NewManager(store *datastore.Store, config Config) *Manager {
	m := &Manager{
		store:       store,
		compression: config.Compression,
		clock:       config.Clock,
		window:      config.DebounceWindow,
		compressor:  config.Compressor,
		notifier:    config.Notifier,
		snapshots:   config.Snapshots,
		debouncers:  make(map[string]*Debouncer),
	}
	if codec, ok := m.compressor.(Codec); ok && codec.Compression() != m.compression {
		dvid.Infof("History uses %s compression of %v instead of configured %s\n",
			codec.Compression(), m.compressor, m.compression)
		m.compression = codec.Compression()
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	return m
}

// Background returns true if pushes are compressed off the caller's goroutine.
func (m *Manager) Background() bool {
	return m.compressor != nil
}

// PersistFailures returns the number of snapshot store writes that failed.  Failed
// writes never affect in-memory history.
func (m *Manager) PersistFailures() int {
	return m.persistFailures
}

func (m *Manager) nextTime() uint64 {
	m.lastTime++
	return m.lastTime
}

func (m *Manager) resolve(ref datastore.StackRef, index []int) (datastore.Labelmap, error) {
	lm, found := m.store.ResolveLabelmap(ref, index...)
	if !found {
		return lm, fmt.Errorf("stack %q: %w", ref, dvid.ErrNoLabelmap)
	}
	return lm, nil
}

// Push records the current state of a labelmap of the displayed stack, the active one
// if no index is given.  Pushes are debounced per volume: it returns false without
// recording anything if the push was collapsed into an earlier one.  Call Push before
// the first mutation of an edit gesture so undo restores the state before the gesture.
func (m *Manager) Push(ref datastore.StackRef, index ...int) (bool, error) {
	lm, err := m.resolve(ref, index)
	if err != nil {
		return false, err
	}
	return m.PushLabelmap(lm)
}

// PushLabelmap is Push for an already resolved labelmap.
func (m *Manager) PushLabelmap(lm datastore.Labelmap) (bool, error) {
	if !m.debounce(lm.Volume) {
		return false, nil
	}
	if err := m.record(lm, lm.Volume.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}

// debounce returns true if a push for vol should be recorded now.
func (m *Manager) debounce(vol *labelmap.Volume) bool {
	d, found := m.debouncers[vol.ID]
	if !found {
		d = NewDebouncer(m.window, m.clock)
		m.debouncers[vol.ID] = d
	}
	if !d.Request() {
		pushesSuppressed.Inc()
		return false
	}
	return true
}

// resetDebounce lets the next push for vol fire regardless of the window.
func (m *Manager) resetDebounce(vol *labelmap.Volume) {
	if d, found := m.debouncers[vol.ID]; found {
		d.Reset()
	}
}

// record stores raw, a detached copy of the labelmap's buffer, as a new snapshot.
func (m *Manager) record(lm datastore.Labelmap, raw []byte) error {
	vol := lm.Volume
	t := m.nextTime()
	if m.compressor != nil {
		vol.PendingCompressions++
		pendingCompressions.Inc()
		m.compressor.Submit(Task{
			Raw:           raw,
			VolumeID:      vol.ID,
			Key:           lm.Key,
			LabelmapIndex: lm.Index,
			Time:          t,
		})
		return nil
	}

	start := time.Now()
	compressed, err := dvid.Compress(raw, m.compression)
	compressSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("compressing snapshot of %s: %w", vol, err)
	}
	m.commit(lm, labelmap.Snapshot{Time: t, Compressed: compressed})
	snapshotsTotal.WithLabelValues("sync").Inc()
	return nil
}

// commit inserts a new edit snapshot and invalidates forward history.
func (m *Manager) commit(lm datastore.Labelmap, snap labelmap.Snapshot) {
	vol := lm.Volume
	var inserted bool
	vol.Undo, inserted = insertSnapshot(vol.Undo, snap)
	if !inserted {
		dvid.Warningf("Ignoring duplicate snapshot %d for %s\n", snap.Time, vol)
		return
	}
	snapshotBytes.Observe(float64(len(snap.Compressed)))
	hadRedo := len(vol.Redo) != 0
	vol.Redo = nil

	id := PersistentID(lm.Key, lm.Index)
	m.persist(m.putSnapshot(id, storage.UndoStack, snap))
	if hadRedo {
		m.persist(m.clearStack(id, storage.RedoStack))
	}
}

// insertSnapshot places snap after the last snapshot with a smaller time, scanning
// from the end since completions usually arrive nearly in order.  A snapshot with a
// time already present is not inserted.
func insertSnapshot(snaps []labelmap.Snapshot, snap labelmap.Snapshot) ([]labelmap.Snapshot, bool) {
	i := len(snaps)
	for i > 0 && snaps[i-1].Time >= snap.Time {
		if snaps[i-1].Time == snap.Time {
			return snaps, false
		}
		i--
	}
	snaps = append(snaps, labelmap.Snapshot{})
	copy(snaps[i+1:], snaps[i:])
	snaps[i] = snap
	return snaps, true
}

// HandleCompletion applies a background compression result.  It returns false if
// the result was dropped because its volume is gone or compression failed.
func (m *Manager) HandleCompletion(res Result) bool {
	pendingCompressions.Dec()
	vol, found := m.store.ResolveVolumeByKey(res.Key, res.LabelmapIndex)
	if !found || vol.ID != res.VolumeID {
		dvid.Warningf("Dropping snapshot %d for volume %s no longer at stack %q index %d\n",
			res.Time, res.VolumeID, res.Key, res.LabelmapIndex)
		return false
	}
	if vol.PendingCompressions > 0 {
		vol.PendingCompressions--
	}
	if res.Err != nil {
		dvid.Errorf("Background compression failed, snapshot lost: %v\n", res.Err)
		return false
	}
	lm := datastore.Labelmap{Key: res.Key, Index: res.LabelmapIndex, Volume: vol}
	m.commit(lm, labelmap.Snapshot{Time: res.Time, Compressed: res.Compressed})
	snapshotsTotal.WithLabelValues("background").Inc()
	return true
}

// Drain applies all results already delivered by the compressor without blocking
// and returns how many were handled.
func (m *Manager) Drain() int {
	if m.compressor == nil {
		return 0
	}
	var n int
	for {
		select {
		case res, ok := <-m.compressor.Results():
			if !ok {
				return n
			}
			m.HandleCompletion(res)
			n++
		default:
			return n
		}
	}
}

// WaitIdle applies results until a labelmap has no compressions in flight or ctx
// is done.  A stalled compressor blocks it until ctx is done.
func (m *Manager) WaitIdle(ctx context.Context, ref datastore.StackRef, index ...int) error {
	lm, err := m.resolve(ref, index)
	if err != nil {
		return err
	}
	return m.WaitVolume(ctx, lm.Volume)
}

// WaitVolume is WaitIdle for a volume.
func (m *Manager) WaitVolume(ctx context.Context, vol *labelmap.Volume) error {
	if m.compressor == nil {
		return nil
	}
	for vol.PendingCompressions > 0 {
		select {
		case res, ok := <-m.compressor.Results():
			if !ok {
				return fmt.Errorf("compressor closed with %d compressions pending for %s",
					vol.PendingCompressions, vol)
			}
			m.HandleCompletion(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Undo restores a labelmap of the displayed stack to its most recent snapshot.  The
// current state is moved to the redo stack.
func (m *Manager) Undo(ref datastore.StackRef, index ...int) error {
	lm, err := m.resolve(ref, index)
	if err != nil {
		return err
	}
	return m.step(lm, storage.UndoStack)
}

// Redo reverses the most recent undo.
func (m *Manager) Redo(ref datastore.StackRef, index ...int) error {
	lm, err := m.resolve(ref, index)
	if err != nil {
		return err
	}
	return m.step(lm, storage.RedoStack)
}

// step pops a snapshot from one stack, pushes the current state onto the other, and
// applies the popped snapshot.  Nothing is modified unless every check passes.
func (m *Manager) step(lm datastore.Labelmap, from storage.Stack) error {
	vol := lm.Volume
	src, dst := &vol.Undo, &vol.Redo
	to := storage.RedoStack
	if from == storage.RedoStack {
		src, dst = dst, src
		to = storage.UndoStack
	}
	op := from.String()

	if vol.PendingCompressions > 0 {
		stepsTotal.WithLabelValues(op, "pending").Inc()
		return fmt.Errorf("%s of %s with %d compressions in flight: %w",
			op, vol, vol.PendingCompressions, dvid.ErrPendingCompression)
	}
	if len(*src) == 0 {
		stepsTotal.WithLabelValues(op, "empty").Inc()
		dvid.Infof("No %ss left for %s\n", op, vol)
		return fmt.Errorf("%s of %s: %w", op, vol, dvid.ErrEmptyHistory)
	}
	top := (*src)[len(*src)-1]

	buf, err := m.inflate(vol, top)
	if err != nil {
		result := "error"
		if errors.Is(err, dvid.ErrSnapshotSizeMismatch) {
			result = "mismatch"
		}
		stepsTotal.WithLabelValues(op, result).Inc()
		dvid.Errorf("Refusing %s of %s: %v\n", op, vol, err)
		return fmt.Errorf("%s of %s: %w", op, vol, err)
	}
	current, err := dvid.Compress(vol.Bytes(), m.compression)
	if err != nil {
		stepsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%s of %s: compressing current state: %w", op, vol, err)
	}
	if err := vol.ReplaceBuffer(buf); err != nil {
		stepsTotal.WithLabelValues(op, "error").Inc()
		return err
	}
	saved := labelmap.Snapshot{Time: m.nextTime(), Compressed: current}
	*src = (*src)[:len(*src)-1]
	*dst = append(*dst, saved)
	stepsTotal.WithLabelValues(op, "ok").Inc()

	id := PersistentID(lm.Key, lm.Index)
	m.persist(m.putSnapshot(id, to, saved))
	m.persist(m.deleteSnapshot(id, from, top.Time))

	// The next edit starts a new gesture even inside the window.
	m.resetDebounce(vol)
	m.notifier.NotifyChanged(lm.Key)
	return nil
}

// inflate decompresses a snapshot and checks that it fits the volume.
func (m *Manager) inflate(vol *labelmap.Volume, snap labelmap.Snapshot) ([]uint16, error) {
	raw, err := dvid.Decompress(snap.Compressed, m.compression, len(vol.Buffer)*2)
	if err != nil {
		return nil, fmt.Errorf("decompressing snapshot %d: %w", snap.Time, err)
	}
	stride := vol.SliceBytes()
	if len(raw)%stride != 0 || len(raw)/stride != vol.SliceCount {
		return nil, fmt.Errorf("snapshot %d has %d bytes, %s needs %d frames of %d bytes: %w",
			snap.Time, len(raw), vol, vol.SliceCount, stride, dvid.ErrSnapshotSizeMismatch)
	}
	return dvid.BytesToUint16s(raw)
}

// Edit records the state of a labelmap of the displayed stack, lets edit mutate the
// slice at the current position, refreshes that slice and notifies.  A nil slice
// from the store is never passed to edit.  If edit fails, history is left as it was
// and edit must not have mutated the slice.
func (m *Manager) Edit(ref datastore.StackRef, edit func(slice *labelmap.Slice, rows, cols int) error) error {
	lm, err := m.resolve(ref, nil)
	if err != nil {
		return err
	}
	active, _ := m.store.ResolveActive(ref)
	i := active.CurrentSliceIndex
	vol := lm.Volume
	if i < 0 || i >= vol.SliceCount {
		return fmt.Errorf("slice %d out of range for %s", i, vol)
	}
	fired := m.debounce(vol)
	var raw []byte
	if fired {
		raw = vol.Bytes()
	}
	if err := edit(vol.Labelmap2D(i), vol.Rows, vol.Cols); err != nil {
		if fired {
			m.resetDebounce(vol)
		}
		return err
	}
	vol.UpdateSlice(i)
	if fired {
		if err := m.record(lm, raw); err != nil {
			dvid.Errorf("Edit of %s applied without history: %v\n", vol, err)
			m.notifier.NotifyChanged(lm.Key)
			return err
		}
	}
	m.notifier.NotifyChanged(lm.Key)
	return nil
}

// Restore reloads the persisted history of a labelmap of the displayed stack,
// replacing its in-memory stacks.  It returns the number of snapshots loaded.
func (m *Manager) Restore(ref datastore.StackRef, index ...int) (int, error) {
	lm, err := m.resolve(ref, index)
	if err != nil {
		return 0, err
	}
	if m.snapshots == nil {
		return 0, nil
	}
	if lm.Volume.PendingCompressions > 0 {
		return 0, fmt.Errorf("restore of %s: %w", lm.Volume, dvid.ErrPendingCompression)
	}
	undo, redo, err := m.snapshots.Load(PersistentID(lm.Key, lm.Index))
	if err != nil {
		return 0, err
	}
	vol := lm.Volume
	vol.Undo = toSnapshots(undo, &m.lastTime)
	vol.Redo = toSnapshots(redo, &m.lastTime)
	n := len(vol.Undo) + len(vol.Redo)
	dvid.Infof("Restored %d snapshots (%s) for %s\n", n, dvid.HumanBytes(m.Footprint(vol)), vol)
	return n, nil
}

// toSnapshots converts records and raises last to the latest time seen.
func toSnapshots(recs []storage.Record, last *uint64) []labelmap.Snapshot {
	if len(recs) == 0 {
		return nil
	}
	snaps := make([]labelmap.Snapshot, len(recs))
	for i, rec := range recs {
		snaps[i] = labelmap.Snapshot{Time: rec.Time, Compressed: rec.Compressed}
		if rec.Time > *last {
			*last = rec.Time
		}
	}
	return snaps
}

// Footprint returns the approximate memory used by the history of a volume.
func (m *Manager) Footprint(vol *labelmap.Volume) int {
	return size.Of(vol.Undo) + size.Of(vol.Redo)
}

func (m *Manager) persist(err error) {
	if err != nil {
		m.persistFailures++
		persistErrors.Inc()
		dvid.Errorf("Unable to persist history: %v\n", err)
	}
}

func (m *Manager) putSnapshot(id string, stack storage.Stack, snap labelmap.Snapshot) error {
	if m.snapshots == nil {
		return nil
	}
	return m.snapshots.Put(id, stack, storage.Record{Time: snap.Time, Compressed: snap.Compressed})
}

func (m *Manager) deleteSnapshot(id string, stack storage.Stack, time uint64) error {
	if m.snapshots == nil {
		return nil
	}
	return m.snapshots.Delete(id, stack, time)
}

func (m *Manager) clearStack(id string, stack storage.Stack) error {
	if m.snapshots == nil {
		return nil
	}
	return m.snapshots.Clear(id, stack)
}

// PersistentID is the id under which the history of a labelmap is persisted.  It
// depends only on the stack and labelmap index so it is stable across restarts.
func PersistentID(key datastore.StackKey, index int) string {
	return hex.EncodeToString([]byte(key)) + "." + strconv.Itoa(index)
}

// ParsePersistentID is the inverse of PersistentID.
func ParsePersistentID(id string) (datastore.StackKey, int, error) {
	i := strings.LastIndexByte(id, '.')
	if i < 0 {
		return "", 0, fmt.Errorf("bad persistent history id %q", id)
	}
	key, err := hex.DecodeString(id[:i])
	if err != nil {
		return "", 0, fmt.Errorf("bad persistent history id %q: %v", id, err)
	}
	index, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("bad persistent history id %q: %v", id, err)
	}
	return datastore.StackKey(key), index, nil
}
