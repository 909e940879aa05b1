package storage

import (
	"fmt"
	"sort"
	"sync"
)

type memoryStacks [2][]Record

// MemoryStore is a SnapshotStore kept in process memory.  It does not survive a
// restart and is meant for sessions without crash recovery and for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	volumes map[string]*memoryStacks
}

// NewMemoryStore returns an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{volumes: make(map[string]*memoryStacks)}
}

func (m *MemoryStore) String() string {
	return "in-memory snapshot store"
}

func (m *MemoryStore) Put(volumeID string, stack Stack, rec Record) error {
	if err := CheckVolumeID(volumeID); err != nil {
		return err
	}
	if stack > RedoStack {
		return fmt.Errorf("bad %s", stack)
	}
	rec.Compressed = append([]byte(nil), rec.Compressed...)

	m.mu.Lock()
	defer m.mu.Unlock()
	stacks, found := m.volumes[volumeID]
	if !found {
		stacks = new(memoryStacks)
		m.volumes[volumeID] = stacks
	}
	recs := stacks[stack]
	i := sort.Search(len(recs), func(i int) bool { return recs[i].Time >= rec.Time })
	if i < len(recs) && recs[i].Time == rec.Time {
		recs[i] = rec
		return nil
	}
	recs = append(recs, Record{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	stacks[stack] = recs
	return nil
}

func (m *MemoryStore) Delete(volumeID string, stack Stack, time uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stacks, found := m.volumes[volumeID]
	if !found || stack > RedoStack {
		return nil
	}
	recs := stacks[stack]
	i := sort.Search(len(recs), func(i int) bool { return recs[i].Time >= time })
	if i < len(recs) && recs[i].Time == time {
		stacks[stack] = append(recs[:i], recs[i+1:]...)
	}
	m.prune(volumeID)
	return nil
}

func (m *MemoryStore) Load(volumeID string) (undo, redo []Record, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stacks, found := m.volumes[volumeID]
	if !found {
		return nil, nil, nil
	}
	undo = append([]Record(nil), stacks[UndoStack]...)
	redo = append([]Record(nil), stacks[RedoStack]...)
	return
}

func (m *MemoryStore) Clear(volumeID string, stack Stack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stacks, found := m.volumes[volumeID]
	if !found || stack > RedoStack {
		return nil
	}
	stacks[stack] = nil
	m.prune(volumeID)
	return nil
}

// prune drops a volume with no records left.  Caller must hold the lock.
func (m *MemoryStore) prune(volumeID string) {
	if stacks := m.volumes[volumeID]; len(stacks[UndoStack]) == 0 && len(stacks[RedoStack]) == 0 {
		delete(m.volumes, volumeID)
	}
}

func (m *MemoryStore) Volumes() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.volumes))
	for id := range m.volumes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.volumes = make(map[string]*memoryStacks)
	m.mu.Unlock()
	return nil
}
