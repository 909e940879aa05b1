package datastore

import (
	"fmt"
	"sync"

	"github.com/janelia-flyem/dvidseg/dvid"
	"github.com/janelia-flyem/dvidseg/labelmap"
)

// StackState is the segmentation state of one image stack.
type StackState struct {
	ActiveLabelmapIndex int
	Labelmaps           []*labelmap.Volume
}

// Series maps stack keys to their segmentation state.
type Series map[StackKey]*StackState

// Active is the result of resolving the active segmentation for a displayed stack.
type Active struct {
	Key               StackKey
	Labelmaps         []*labelmap.Volume
	ActiveIndex       int
	CurrentSliceIndex int
}

// Labelmap is a resolved volume along with where it lives in the Store.
type Labelmap struct {
	Key    StackKey
	Index  int
	Volume *labelmap.Volume
}

// Store is the directory of segmentation state.  Its registry is safe for concurrent
// use, but the volumes it hands out are not.
type Store struct {
	resolver StackResolver

	mu     sync.RWMutex
	series Series
}

// NewStore returns an empty Store that resolves displayed stacks with resolver.
func NewStore(resolver StackResolver) *Store {
	return &Store{resolver: resolver, series: make(Series)}
}

// Resolver returns the StackResolver used by the store.
func (s *Store) Resolver() StackResolver {
	return s.resolver
}

// ResolveActive returns the labelmaps of the stack displayed by ref, the active index
// and the current in-stack position.  It returns false if the stack has no registered
// segmentation state.
func (s *Store) ResolveActive(ref StackRef) (Active, bool) {
	info, found := s.resolver.ResolveStack(ref)
	if !found {
		return Active{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, found := s.series[info.Key]
	if !found {
		return Active{}, false
	}
	return Active{
		Key:               info.Key,
		Labelmaps:         state.Labelmaps,
		ActiveIndex:       state.ActiveLabelmapIndex,
		CurrentSliceIndex: info.CurrentSliceIndex,
	}, true
}

// ResolveVolume returns a labelmap of the stack displayed by ref.  If no index is
// given, the active labelmap is returned.
func (s *Store) ResolveVolume(ref StackRef, index ...int) (*labelmap.Volume, bool) {
	lm, found := s.ResolveLabelmap(ref, index...)
	return lm.Volume, found
}

// ResolveLabelmap is like ResolveVolume but also returns the stack key and index.
func (s *Store) ResolveLabelmap(ref StackRef, index ...int) (Labelmap, bool) {
	active, found := s.ResolveActive(ref)
	if !found {
		return Labelmap{}, false
	}
	i := active.ActiveIndex
	if len(index) != 0 {
		i = index[0]
	}
	if i < 0 || i >= len(active.Labelmaps) || active.Labelmaps[i] == nil {
		return Labelmap{}, false
	}
	return Labelmap{Key: active.Key, Index: i, Volume: active.Labelmaps[i]}, true
}

// ResolveVolumeByKey returns the labelmap at index for the stack with the given key.
func (s *Store) ResolveVolumeByKey(key StackKey, index int) (*labelmap.Volume, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, found := s.series[key]
	if !found || index < 0 || index >= len(state.Labelmaps) {
		return nil, false
	}
	vol := state.Labelmaps[index]
	return vol, vol != nil
}

// AddLabelmap creates a blank labelmap sized for the stack displayed by ref, registering
// the stack if needed.  The new labelmap becomes active and its index is returned.
func (s *Store) AddLabelmap(ref StackRef) (*labelmap.Volume, int, error) {
	info, found := s.resolver.ResolveStack(ref)
	if !found {
		return nil, 0, fmt.Errorf("no stack displayed for %q", ref)
	}
	vol, err := labelmap.NewVolume(info.Rows, info.Cols, info.SliceCount)
	if err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state(info.Key)
	state.Labelmaps = append(state.Labelmaps, vol)
	state.ActiveLabelmapIndex = len(state.Labelmaps) - 1
	dvid.Debugf("Added %s at index %d for stack %q\n", vol, state.ActiveLabelmapIndex, info.Key)
	return vol, state.ActiveLabelmapIndex, nil
}

// SetLabelmap places vol at index for the stack displayed by ref, e.g., a labelmap
// loaded from elsewhere.  Its dimensions must match the stack.
func (s *Store) SetLabelmap(ref StackRef, index int, vol *labelmap.Volume) error {
	info, found := s.resolver.ResolveStack(ref)
	if !found {
		return fmt.Errorf("no stack displayed for %q", ref)
	}
	if vol.Rows != info.Rows || vol.Cols != info.Cols || vol.SliceCount != info.SliceCount {
		return fmt.Errorf("%s does not fit stack %q (%d x %d x %d)", vol, info.Key, info.Cols, info.Rows, info.SliceCount)
	}
	return s.SetLabelmapByKey(info.Key, index, vol)
}

// SetLabelmapByKey places vol at index for the stack with the given key.
func (s *Store) SetLabelmapByKey(key StackKey, index int, vol *labelmap.Volume) error {
	if index < 0 {
		return fmt.Errorf("bad labelmap index %d", index)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state(key)
	for len(state.Labelmaps) <= index {
		state.Labelmaps = append(state.Labelmaps, nil)
	}
	state.Labelmaps[index] = vol
	return nil
}

// state returns the state for key, creating it if necessary.  Caller must hold the lock.
func (s *Store) state(key StackKey) *StackState {
	state, found := s.series[key]
	if !found {
		state = &StackState{}
		s.series[key] = state
	}
	return state
}

// Unregister drops all segmentation state of a stack.
func (s *Store) Unregister(key StackKey) {
	s.mu.Lock()
	delete(s.series, key)
	s.mu.Unlock()
}

// Keys returns the keys of all registered stacks.
func (s *Store) Keys() []StackKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]StackKey, 0, len(s.series))
	for key := range s.series {
		keys = append(keys, key)
	}
	return keys
}

// ActiveLabelmapIndex returns the active labelmap index of the stack displayed by ref.
func (s *Store) ActiveLabelmapIndex(ref StackRef) (int, bool) {
	active, found := s.ResolveActive(ref)
	return active.ActiveIndex, found
}

// SetActiveLabelmapIndex makes the labelmap at index active.  A blank labelmap is
// created if none exists there yet.
func (s *Store) SetActiveLabelmapIndex(ref StackRef, index int) error {
	info, found := s.resolver.ResolveStack(ref)
	if !found {
		return fmt.Errorf("no stack displayed for %q", ref)
	}
	if index < 0 {
		return fmt.Errorf("bad labelmap index %d", index)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state(info.Key)
	for len(state.Labelmaps) <= index {
		state.Labelmaps = append(state.Labelmaps, nil)
	}
	if state.Labelmaps[index] == nil {
		vol, err := labelmap.NewVolume(info.Rows, info.Cols, info.SliceCount)
		if err != nil {
			return err
		}
		state.Labelmaps[index] = vol
	}
	state.ActiveLabelmapIndex = index
	return nil
}

// Labelmap2D returns the active labelmap's view of the slice currently displayed.
func (s *Store) Labelmap2D(ref StackRef) (*labelmap.Slice, bool) {
	active, found := s.ResolveActive(ref)
	if !found {
		return nil, false
	}
	return s.Labelmap2DByImageIDIndex(ref, active.CurrentSliceIndex)
}

// Labelmap2DByImageIDIndex returns the active labelmap's view of a given in-stack slice.
func (s *Store) Labelmap2DByImageIDIndex(ref StackRef, imageIDIndex int) (*labelmap.Slice, bool) {
	vol, found := s.ResolveVolume(ref)
	if !found || imageIDIndex < 0 || imageIDIndex >= vol.SliceCount {
		return nil, false
	}
	return vol.Labelmap2D(imageIDIndex), true
}

// LabelmapBuffers returns the label buffers of every labelmap of a stack, with nil
// for unused indices.
func (s *Store) LabelmapBuffers(ref StackRef) ([][]uint16, bool) {
	active, found := s.ResolveActive(ref)
	if !found {
		return nil, false
	}
	buffers := make([][]uint16, len(active.Labelmaps))
	for i, vol := range active.Labelmaps {
		if vol != nil {
			buffers[i] = vol.Buffer
		}
	}
	return buffers, true
}

// ActiveLabelmapBuffer returns the label buffer of the active labelmap.
func (s *Store) ActiveLabelmapBuffer(ref StackRef) ([]uint16, bool) {
	vol, found := s.ResolveVolume(ref)
	if !found {
		return nil, false
	}
	return vol.Buffer, true
}
