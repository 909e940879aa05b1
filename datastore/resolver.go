package datastore

import "sync"

// StackRef identifies a displayed stack, e.g., the id of the viewport showing it.
type StackRef string

// StackKey is the identity of an image stack: the image id of its first image.
type StackKey string

// StackInfo is what the segmentation core needs to know about a displayed stack.
type StackInfo struct {
	Key               StackKey
	Rows, Cols        int
	SliceCount        int
	CurrentSliceIndex int
}

// StackResolver resolves a displayed stack.  It is never mutated by this package.
type StackResolver interface {
	ResolveStack(ref StackRef) (StackInfo, bool)
}

// StaticResolver is a StackResolver over a fixed set of stacks, useful for tools
// and tests that have no live viewer.
type StaticResolver struct {
	mu     sync.RWMutex
	stacks map[StackRef]StackInfo
}

// NewStaticResolver returns an empty StaticResolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{stacks: make(map[StackRef]StackInfo)}
}

// Set registers or updates the info for a displayed stack.
func (r *StaticResolver) Set(ref StackRef, info StackInfo) {
	r.mu.Lock()
	r.stacks[ref] = info
	r.mu.Unlock()
}

// SetCurrentSlice moves the displayed stack to a new in-stack position.
func (r *StaticResolver) SetCurrentSlice(ref StackRef, index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, found := r.stacks[ref]
	if !found {
		return false
	}
	info.CurrentSliceIndex = index
	r.stacks[ref] = info
	return true
}

func (r *StaticResolver) ResolveStack(ref StackRef) (StackInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, found := r.stacks[ref]
	return info, found
}
