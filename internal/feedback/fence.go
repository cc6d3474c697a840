package feedback

import "sync"

// Fence hands out monotonically increasing request ids per key. Only the
// latest id for a key is valid, so a slow response started before a newer
// request or user edit can be detected and dropped.
type Fence struct {
	mu      sync.Mutex
	current map[string]uint64
}

// NewFence returns an empty fence.
func NewFence() *Fence {
	return &Fence{current: make(map[string]uint64)}
}

// Begin starts a request for key and returns its id.
func (f *Fence) Begin(key string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current[key]++
	return f.current[key]
}

// Bump invalidates every in-flight request for key.
func (f *Fence) Bump(key string) {
	f.Begin(key)
}

// Current returns the latest id issued for key.
func (f *Fence) Current(key string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current[key]
}

// Valid reports whether id is still the latest for key.
func (f *Fence) Valid(key string, id uint64) bool {
	return f.Current(key) == id
}
