package telemetry

import "sync"

// DefaultHistorySize is the default number of samples retained.
const DefaultHistorySize = 120

// History is a fixed-size ring of samples, safe for concurrent use.
type History struct {
	mu    sync.RWMutex
	data  []Sample
	head  int
	count int
}

// NewHistory creates a history holding up to size samples.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{data: make([]Sample, size)}
}

// Push appends a sample, evicting the oldest once full.
func (h *History) Push(s Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.data[h.head] = s
	h.head = (h.head + 1) % len(h.data)
	if h.count < len(h.data) {
		h.count++
	}
}

// Last returns up to count samples in chronological order (oldest first).
// A non-positive count returns everything retained.
func (h *History) Last(count int) []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return nil
	}
	if count <= 0 || count > h.count {
		count = h.count
	}

	size := len(h.data)
	// head is the next write position; the newest sample sits at head-1.
	start := (h.head - count + size) % size

	result := make([]Sample, count)
	for i := 0; i < count; i++ {
		result[i] = h.data[(start+i)%size]
	}
	return result
}

// Latest returns the newest sample.
func (h *History) Latest() (Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return Sample{}, false
	}
	return h.data[(h.head-1+len(h.data))%len(h.data)], true
}

// Len returns the number of samples retained.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Cap returns the maximum number of samples retained.
func (h *History) Cap() int {
	return len(h.data)
}
