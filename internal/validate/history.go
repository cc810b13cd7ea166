package validate

import (
	"sync"

	"github.com/sells-group/veracity/internal/model"
)

// History is a bounded FIFO window of recent validation outcomes, owned by
// the Validator that the caller constructs it for. It is safe for
// concurrent use; the critical section covers only the O(1) append/evict
// and the rate read, never any scoring work.
type History struct {
	mu      sync.Mutex
	max     int
	entries []bool // true = valid verdict
	next    int
}

// NewHistory creates a window holding up to size outcomes.
func NewHistory(size int) *History {
	if size <= 0 {
		size = 100
	}
	return &History{max: size, entries: make([]bool, 0, size)}
}

// Append records an outcome, evicting the oldest once the window is full.
func (h *History) Append(res *model.ValidationResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) < h.max {
		h.entries = append(h.entries, res.IsValid)
		return
	}
	h.entries[h.next] = res.IsValid
	h.next = (h.next + 1) % h.max
}

// FailureRate returns the fraction of invalid verdicts in the window and
// the number of samples it is based on.
func (h *History) FailureRate() (float64, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.entries)
	if n == 0 {
		return 0, 0
	}
	failed := 0
	for _, valid := range h.entries {
		if !valid {
			failed++
		}
	}
	return float64(failed) / float64(n), n
}

// Len returns the number of recorded outcomes.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
