package refresh

import "sync"

// historyWindow is the number of recent cycle outcomes tracked for success %.
const historyWindow = 20

// history is a rolling window of cycle outcomes.
type history struct {
	mu       sync.Mutex
	outcomes []bool // newest last
	failures int    // consecutive failures ending at the newest outcome
}

func (h *history) record(success bool) (successPct float64, consecutiveFailures int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.outcomes) >= historyWindow {
		h.outcomes = h.outcomes[1:]
	}
	h.outcomes = append(h.outcomes, success)
	if success {
		h.failures = 0
	} else {
		h.failures++
	}
	return h.successPctLocked(), h.failures
}

func (h *history) successPctLocked() float64 {
	if len(h.outcomes) == 0 {
		return 100 // assume healthy before the first observation
	}
	var ok int
	for _, s := range h.outcomes {
		if s {
			ok++
		}
	}
	return float64(ok) / float64(len(h.outcomes)) * 100
}
