package pipeline

import "sync"

// Tracker keeps the result of the most recently started run that has
// finished. A run that finishes after a newer one has been accepted is
// discarded, and a newer run that fails clears the held result.
type Tracker struct {
	mu       sync.Mutex
	issued   uint64
	accepted uint64
	latest   *Result
}

// Begin issues the sequence number for a new run.
func (t *Tracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issued++
	return t.issued
}

// Commit stores res if seq is newer than the last accepted run and reports
// whether it was kept.
func (t *Tracker) Commit(seq uint64, res *Result) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq <= t.accepted {
		return false
	}
	t.accepted = seq
	t.latest = res
	return true
}

// Fail records that run seq produced no result. If seq is newer than the
// last accepted run the held result is dropped, and Fail reports true.
func (t *Tracker) Fail(seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq <= t.accepted {
		return false
	}
	t.accepted = seq
	t.latest = nil
	return true
}

// Latest returns the accepted result and its sequence number, or nil.
func (t *Tracker) Latest() (*Result, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest, t.accepted
}
