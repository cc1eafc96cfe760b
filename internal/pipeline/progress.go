package pipeline

import "time"

// Progress captures how far a run has advanced. It is recomputed after each
// chunk and holds no hidden state.
type Progress struct {
	Completed int           // Chunks fully transcribed so far.
	Total     int           // Chunks in the whole run.
	Elapsed   time.Duration // Wall time since the run started.
}

// Avg returns the mean processing time per completed chunk, or zero before
// the first chunk finishes.
func (p Progress) Avg() time.Duration {
	if p.Completed <= 0 {
		return 0
	}
	return p.Elapsed / time.Duration(p.Completed)
}

// ETA estimates the remaining run time from the per-chunk average. It is
// never negative and reaches zero as the last chunk completes.
func (p Progress) ETA() time.Duration {
	remaining := p.Total - p.Completed
	if remaining <= 0 {
		return 0
	}
	return p.Avg() * time.Duration(remaining)
}
