package batch

import "time"

const percentMultiplier = 100

// Progress is a snapshot of a running Process call.
type Progress struct {
	TotalItems      int
	ProcessedItems  int
	TotalChunks     int
	ProcessedChunks int
	StartTime       time.Time
}

func newProgress(items, chunks int) Progress {
	return Progress{TotalItems: items, TotalChunks: chunks, StartTime: time.Now()}
}

func (p *Progress) add(n int) {
	p.ProcessedItems += n
	p.ProcessedChunks++
}

// Percent returns the completion percentage (0-100).
func (p Progress) Percent() float64 {
	if p.TotalItems == 0 {
		return 0
	}
	return float64(p.ProcessedItems) / float64(p.TotalItems) * percentMultiplier
}

// Done reports whether every item was processed.
func (p Progress) Done() bool {
	return p.ProcessedItems >= p.TotalItems
}

// Elapsed returns the time since processing started.
func (p Progress) Elapsed() time.Duration {
	return time.Since(p.StartTime)
}
