package batch

import (
	"sync"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Progress tracks how many rows and batches have been processed.
// It is safe for concurrent use.
type Progress struct {
	totalRows     int
	processedRows int

	totalBatches     int
	processedBatches int

	batchSize int

	startTime      time.Time
	lastUpdateTime time.Time

	mu sync.RWMutex
}

// ProgressSnapshot is an immutable copy of progress state.
type ProgressSnapshot struct {
	TotalRows        int
	ProcessedRows    int
	TotalBatches     int
	ProcessedBatches int
	BatchSize        int
	StartTime        time.Time
	LastUpdateTime   time.Time
	PercentComplete  float64
	ElapsedTime      time.Duration
}

// NewProgress creates a new progress tracker.
func NewProgress(totalRows, totalBatches, batchSize int) *Progress {
	now := time.Now()
	return &Progress{
		totalRows:      totalRows,
		totalBatches:   totalBatches,
		batchSize:      batchSize,
		startTime:      now,
		lastUpdateTime: now,
	}
}

// AddProcessed records one finished batch of the given row count.
func (p *Progress) AddProcessed(rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processedRows += rows
	p.processedBatches++
	p.lastUpdateTime = time.Now()
}

// PercentComplete returns the completion percentage (0-100) by rows.
func (p *Progress) PercentComplete() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.percentCompleteLocked()
}

// IsComplete returns true if all rows have been processed.
func (p *Progress) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.processedRows >= p.totalRows
}

// ElapsedTime returns the time elapsed since processing started.
func (p *Progress) ElapsedTime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return time.Since(p.startTime)
}

// RowsPerSecond returns the processing rate in rows per second.
func (p *Progress) RowsPerSecond() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elapsed := time.Since(p.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(p.processedRows) / elapsed
}

// Snapshot returns a consistent copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ProgressSnapshot{
		TotalRows:        p.totalRows,
		ProcessedRows:    p.processedRows,
		TotalBatches:     p.totalBatches,
		ProcessedBatches: p.processedBatches,
		BatchSize:        p.batchSize,
		StartTime:        p.startTime,
		LastUpdateTime:   p.lastUpdateTime,
		PercentComplete:  p.percentCompleteLocked(),
		ElapsedTime:      time.Since(p.startTime),
	}
}

// percentCompleteLocked must be called with mu held.
func (p *Progress) percentCompleteLocked() float64 {
	if p.totalRows == 0 {
		return 0
	}
	return (float64(p.processedRows) / float64(p.totalRows)) * percentMultiplier
}
