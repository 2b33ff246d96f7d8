// Package performance tracks how long the settings screen takes per frame.
package performance

import (
	"sync"
	"time"
)

// RollingAverage maintains a rolling average of durations over a fixed window
type RollingAverage struct {
	samples    []time.Duration
	maxSamples int
	sum        time.Duration
	index      int
	filled     bool
	mu         sync.RWMutex
}

// NewRollingAverage creates a rolling average tracker with specified window size
func NewRollingAverage(windowSize int) *RollingAverage {
	if windowSize < 1 {
		windowSize = 1
	}
	return &RollingAverage{
		samples:    make([]time.Duration, windowSize),
		maxSamples: windowSize,
	}
}

// Add records a new sample and updates the rolling average
func (r *RollingAverage) Add(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.filled {
		r.sum -= r.samples[r.index]
	}

	r.samples[r.index] = d
	r.sum += d

	r.index++
	if r.index >= r.maxSamples {
		r.index = 0
		r.filled = true
	}
}

// Average returns the current rolling average
func (r *RollingAverage) Average() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.count()
	if count == 0 {
		return 0
	}
	return r.sum / time.Duration(count)
}

// Count returns the number of samples currently tracked
func (r *RollingAverage) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count()
}

func (r *RollingAverage) count() int {
	if r.filled {
		return r.maxSamples
	}
	return r.index
}

// Reset clears all samples
func (r *RollingAverage) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sum = 0
	r.index = 0
	r.filled = false
	r.samples = make([]time.Duration, r.maxSamples)
}

// FrameMonitor tracks update and draw time of the render loop against a
// frame budget
type FrameMonitor struct {
	budget      time.Duration
	updateTimes *RollingAverage
	drawTimes   *RollingAverage
	frameTimes  *RollingAverage
	lateFrames  int
	totalFrames int
	startTime   time.Time
	mu          sync.RWMutex
}

// FrameReport contains aggregated frame metrics
type FrameReport struct {
	AvgUpdateMs   float64
	AvgDrawMs     float64
	AvgFrameMs    float64
	LateRate      float64 // percentage of frames over budget
	TotalFrames   int
	LateFrames    int
	IsHealthy     bool
	UptimeSeconds int64
}

// NewFrameMonitor creates a monitor averaging over windowSize frames
// (120 = 2 seconds at 60fps)
func NewFrameMonitor(windowSize int, budget time.Duration) *FrameMonitor {
	return &FrameMonitor{
		budget:      budget,
		updateTimes: NewRollingAverage(windowSize),
		drawTimes:   NewRollingAverage(windowSize),
		frameTimes:  NewRollingAverage(windowSize),
		startTime:   time.Now(),
	}
}

// RecordFrame records one frame split into its update and draw phases
func (p *FrameMonitor) RecordFrame(update, draw time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := update + draw
	p.updateTimes.Add(update)
	p.drawTimes.Add(draw)
	p.frameTimes.Add(total)
	p.totalFrames++
	if total > p.budget {
		p.lateFrames++
	}
}

// Report generates a report with current metrics
func (p *FrameMonitor) Report() FrameReport {
	p.mu.RLock()
	defer p.mu.RUnlock()

	avgFrame := p.frameTimes.Average()

	lateRate := 0.0
	if p.totalFrames > 0 {
		lateRate = (float64(p.lateFrames) / float64(p.totalFrames)) * 100.0
	}

	return FrameReport{
		AvgUpdateMs:   toMs(p.updateTimes.Average()),
		AvgDrawMs:     toMs(p.drawTimes.Average()),
		AvgFrameMs:    toMs(avgFrame),
		LateRate:      lateRate,
		TotalFrames:   p.totalFrames,
		LateFrames:    p.lateFrames,
		IsHealthy:     lateRate < 1.0 && avgFrame <= p.budget,
		UptimeSeconds: int64(time.Since(p.startTime).Seconds()),
	}
}

// Reset clears all metrics
func (p *FrameMonitor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.updateTimes.Reset()
	p.drawTimes.Reset()
	p.frameTimes.Reset()
	p.lateFrames = 0
	p.totalFrames = 0
	p.startTime = time.Now()
}

func toMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
