// Package telemetry records per-call samples in a bounded rolling buffer
// and derives a time-windowed metrics view for the status surface.
package telemetry

import (
	"math"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultMaxSamples bounds the rolling buffer so bursty traffic cannot
	// grow memory without limit.
	DefaultMaxSamples = 1000

	// metricsWindow is the trailing window Metrics reads over. Older
	// samples are excluded from the read, not deleted from the buffer.
	metricsWindow = time.Hour
)

// Sample is one recorded call attempt.
type Sample struct {
	Operation string
	Duration  time.Duration
	At        time.Time
	Success   bool
	Error     string
}

// Metrics is the derived view over the trailing window.
type Metrics struct {
	TotalOperations int           `json:"total_operations"`
	SuccessRate     float64       `json:"success_rate"`
	ErrorRate       float64       `json:"error_rate"`
	P99Latency      time.Duration `json:"p99_latency"`
}

// Recorder aggregates call samples. Safe for concurrent use from multiple
// independent call paths.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
	max     int

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewRecorder creates a recorder with the default buffer bound.
func NewRecorder() *Recorder {
	return NewRecorderSize(DefaultMaxSamples)
}

// NewRecorderSize creates a recorder holding at most max samples, evicting
// oldest first.
func NewRecorderSize(max int) *Recorder {
	if max <= 0 {
		max = DefaultMaxSamples
	}
	return &Recorder{
		samples: make([]Sample, 0, max),
		max:     max,
		nowFunc: time.Now,
	}
}

// StartTimer begins timing op. Calling the returned stop function records a
// successful sample with the elapsed duration.
func (r *Recorder) StartTimer(op string) func() {
	start := r.nowFunc()
	return func() {
		now := r.nowFunc()
		r.append(Sample{
			Operation: op,
			Duration:  now.Sub(start),
			At:        now,
			Success:   true,
		})
	}
}

// RecordError records a failed sample for op.
func (r *Recorder) RecordError(op string, err error, duration time.Duration) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.append(Sample{
		Operation: op,
		Duration:  duration,
		At:        r.nowFunc(),
		Success:   false,
		Error:     msg,
	})
}

// Metrics computes the windowed view. P99 latency is taken over successful
// samples only; with no successes in the window it is 0.
func (r *Recorder) Metrics() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.nowFunc().Add(-metricsWindow)

	var m Metrics
	var successes int
	var latencies []time.Duration
	for _, s := range r.samples {
		if s.At.Before(cutoff) {
			continue
		}
		m.TotalOperations++
		if s.Success {
			successes++
			latencies = append(latencies, s.Duration)
		}
	}

	if m.TotalOperations > 0 {
		m.SuccessRate = float64(successes) / float64(m.TotalOperations)
		m.ErrorRate = float64(m.TotalOperations-successes) / float64(m.TotalOperations)
	}

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		idx := int(math.Floor(0.99 * float64(len(latencies))))
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		m.P99Latency = latencies[idx]
	}

	return m
}

// Len returns the number of buffered samples, for observability.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

func (r *Recorder) append(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.samples) >= r.max {
		// Evict oldest.
		copy(r.samples, r.samples[1:])
		r.samples = r.samples[:len(r.samples)-1]
	}
	r.samples = append(r.samples, s)
}
