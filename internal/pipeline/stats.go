package pipeline

import (
	"slices"
	"sync"
	"time"
)

// Pipeline stages with recorded latencies.
const (
	StageConvert = "convert"
	StageChunk   = "chunk"
	StageIndex   = "index"
	StageScope   = "scope"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// StatsSnapshot is a point-in-time aggregate of latency samples.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// window keeps the latencies of one stage within a rolling period.
type window struct {
	samples []sample
}

// StageStats tracks recent per-stage latencies.
type StageStats struct {
	mu     sync.Mutex
	stages map[string]*window
	maxAge time.Duration
}

func NewStageStats(maxAge time.Duration) *StageStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &StageStats{
		stages: make(map[string]*window),
		maxAge: maxAge,
	}
}

// Record adds one latency sample for stage.
func (s *StageStats) Record(stage string, d time.Duration) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.stages[stage]
	if !ok {
		w = &window{samples: make([]sample, 0, 64)}
		s.stages[stage] = w
	}
	w.prune(now.Add(-s.maxAge))
	w.samples = append(w.samples, sample{timestamp: now, durationMs: ms})
}

// Time runs fn and records its duration under stage.
func (s *StageStats) Time(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.Record(stage, time.Since(start))
	return err
}

// Snapshot aggregates every stage that still has samples.
func (s *StageStats) Snapshot() map[string]StatsSnapshot {
	cutoff := time.Now().Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]StatsSnapshot, len(s.stages))
	for name, w := range s.stages {
		w.prune(cutoff)
		if len(w.samples) > 0 {
			out[name] = w.snapshot()
		}
	}
	return out
}

func (w *window) snapshot() StatsSnapshot {
	values := make([]int64, 0, len(w.samples))
	var sum int64
	for _, sm := range w.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	slices.Sort(values)

	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (w *window) prune(cutoff time.Time) {
	writeIdx := 0
	for _, sm := range w.samples {
		if !sm.timestamp.Before(cutoff) {
			w.samples[writeIdx] = sm
			writeIdx++
		}
	}
	w.samples = w.samples[:writeIdx]
}

// percentile interpolates linearly between the closest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
