package worker

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Stats tracks running counters for the worker loop. Counters are atomic so
// a future multi-goroutine worker can share one instance.
type Stats struct {
	processed atomic.Int64
	failed    atomic.Int64
	started   time.Time
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

func (s *Stats) RecordProcessed() { s.processed.Add(1) }
func (s *Stats) RecordFailed()    { s.failed.Add(1) }

func (s *Stats) Processed() int64 { return s.processed.Load() }
func (s *Stats) Failed() int64    { return s.failed.Load() }

func (s *Stats) Elapsed() time.Duration { return time.Since(s.started) }

// Throughput returns processed tickets per second since startup.
func (s *Stats) Throughput() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.processed.Load()) / elapsed
}

// Report logs the current counters.
func (s *Stats) Report(logger *slog.Logger, msg string) {
	logger.Info(msg,
		"tickets_processed", s.Processed(),
		"tickets_failed", s.Failed(),
		"elapsed_seconds", s.Elapsed().Round(time.Second).Seconds(),
		"throughput_per_second", s.Throughput(),
	)
}
