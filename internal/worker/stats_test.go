package worker

import "testing"

func TestStatsCounters(t *testing.T) {
	s := NewStats()
	for i := 0; i < 5; i++ {
		s.RecordProcessed()
	}
	s.RecordFailed()
	s.RecordFailed()

	if s.Processed() != 5 {
		t.Errorf("Processed() = %d, want 5", s.Processed())
	}
	if s.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", s.Failed())
	}
}

func TestStatsThroughput(t *testing.T) {
	s := NewStats()
	if s.Throughput() != 0 {
		t.Errorf("fresh stats throughput = %f, want 0", s.Throughput())
	}
	s.RecordProcessed()
	if s.Throughput() < 0 {
		t.Errorf("throughput = %f, want non-negative", s.Throughput())
	}
}
