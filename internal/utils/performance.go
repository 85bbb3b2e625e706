package utils

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type stageStats struct {
	count int
	total time.Duration
	last  time.Duration
}

// PerformanceTracker accumulates wall-clock timings per pipeline stage
// (parse, analyze, provider fetches). Safe for concurrent handlers.
type PerformanceTracker struct {
	mu     sync.Mutex
	stages map[string]*stageStats
}

func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{
		stages: make(map[string]*stageStats),
	}
}

// TrackOperation records one completed run of the named stage.
func (pt *PerformanceTracker) TrackOperation(stage string, duration time.Duration) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	s, ok := pt.stages[stage]
	if !ok {
		s = &stageStats{}
		pt.stages[stage] = s
	}
	s.count++
	s.total += duration
	s.last = duration
}

// GenerateAggregateReport renders count/average/last per stage, in
// stable stage order.
func (pt *PerformanceTracker) GenerateAggregateReport() string {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	names := make([]string, 0, len(pt.stages))
	for name := range pt.stages {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Performance Report:\n")
	for _, name := range names {
		s := pt.stages[name]
		avg := s.total / time.Duration(s.count)
		fmt.Fprintf(&b, "%s: count=%d avg=%v last=%v\n", name, s.count, avg, s.last)
	}
	return b.String()
}
