package feedpage

import (
	"fmt"
	"math"
	"sync/atomic"
)

// statsCollector aggregates one tick's fetch outcomes across the worker
// goroutines. Body sizes are tracked for fetched responses only.
type statsCollector struct {
	fetched     atomic.Uint64
	notModified atomic.Uint64
	rateLimited atomic.Uint64
	skipped     atomic.Uint64
	failed      atomic.Uint64

	totalBodyBytes atomic.Uint64
	minBodyBytes   atomic.Uint64
	maxBodyBytes   atomic.Uint64
}

func newStatsCollector() *statsCollector {
	s := &statsCollector{}
	s.minBodyBytes.Store(math.MaxUint64)
	return s
}

func (s *statsCollector) Observe(outcome Outcome, bodyBytes int) {
	switch outcome {
	case OutcomeFetched:
		s.fetched.Add(1)
		s.observeBody(bodyBytes)
	case OutcomeNotModified:
		s.notModified.Add(1)
	case OutcomeRateLimited:
		s.rateLimited.Add(1)
	case OutcomeSkippedFresh, OutcomeSkippedBackoff:
		s.skipped.Add(1)
	}
}

func (s *statsCollector) ObserveFailure() {
	s.failed.Add(1)
}

func (s *statsCollector) observeBody(bodyBytes int) {
	if bodyBytes < 0 {
		bodyBytes = 0
	}
	n := uint64(bodyBytes)
	s.totalBodyBytes.Add(n)

	for {
		cur := s.minBodyBytes.Load()
		if n >= cur {
			break
		}
		if s.minBodyBytes.CompareAndSwap(cur, n) {
			break
		}
	}
	for {
		cur := s.maxBodyBytes.Load()
		if n <= cur {
			break
		}
		if s.maxBodyBytes.CompareAndSwap(cur, n) {
			break
		}
	}
}

func (s *statsCollector) Summary() string {
	fetched := s.fetched.Load()
	line := fmt.Sprintf(
		"fetched=%d notModified=%d rateLimited=%d skipped=%d failed=%d",
		fetched,
		s.notModified.Load(),
		s.rateLimited.Load(),
		s.skipped.Load(),
		s.failed.Load(),
	)
	if fetched == 0 {
		return line
	}
	minB := s.minBodyBytes.Load()
	if minB == math.MaxUint64 {
		minB = 0
	}
	total := s.totalBodyBytes.Load()
	return fmt.Sprintf(
		"%s, body min/avg/max %s/%s/%s",
		line,
		formatBytes(minB),
		formatBytes(total/fetched),
		formatBytes(s.maxBodyBytes.Load()),
	)
}
