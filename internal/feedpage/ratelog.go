package feedpage

import (
	"log"
	"sync"
	"time"
)

// rateLimitedLogger damps repeated per-key messages, so a source that
// fails on every tick of loop mode logs once per interval instead of
// once per tick. The first message for a key always goes through.
type rateLimitedLogger struct {
	mu       sync.Mutex
	interval time.Duration
	lastAt   map[string]time.Time
}

func newRateLimitedLogger(interval time.Duration) *rateLimitedLogger {
	return &rateLimitedLogger{interval: interval, lastAt: map[string]time.Time{}}
}

func (l *rateLimitedLogger) Printf(key, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if last, ok := l.lastAt[key]; ok && now.Sub(last) < l.interval {
		return
	}
	l.lastAt[key] = now
	log.Printf(format, args...)
}
