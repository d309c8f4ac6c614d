package pipeline

import (
	"sync"
	"time"
)

// CooldownLedger tracks the last trigger time of rate-limited operator
// actions. It is process-local and resets on restart.
type CooldownLedger struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

// NewCooldownLedger creates an empty ledger.
func NewCooldownLedger() *CooldownLedger {
	return &CooldownLedger{
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Reserve records a trigger for key if its cooldown window has elapsed.
// Returns (0, true) when the action may proceed, or (remaining, false) with
// the time left until the next allowed trigger.
func (l *CooldownLedger) Reserve(key string, window time.Duration) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.last[key]; ok {
		if elapsed := now.Sub(last); elapsed < window {
			return window - elapsed, false
		}
	}
	l.last[key] = now
	return 0, true
}
