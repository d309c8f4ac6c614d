// Package logstream fans log lines out to connected clients.
//
// The relay sits behind the logger as an extra writer. Each connected
// client gets a buffered channel; slow clients drop lines instead of
// blocking the logger or other clients.
package logstream

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 64

// Relay broadcasts log lines to any number of subscribers.
type Relay struct {
	mu      sync.RWMutex
	subs    map[string]chan string
	bufSize int
	dropped uint64
}

// NewRelay creates a relay with the given per-subscriber buffer size.
// A non-positive size falls back to DefaultBufferSize.
func NewRelay(bufSize int) *Relay {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Relay{
		subs:    make(map[string]chan string),
		bufSize: bufSize,
	}
}

// Subscribe registers a new client and returns its ID and receive channel.
// The channel is closed by Unsubscribe.
func (r *Relay) Subscribe() (string, <-chan string) {
	id := uuid.NewString()
	ch := make(chan string, r.bufSize)

	r.mu.Lock()
	r.subs[id] = ch
	r.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a client and closes its channel. Unknown IDs are
// ignored.
func (r *Relay) Unsubscribe(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.subs[id]; ok {
		delete(r.subs, id)
		close(ch)
	}
}

// SubscriberCount returns the number of connected clients.
func (r *Relay) SubscriberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Dropped returns how many lines were discarded because a subscriber's
// buffer was full.
func (r *Relay) Dropped() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dropped
}

// Publish delivers a line to every subscriber without blocking.
func (r *Relay) Publish(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.subs {
		select {
		case ch <- line:
		default:
			r.dropped++
		}
	}
}

// Write implements io.Writer so the relay can be attached directly to the
// logger output. Each call is treated as one log line.
func (r *Relay) Write(p []byte) (int, error) {
	line := string(p)
	// Trim the trailing newline zerolog appends.
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if line != "" {
		r.Publish(line)
	}
	return len(p), nil
}

// Close unsubscribes every client.
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}
