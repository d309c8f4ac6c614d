package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamLogs(t *testing.T) {
	fx := newServerFixture()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fx.server.router.ServeHTTP(rec, req)
	}()

	// Wait for the handler to subscribe before publishing.
	require.Eventually(t, func() bool {
		return fx.relay.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond)

	fx.relay.Publish(`{"level":"info","message":"paper scored"}`)

	// Give the handler time to drain the line, then disconnect. The body
	// is only inspected after the handler goroutine has returned.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not stop on client disconnect")
	}

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: stream_started")
	assert.Contains(t, body, "event: log")
	assert.Contains(t, body, "paper scored")
	assert.Equal(t, 0, fx.relay.SubscriberCount())
}
