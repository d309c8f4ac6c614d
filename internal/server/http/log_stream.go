package httpserver

import (
	"fmt"
	"net/http"
	"time"
)

// sseHeartbeatInterval keeps idle log streams alive through proxies.
const sseHeartbeatInterval = 15 * time.Second

// streamLogs handles GET /api/v1/logs/stream (SSE). Every pipeline log line
// is relayed to the client as one event until it disconnects.
func (s *Server) streamLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	id, lines := s.relay.Subscribe()
	defer s.relay.Unsubscribe(id)
	s.logger.Debug().Str("subscriber", id).Msg("log stream opened")

	fmt.Fprintf(w, "event: stream_started\ndata: {\"subscriber\":%q}\n\n", id)
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug().Str("subscriber", id).Msg("log stream closed")
			return

		case line, open := <-lines:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: log\ndata: %s\n\n", line)
			flusher.Flush()

		case <-heartbeat.C:
			// SSE comment line; ignored by clients, defeats idle timeouts.
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
