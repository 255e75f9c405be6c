package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/AccessDevops/S3Explorer/internal/logger"
	"github.com/AccessDevops/S3Explorer/pkg/events"
)

// sseEvent is one Server-Sent Event: name becomes the "event:" line, payload
// is JSON-encoded onto the "data:" line.
type sseEvent struct {
	name    string
	payload any
}

// Broadcaster is the events.Emitter implementation for pkg/httpapi: it fans
// every CommandFacade event out to every currently-subscribed SSE client
//.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[chan sseEvent]struct{}
}

// NewBroadcaster constructs an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[chan sseEvent]struct{})}
}

func (b *Broadcaster) subscribe() chan sseEvent {
	ch := make(chan sseEvent, 64)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) unsubscribe(ch chan sseEvent) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *Broadcaster) publish(evt sseEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- evt:
		default:
			// slow client: drop rather than block the facade goroutine emitting this event
		}
	}
}

func (b *Broadcaster) EmitUploadProgress(p events.UploadProgress)     { b.publish(sseEvent{"upload_progress", p}) }
func (b *Broadcaster) EmitDownloadProgress(p events.DownloadProgress) { b.publish(sseEvent{"download_progress", p}) }
func (b *Broadcaster) EmitIndexProgress(p events.IndexProgress)       { b.publish(sseEvent{"index_progress", p}) }
func (b *Broadcaster) EmitMetric(m events.S3RequestMetric)            { b.publish(sseEvent{"metric", m}) }

// Stream handles GET /api/v1/events: a long-lived Server-Sent Events
// connection that receives every event published after it subscribes.
func (b *Broadcaster) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalServerError(w, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(evt.payload)
			if err != nil {
				logger.FromCtx(ctx).Warn("sse marshal failed", "event", evt.name, "error", err)
				continue
			}
			if _, err := w.Write([]byte("event: " + evt.name + "\ndata: " + string(data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
