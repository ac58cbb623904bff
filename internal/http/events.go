package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"budget/internal/budget"
	applog "budget/internal/log"
)

type event struct {
	revision uint64
	data     []byte
}

// eventHub fans store notifications out to event-stream clients. A client
// that falls behind loses its oldest queued events, never blocking the store.
type eventHub struct {
	mu      sync.Mutex
	clients map[chan event]struct{}
	buffer  int
	closed  bool
	logger  *applog.Logger
}

func newEventHub(buffer int, logger *applog.Logger) *eventHub {
	return &eventHub{
		clients: make(map[chan event]struct{}),
		buffer:  buffer,
		logger:  logger,
	}
}

// BudgetChanged implements budget.Observer.
func (h *eventHub) BudgetChanged(ctx context.Context, snap budget.Snapshot) {
	data, err := json.Marshal(newSnapshotResponse(snap))
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to encode budget event", applog.FieldError, err)
		return
	}
	h.broadcast(event{revision: snap.Revision, data: data})
}

func (h *eventHub) broadcast(ev event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
			continue
		default:
		}
		// Full: drop the oldest queued event to make room.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// subscribe registers a client. ok is false once the hub is closed.
func (h *eventHub) subscribe() (ch chan event, cancel func(), ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, false
	}
	ch = make(chan event, h.buffer)
	h.clients[ch] = struct{}{}
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	}, true
}

func (h *eventHub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// close ends every client stream.
func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

// handleEvents streams one "budget" event per store notification, starting
// with the current snapshot.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	ch, cancel, ok := s.hub.subscribe()
	if !ok {
		ErrorResponse(http.StatusServiceUnavailable, "server shutting down").Write(w)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	current := s.store.Snapshot()
	data, err := json.Marshal(newSnapshotResponse(current))
	if err != nil {
		return
	}
	if err := writeEvent(w, rc, event{revision: current.Revision, data: data}); err != nil {
		return
	}

	keepAlive := time.NewTicker(s.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case ev, ok := <-ch:
			if !ok {
				return
			}
			// The first snapshot may already cover queued events.
			if ev.revision <= current.Revision {
				continue
			}
			if err := writeEvent(w, rc, ev); err != nil {
				applog.FromContext(r.Context()).DebugContext(r.Context(), "Event stream closed", applog.FieldError, err)
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, ev event) error {
	if _, err := fmt.Fprintf(w, "id: %d\nevent: budget\ndata: %s\n\n", ev.revision, ev.data); err != nil {
		return err
	}
	return rc.Flush()
}
