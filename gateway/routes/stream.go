package routes

import (
	"context"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/galacticcouncil/warehouse/core/events"
	"github.com/galacticcouncil/warehouse/core/types"
)

// eventConverter is satisfied by every concrete event in core/events/farming.go.
type eventConverter interface {
	Event() *types.Event
}

const subscriberBuffer = 64

// Hub fans out engine events to connected websocket subscribers. It
// implements events.Emitter so it can be handed straight to
// farming.WithEmitter.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan *types.Event]struct{}
}

// NewHub returns an empty event hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan *types.Event]struct{})}
}

// Emit implements events.Emitter. Events that don't carry a wire
// representation (none currently, but defensive against future additions)
// are dropped.
func (h *Hub) Emit(ev events.Event) {
	conv, ok := ev.(eventConverter)
	if !ok {
		return
	}
	wire := conv.Event()

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- wire:
		default:
			// Slow subscriber; drop the event rather than block the engine.
		}
	}
}

func (h *Hub) subscribe() chan *types.Event {
	ch := make(chan *types.Event, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan *types.Event) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
	close(ch)
}

type streamRoutes struct {
	hub *Hub
}

func newStreamRoutes(hub *Hub) *streamRoutes {
	return &streamRoutes{hub: hub}
}

// serve upgrades the request to a websocket and streams every farming event
// emitted from this point on until the client disconnects.
func (sr *streamRoutes) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "closing")

	ch := sr.hub.subscribe()
	defer sr.hub.unsubscribe(ch)

	ctx := r.Context()
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case ev, ok := <-ch:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
