package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sjawhar/interview-minutes/internal/compile"
	"github.com/sjawhar/interview-minutes/internal/interview"
)

// Hub fans session events out to websocket subscribers. Slow subscribers
// drop messages rather than block the request path.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
	now     func() time.Time
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{}), now: time.Now}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			slog.Debug("hub: dropping message for slow subscriber")
		}
	}
}

func (h *Hub) BroadcastSessionStarted(template, sessionID string) {
	h.broadcastSession("session_started", template, sessionID)
}

func (h *Hub) BroadcastSessionCompleted(template, sessionID string) {
	h.broadcastSession("session_completed", template, sessionID)
}

func (h *Hub) BroadcastSessionReset(template, sessionID string) {
	h.broadcastSession("session_reset", template, sessionID)
}

func (h *Hub) BroadcastAnswerRecorded(template, sessionID string, outcome interview.Outcome) {
	h.broadcastEvent(AnswerRecordedEvent{
		Event:     newEvent("answer_recorded", h.now()),
		Template:  template,
		SessionID: sessionID,
		Outcome:   outcome,
	})
}

func (h *Hub) BroadcastDocumentCompiled(template, sessionID string, res compile.Result) {
	h.broadcastEvent(DocumentCompiledEvent{
		Event:        newEvent("document_compiled", h.now()),
		Template:     template,
		SessionID:    sessionID,
		DocumentID:   res.ID,
		Path:         res.Path,
		RemoteID:     res.RemoteID,
		Consolidated: res.Consolidated,
	})
}

func (h *Hub) broadcastSession(eventType, template, sessionID string) {
	h.broadcastEvent(SessionEvent{
		Event:     newEvent(eventType, h.now()),
		Template:  template,
		SessionID: sessionID,
	})
}

func (h *Hub) broadcastEvent(payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		slog.Error("hub: marshal event failed", "error", err)
		return
	}
	h.Broadcast(b)
}
