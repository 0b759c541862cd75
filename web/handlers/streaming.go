package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/session"
)

// handleSessionStream streams session updates using Server-Sent Events. A
// live session is followed through its hub; a finished session gets its
// stored state replayed and the stream closed.
func (h *Handler) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slog.Debug("New session stream connection", "id", id, "remote_addr", r.RemoteAddr)

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.Error("Streaming unsupported: ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess, turns, err := h.engine.GetSessionWithTurns(id)
	if err != nil {
		slog.Error("Failed to get session for stream", "id", id, "error", err)
		h.sendSSEError(w, flusher, "Failed to get session")
		return
	}
	if sess == nil {
		slog.Warn("Session not found for stream", "id", id)
		h.sendSSEError(w, flusher, "Session not found")
		return
	}

	hub := h.engine.Hub(id)
	if hub == nil {
		// No live run. Replay the stored outcome and close.
		for _, turn := range turns {
			h.sendSSEEvent(w, flusher, string(session.EventState), turn)
		}
		if sess.Status == core.StatusFailed {
			h.sendSSEEvent(w, flusher, string(session.EventSessionFailed), sess)
		} else {
			h.sendSSEEvent(w, flusher, string(session.EventSessionDone), sess)
		}
		return
	}

	events, cancel := hub.Subscribe()
	defer cancel()

	// Send the latest state so late subscribers catch up immediately.
	if state := hub.State(); state != nil {
		h.sendSSEEvent(w, flusher, string(session.EventState), state)
	}

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("Stream context done", "id", id)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.sendSSEEvent(w, flusher, string(ev.Type), ev.Data)
			if ev.Type == session.EventSessionDone || ev.Type == session.EventSessionFailed {
				return
			}
		}
	}
}

// sendSSEEvent sends a server-sent event.
func (h *Handler) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		slog.Error("Failed to write SSE event", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		slog.Error("Failed to write SSE data", "error", err)
		return
	}

	flusher.Flush()
}

// sendSSEError sends an error event and flushes.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, message string) {
	h.sendSSEEvent(w, flusher, "error", map[string]string{"error": message})
}
