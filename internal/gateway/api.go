// ABOUTME: JSON API handlers for thread listings and message history
// ABOUTME: Read-only endpoints consumed by scripts and external dashboards

package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

type threadResponse struct {
	Sender          string    `json:"sender"`
	LastMessageBody string    `json:"last_message_body"`
	LastMessageAt   time.Time `json:"last_message_at"`
	MessageCount    int64     `json:"message_count"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	Direction string    `json:"direction"`
	Timestamp time.Time `json:"timestamp"`
}

// handleAPIThreads returns all thread summaries, most recent first.
func (g *Gateway) handleAPIThreads(w http.ResponseWriter, r *http.Request) {
	summaries, err := g.store.ListThreadSummaries(r.Context())
	if err != nil {
		g.logger.Error("failed to list threads", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	threads := make([]threadResponse, 0, len(summaries))
	for _, s := range summaries {
		threads = append(threads, threadResponse{
			Sender:          s.Sender,
			LastMessageBody: s.LastMessageBody,
			LastMessageAt:   s.LastMessageAt,
			MessageCount:    s.MessageCount,
		})
	}

	writeJSON(w, g, map[string]any{"threads": threads})
}

// handleAPIThreadMessages returns the full message history for one sender.
func (g *Gateway) handleAPIThreadMessages(w http.ResponseWriter, r *http.Request) {
	sender := r.PathValue("sender")
	if sender == "" {
		http.Error(w, `{"error":"sender is required"}`, http.StatusBadRequest)
		return
	}

	msgs, err := g.store.ListMessages(r.Context(), sender)
	if err != nil {
		g.logger.Error("failed to load thread", "sender", sender, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	messages := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		messages = append(messages, messageResponse{
			ID:        m.ID,
			Sender:    m.Sender,
			Body:      m.Body,
			Direction: string(m.Direction),
			Timestamp: m.Timestamp,
		})
	}

	writeJSON(w, g, map[string]any{"sender": sender, "messages": messages})
}

func writeJSON(w http.ResponseWriter, g *Gateway, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}
