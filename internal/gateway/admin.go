package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const defaultMessageLimit = 50

// conversationJSON is a serializable conversation summary.
type conversationJSON struct {
	Key      string `json:"key"`
	Messages int    `json:"messages"`
}

// handleListConversations returns every recorded conversation with its
// message count.
func (g *Gateway) handleListConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversations := []conversationJSON{}

		if g.store != nil {
			keys, err := g.store.Conversations(r.Context())
			if err != nil {
				http.Error(w, "list conversations: "+err.Error(), http.StatusInternalServerError)
				return
			}
			for _, key := range keys {
				count, err := g.store.Count(r.Context(), key)
				if err != nil {
					http.Error(w, "count conversation: "+err.Error(), http.StatusInternalServerError)
					return
				}
				conversations = append(conversations, conversationJSON{Key: key, Messages: count})
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(conversations)
	}
}

// messageJSON is a serializable traffic entry.
type messageJSON struct {
	Direction string `json:"direction"`
	Sender    string `json:"sender,omitempty"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// handleConversationMessages returns the most recent messages in one
// conversation, oldest first. The optional limit query parameter caps
// the count (default 50).
func (g *Gateway) handleConversationMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if key == "" {
			http.Error(w, "missing conversation key", http.StatusBadRequest)
			return
		}
		if g.store == nil {
			http.Error(w, "history not available", http.StatusNotFound)
			return
		}

		limit := defaultMessageLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		entries, err := g.store.Recent(r.Context(), key, limit)
		if err != nil {
			http.Error(w, "load messages: "+err.Error(), http.StatusInternalServerError)
			return
		}

		messages := make([]messageJSON, 0, len(entries))
		for _, e := range entries {
			messages = append(messages, messageJSON{
				Direction: string(e.Direction),
				Sender:    e.Sender,
				Text:      e.Text,
				CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messages)
	}
}
