package chat

import (
	"sync"
	"time"

	"github.com/brianmcglynncode/FlyCabs/internal/models"
	"github.com/brianmcglynncode/FlyCabs/internal/observability"
)

// Log keeps per-request ordered chat history, capped at the most recent
// `limit` messages per request id (oldest dropped first). History is
// managed independently of the request lifecycle: a trip's chat survives
// eviction or cancellation of the request record.
type Log struct {
	mu      sync.Mutex
	limit   int
	history map[string][]models.Message

	now func() time.Time
}

func New(limit int) *Log {
	return &Log{
		limit:   limit,
		history: make(map[string][]models.Message),
		now:     time.Now,
	}
}

// Append adds a message and trims the conversation to the cap.
func (l *Log) Append(requestID string, sender models.Sender, text string) error {
	if requestID == "" {
		return &models.ValidationError{Field: "requestId"}
	}
	if sender != models.SenderPassenger && sender != models.SenderDriver {
		return &models.ValidationError{Field: "sender"}
	}
	if text == "" {
		return &models.ValidationError{Field: "text"}
	}

	msg := models.Message{RequestID: requestID, Sender: sender, Text: text, Timestamp: l.now()}

	l.mu.Lock()
	msgs := append(l.history[requestID], msg)
	if over := len(msgs) - l.limit; over > 0 {
		msgs = msgs[over:]
	}
	l.history[requestID] = msgs
	l.mu.Unlock()

	observability.ChatMessages.Inc()
	return nil
}

// List returns the conversation in insertion order. Unknown ids yield an
// empty slice, not an error, so polling clients can start fetching before
// the first message lands.
func (l *Log) List(requestID string) []models.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := l.history[requestID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}
