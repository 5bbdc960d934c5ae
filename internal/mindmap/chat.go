// Package mindmap implements the append-only chat log kept alongside each
// document.
package mindmap

import (
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// ChatMessage is one entry in a document's chat log.
type ChatMessage struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatStore maps document ids to their ordered chat history. Messages are
// append-only and scoped to a single document id; no check is made that the
// document actually exists.
type ChatStore struct {
	mu       sync.RWMutex
	messages map[string][]ChatMessage
}

// NewChatStore creates an empty chat store.
func NewChatStore() *ChatStore {
	return &ChatStore{
		messages: make(map[string][]ChatMessage),
	}
}

// Append validates and stores a new chat message for the given document,
// creating the log on first use. Both user and message are required; a
// validation error leaves the log untouched.
func (s *ChatStore) Append(docID, user, message string) (ChatMessage, error) {
	err := validation.Errors{
		"user":    validation.Validate(user, validation.Required),
		"message": validation.Validate(message, validation.Required),
	}.Filter()
	if err != nil {
		return ChatMessage{}, err
	}

	msg := ChatMessage{
		ID:        uuid.NewString(),
		User:      user,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	s.mu.Lock()
	s.messages[docID] = append(s.messages[docID], msg)
	s.mu.Unlock()

	return msg, nil
}

// List returns the document's chat history in insertion order. Unknown
// document ids yield an empty slice.
func (s *ChatStore) List(docID string) []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[docID]
	out := make([]ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}
