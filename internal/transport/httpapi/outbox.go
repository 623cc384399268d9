package httpapi

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

// Message is one reply waiting to be picked up by the client.
type Message struct {
	Text     string          `json:"text"`
	Keyboard models.Keyboard `json:"keyboard,omitempty"`
}

// Outbox keeps replies per user until the client drains them.
type Outbox struct {
	mu     sync.Mutex
	queues map[string][]Message
}

func NewOutbox() *Outbox {
	return &Outbox{queues: make(map[string][]Message)}
}

func (o *Outbox) SendMessage(ctx context.Context, userID, text string, keyboard models.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queues[userID] = append(o.queues[userID], Message{Text: text, Keyboard: keyboard})
	return nil
}

// Drain returns the user's queued messages, oldest first, and empties the queue.
func (o *Outbox) Drain(userID string) []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	msgs := o.queues[userID]
	delete(o.queues, userID)
	if msgs == nil {
		return []Message{}
	}
	return msgs
}

var _ interfaces.Messenger = (*Outbox)(nil)
