package interfaces

import (
	"context"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

// Messenger delivers replies to a user through the chat transport.
// keyboard may be nil for plain text messages.
type Messenger interface {
	SendMessage(ctx context.Context, userID string, text string, keyboard models.Keyboard) error
}
