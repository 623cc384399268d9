package interfaces

import (
	"context"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/models/events"
)

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}
