package events

import (
	"context"
	"log/slog"

	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	ledgerevents "github.com/sheikh-saqib/balance-forecast-bot/internal/models/events"
)

// LogPublisher writes events to the structured log. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event ledgerevents.Event) error {
	p.logger.InfoContext(ctx, "ledger event", "event_type", event.EventType(), "key", event.Key(), "event", event)
	return nil
}

var _ interfaces.EventPublisher = (*LogPublisher)(nil)
