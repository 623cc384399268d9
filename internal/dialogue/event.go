package dialogue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/calendar"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

var ErrFormat = errors.New("unexpected input")

// EventType is what the transport decoded an inbound message or button press into.
type EventType int

const (
	Text EventType = iota
	Start
	StartIncome
	StartExpense
	StartFuture
	StartForecast
	Cancel
	ShowBalance
	ShowHistory
	ShowFuture
	KindSelected
	DaySelected
	NavSelected
	FillerSelected
)

var eventNames = map[string]EventType{
	"text":           Text,
	"start":          Start,
	"start_income":   StartIncome,
	"start_expense":  StartExpense,
	"start_future":   StartFuture,
	"start_forecast": StartForecast,
	"cancel":         Cancel,
	"balance":        ShowBalance,
	"history":        ShowHistory,
	"future":         ShowFuture,
}

// ParseEventType maps a command name to its event type. Selections are decoded with
// DecodeSelection instead.
func ParseEventType(name string) (EventType, error) {
	t, ok := eventNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown command %q", ErrFormat, name)
	}
	return t, nil
}

// Event is one inbound user action.
type Event struct {
	UserID string
	Type   EventType
	Text   string

	Kind models.Kind // KindSelected
	Date date.Date   // DaySelected

	// NavSelected: the direction and the month the grid was showing
	Direction calendar.Direction
	Year      int
	Month     time.Month
}

const (
	kindPrefix = "kind:"
	cancelData = "cancel"
)

func kindData(k models.Kind) string { return kindPrefix + string(k) }

// DecodeSelection turns a button payload into an event.
func DecodeSelection(userID, data string) (Event, error) {
	ev := Event{UserID: userID}

	switch {
	case data == cancelData:
		ev.Type = Cancel
		return ev, nil

	case strings.HasPrefix(data, kindPrefix):
		k, err := models.ParseKind(strings.TrimPrefix(data, kindPrefix))
		if err != nil {
			return Event{}, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		ev.Type, ev.Kind = KindSelected, k
		return ev, nil

	case calendar.IsCallback(data):
		cell, err := calendar.ParseCallback(data)
		if err != nil {
			return Event{}, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		switch cell.Kind {
		case calendar.Day:
			ev.Type, ev.Date = DaySelected, cell.Date
		case calendar.Nav:
			ev.Type, ev.Direction, ev.Year, ev.Month = NavSelected, cell.Direction, cell.Year, cell.Month
		default:
			ev.Type = FillerSelected
		}
		return ev, nil
	}
	return Event{}, fmt.Errorf("%w: unknown selection %q", ErrFormat, data)
}
