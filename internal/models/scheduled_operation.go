package models

import (
	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	"github.com/shopspring/decimal"
)

// ScheduledOperation is a one-shot income or expense expected on a given day.
// It only ever takes part in forecasts; it is never applied to the live balance.
type ScheduledOperation struct {
	ID     string          `json:"id"`
	Kind   Kind            `json:"kind"`
	Amount decimal.Decimal `json:"amount"` // always positive
	Date   date.Date       `json:"date"`   // zero when the stored value could not be parsed
	Note   string          `json:"note,omitempty"`
}

// CompareByDate orders operations by date, with unreadable dates after all others.
// Use it with slices.SortStableFunc.
func CompareByDate(a, b ScheduledOperation) int {
	switch {
	case a.Date.Valid() && !b.Date.Valid():
		return -1
	case !a.Date.Valid() && b.Date.Valid():
		return 1
	}
	return a.Date.Compare(b.Date)
}
