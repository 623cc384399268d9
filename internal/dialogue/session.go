package dialogue

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

// State is where a user is in a multi-step input flow.
type State int

const (
	Idle State = iota
	AwaitingIncomeAmount
	AwaitingExpenseAmount
	AwaitingFutureKind
	AwaitingFutureAmount
	AwaitingFutureDate
	AwaitingForecastDate
)

var stateNames = [...]string{
	Idle:                  "idle",
	AwaitingIncomeAmount:  "awaiting_income_amount",
	AwaitingExpenseAmount: "awaiting_expense_amount",
	AwaitingFutureKind:    "awaiting_future_kind",
	AwaitingFutureAmount:  "awaiting_future_amount",
	AwaitingFutureDate:    "awaiting_future_date",
	AwaitingForecastDate:  "awaiting_forecast_date",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Pending is the scratch data a flow collects before it commits.
type Pending struct {
	Kind   models.Kind
	Amount decimal.NullDecimal
	Note   string
	// calendar cursor: the month the picker currently shows
	Year  int
	Month time.Month
}

// Session is one user's conversation. It lives as long as the process.
type Session struct {
	mu      sync.Mutex // held for a whole turn
	State   State
	Pending Pending
}

func (s *Session) reset() {
	s.State = Idle
	s.Pending = Pending{}
}
