// Package forecast projects a ledger's balance forward to a given day by folding in the
// scheduled operations due by then.
package forecast

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

var ErrMalformedDate = errors.New("malformed scheduled operation date")

// Result is a projection together with what went into it.
type Result struct {
	Target  date.Date
	Balance decimal.Decimal
	Applied int
	// Skipped holds the operations left out because their date could not be used.
	Skipped []models.ScheduledOperation
}

// Check reports whether op can take part in a projection.
func Check(op models.ScheduledOperation) error {
	if !op.Date.Valid() {
		return fmt.Errorf("%w: operation %s", ErrMalformedDate, op.ID)
	}
	if !op.Kind.Valid() {
		return fmt.Errorf("operation %s: unknown kind %q", op.ID, op.Kind)
	}
	return nil
}

// Project returns the balance l would have on target once every scheduled operation dated
// on or before target is realized.
func Project(l models.Ledger, target date.Date) decimal.Decimal {
	return Explain(l, target).Balance
}

// Explain is Project with the bookkeeping kept. It never fails: an unusable operation is
// skipped and reported in Result.Skipped. An invalid target realizes nothing.
func Explain(l models.Ledger, target date.Date) Result {
	res := Result{Target: target, Balance: l.Balance}
	for _, op := range l.Future {
		if err := Check(op); err != nil {
			res.Skipped = append(res.Skipped, op)
			continue
		}
		if !target.Valid() || op.Date.After(target) {
			continue
		}
		res.Balance = res.Balance.Add(op.Kind.Signed(op.Amount))
		res.Applied++
	}
	return res
}
