package dialogue

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/currency"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/forecast"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

const (
	msgMenu = "Here is what I can do:\n" +
		"💸 add an expense\n" +
		"💰 add an income\n" +
		"📊 show the balance\n" +
		"➕ schedule an upcoming operation\n" +
		"📋 list upcoming operations\n" +
		"📅 forecast the balance"

	msgAskIncome       = "Enter the income amount:"
	msgAskExpense      = "Enter the expense amount:"
	msgAskKind         = "Choose the type of the upcoming operation:"
	msgAskFutureAmount = "Enter the amount of the upcoming %s. You can add a note after a semicolon, e.g. 1500;rent"
	msgAskFutureDate   = "Pick the date of the operation or type it as YYYY-MM-DD:"
	msgAskForecastDate = "Pick the date to forecast the balance for:"

	msgIncomeAdded  = "Income added ✅ New balance: %s"
	msgExpenseAdded = "Expense added ✅ New balance: %s"
	msgScheduled    = "Upcoming %s of %s on %s added ✅"
	msgForecast     = "📅 Projected balance on %s: %s"
	msgSkipped      = "%d operation(s) with an unreadable date were left out."
	msgBalance      = "📊 Your current balance: %s"
	msgNoFuture     = "No upcoming operations."
	msgNoHistory    = "No operations yet."
	msgCancelled    = "Action cancelled."

	msgInvalidAmount  = "That is not a valid amount. Please enter a positive number, e.g. 1500 or 99.90."
	msgMalformedDate  = "That is not a date. Pick a day on the calendar or type it as YYYY-MM-DD."
	msgFormat         = "I didn't expect that here."
	msgMissingPending = "Some details of the operation are missing, let's fill them in again."
	msgStorage        = "Something went wrong while saving, please try again later."
)

// historyLimit is how many transactions ShowHistory lists, latest last.
const historyLimit = 10

const (
	kindButtonIncome  = "Upcoming income"
	kindButtonExpense = "Upcoming expense"
	cancelButton      = "Cancel"
)

func kindKeyboard() models.Keyboard {
	return models.Keyboard{
		{{Text: kindButtonIncome, Data: kindData(models.Income)}, {Text: kindButtonExpense, Data: kindData(models.Expense)}},
		{{Text: cancelButton, Data: cancelData}},
	}
}

func emoji(k models.Kind) string {
	if k == models.Income {
		return "💰"
	}
	return "💸"
}

func (e *Engine) money(amount decimal.Decimal) string {
	return currency.Format(amount, e.currency)
}

func (e *Engine) forecastText(res forecast.Result) string {
	text := fmt.Sprintf(msgForecast, res.Target, e.money(res.Balance))
	if n := len(res.Skipped); n > 0 {
		text += "\n" + fmt.Sprintf(msgSkipped, n)
	}
	return text
}

func (e *Engine) historyText(history []models.Transaction) string {
	if len(history) == 0 {
		return msgNoHistory
	}
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	var b strings.Builder
	b.WriteString("🧾 Latest operations:\n")
	for _, tx := range history {
		fmt.Fprintf(&b, "\n%s %s - %s", emoji(tx.Kind), e.money(tx.Amount), tx.CreatedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}

// futureText lists operations by date; ones with an unreadable date come last.
func (e *Engine) futureText(future []models.ScheduledOperation) string {
	if len(future) == 0 {
		return msgNoFuture
	}
	ops := slices.Clone(future)
	slices.SortStableFunc(ops, models.CompareByDate)

	var b strings.Builder
	b.WriteString("📋 Upcoming operations:\n")
	for _, op := range ops {
		on := op.Date.String()
		if !op.Date.Valid() {
			on = "unreadable date"
		}
		b.WriteString("\n" + emoji(op.Kind) + " ")
		if op.Note != "" {
			b.WriteString(op.Note + " - ")
		}
		fmt.Fprintf(&b, "%s (date: %s)", e.money(op.Amount), on)
	}
	return b.String()
}
