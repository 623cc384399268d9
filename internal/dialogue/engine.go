// Package dialogue runs the multi-step conversations that collect an operation's kind,
// amount and date across several messages, and commits the result through the ledger.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/calendar"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/ledger"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

// Engine dispatches inbound events by the sender's current state.
// Turns of the same user run one at a time; different users run in parallel.
type Engine struct {
	ledger   interfaces.LedgerService
	out      interfaces.Messenger
	currency string
	today    func() date.Date

	mu       sync.Mutex
	sessions map[string]*Session
}

type Option func(*Engine)

// WithCurrency sets the ISO 4217 code amounts are shown in.
func WithCurrency(code string) Option {
	return func(e *Engine) { e.currency = code }
}

// WithToday replaces date.Today, which decides the month the calendar opens on.
func WithToday(today func() date.Date) Option {
	return func(e *Engine) { e.today = today }
}

func NewEngine(l interfaces.LedgerService, out interfaces.Messenger, opts ...Option) *Engine {
	e := &Engine{
		ledger:   l,
		out:      out,
		currency: "RUB",
		today:    date.Today,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) session(userID string) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[userID]
	if !ok {
		s = &Session{}
		e.sessions[userID] = s
	}
	return s
}

// State returns a copy of the user's current state and scratch data.
func (e *Engine) State(userID string) (State, Pending) {
	s := e.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State, s.Pending
}

// Handle processes one event. Bad input never fails: it is answered and the session stays
// where it was. Errors are returned only when the ledger store or the messenger fails.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	if ev.UserID == "" {
		return fmt.Errorf("%w: event without user", ErrFormat)
	}
	sess := e.session(ev.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	from := sess.State
	err := e.dispatch(ctx, sess, ev)
	if sess.State != from {
		slog.Debug("dialogue transition", "user_id", ev.UserID, "from", from, "to", sess.State)
	}
	return err
}

func (e *Engine) dispatch(ctx context.Context, sess *Session, ev Event) error {
	// these work from any state and never move it
	switch ev.Type {
	case Cancel:
		sess.reset()
		return e.say(ctx, ev.UserID, msgCancelled, nil)
	case Start:
		sess.reset()
		return e.say(ctx, ev.UserID, msgMenu, nil)
	case ShowBalance:
		return e.showBalance(ctx, sess, ev.UserID)
	case ShowHistory:
		return e.showHistory(ctx, sess, ev.UserID)
	case ShowFuture:
		return e.showFuture(ctx, sess, ev.UserID)
	case FillerSelected:
		return nil
	}

	switch sess.State {
	case Idle:
		return e.idle(ctx, sess, ev)
	case AwaitingIncomeAmount:
		return e.settle(ctx, sess, ev, models.Income)
	case AwaitingExpenseAmount:
		return e.settle(ctx, sess, ev, models.Expense)
	case AwaitingFutureKind:
		return e.futureKind(ctx, sess, ev)
	case AwaitingFutureAmount:
		return e.futureAmount(ctx, sess, ev)
	case AwaitingFutureDate:
		return e.pickDate(ctx, sess, ev, e.schedule)
	case AwaitingForecastDate:
		return e.pickDate(ctx, sess, ev, e.forecast)
	}
	return e.reprompt(ctx, sess, ev.UserID, msgFormat)
}

func (e *Engine) idle(ctx context.Context, sess *Session, ev Event) error {
	switch ev.Type {
	case StartIncome:
		sess.State = AwaitingIncomeAmount
	case StartExpense:
		sess.State = AwaitingExpenseAmount
	case StartFuture:
		sess.State = AwaitingFutureKind
	case StartForecast:
		sess.State = AwaitingForecastDate
		e.openCalendar(sess)
	default:
		return e.reprompt(ctx, sess, ev.UserID, msgFormat)
	}
	return e.prompt(ctx, sess, ev.UserID)
}

func (e *Engine) settle(ctx context.Context, sess *Session, ev Event, kind models.Kind) error {
	if ev.Type != Text {
		return e.reprompt(ctx, sess, ev.UserID, msgFormat)
	}
	amount, err := ledger.ParseAmount(ev.Text)
	if err != nil {
		return e.reprompt(ctx, sess, ev.UserID, msgInvalidAmount)
	}

	balance, err := e.ledger.ApplyTransaction(ctx, ev.UserID, kind, amount)
	if err != nil {
		return e.fail(ctx, sess, ev.UserID, err)
	}
	sess.reset()

	msg := msgIncomeAdded
	if kind == models.Expense {
		msg = msgExpenseAdded
	}
	return e.say(ctx, ev.UserID, fmt.Sprintf(msg, e.money(balance)), nil)
}

func (e *Engine) futureKind(ctx context.Context, sess *Session, ev Event) error {
	if ev.Type != KindSelected || !ev.Kind.Valid() {
		return e.reprompt(ctx, sess, ev.UserID, msgFormat)
	}
	sess.Pending.Kind = ev.Kind
	sess.State = AwaitingFutureAmount
	return e.prompt(ctx, sess, ev.UserID)
}

func (e *Engine) futureAmount(ctx context.Context, sess *Session, ev Event) error {
	if ev.Type != Text {
		return e.reprompt(ctx, sess, ev.UserID, msgFormat)
	}
	amountText, note, _ := strings.Cut(ev.Text, ";")
	amount, err := ledger.ParseAmount(amountText)
	if err != nil {
		return e.reprompt(ctx, sess, ev.UserID, msgInvalidAmount)
	}

	sess.Pending.Amount = decimal.NewNullDecimal(amount)
	sess.Pending.Note = strings.TrimSpace(note)
	sess.State = AwaitingFutureDate
	e.openCalendar(sess)
	return e.prompt(ctx, sess, ev.UserID)
}

// pickDate drives the calendar: navigation re-renders it, a day (picked or typed) goes to commit.
func (e *Engine) pickDate(ctx context.Context, sess *Session, ev Event, commit func(context.Context, *Session, string, date.Date) error) error {
	switch ev.Type {
	case NavSelected:
		year, month := ev.Year, ev.Month
		if year == 0 {
			year, month = sess.Pending.Year, sess.Pending.Month
		}
		sess.Pending.Year, sess.Pending.Month = calendar.Advance(year, month, ev.Direction)
		return e.prompt(ctx, sess, ev.UserID)

	case DaySelected:
		if !ev.Date.Valid() {
			return e.reprompt(ctx, sess, ev.UserID, msgMalformedDate)
		}
		return commit(ctx, sess, ev.UserID, ev.Date)

	case Text:
		on, err := date.Parse(ev.Text)
		if err != nil {
			return e.reprompt(ctx, sess, ev.UserID, msgMalformedDate)
		}
		return commit(ctx, sess, ev.UserID, on)
	}
	return e.reprompt(ctx, sess, ev.UserID, msgFormat)
}

func (e *Engine) schedule(ctx context.Context, sess *Session, userID string, on date.Date) error {
	p := sess.Pending
	switch {
	case !p.Kind.Valid():
		sess.State = AwaitingFutureKind
		return e.reprompt(ctx, sess, userID, msgMissingPending)
	case !p.Amount.Valid:
		sess.State = AwaitingFutureAmount
		return e.reprompt(ctx, sess, userID, msgMissingPending)
	}

	if err := e.ledger.AddScheduledOperation(ctx, userID, p.Kind, p.Amount.Decimal, on, p.Note); err != nil {
		return e.fail(ctx, sess, userID, err)
	}
	sess.reset()
	return e.say(ctx, userID, fmt.Sprintf(msgScheduled, p.Kind, e.money(p.Amount.Decimal), on), nil)
}

func (e *Engine) forecast(ctx context.Context, sess *Session, userID string, on date.Date) error {
	res, err := e.ledger.Forecast(ctx, userID, on)
	if err != nil {
		return e.fail(ctx, sess, userID, err)
	}
	sess.reset()
	return e.say(ctx, userID, e.forecastText(res), nil)
}

func (e *Engine) showBalance(ctx context.Context, sess *Session, userID string) error {
	l, err := e.ledger.GetLedger(ctx, userID)
	if err != nil {
		return e.fail(ctx, sess, userID, err)
	}
	return e.say(ctx, userID, fmt.Sprintf(msgBalance, e.money(l.Balance)), nil)
}

func (e *Engine) showHistory(ctx context.Context, sess *Session, userID string) error {
	history, err := e.ledger.ListHistory(ctx, userID)
	if err != nil {
		return e.fail(ctx, sess, userID, err)
	}
	return e.say(ctx, userID, e.historyText(history), nil)
}

func (e *Engine) showFuture(ctx context.Context, sess *Session, userID string) error {
	future, err := e.ledger.ListFuture(ctx, userID)
	if err != nil {
		return e.fail(ctx, sess, userID, err)
	}
	return e.say(ctx, userID, e.futureText(future), nil)
}

// openCalendar points the picker at the current month.
func (e *Engine) openCalendar(sess *Session) {
	today := e.today()
	sess.Pending.Year, sess.Pending.Month = today.Year(), today.Month()
}

// prompt asks for whatever the current state expects.
func (e *Engine) prompt(ctx context.Context, sess *Session, userID string) error {
	text, kb := e.promptFor(sess)
	return e.say(ctx, userID, text, kb)
}

// reprompt explains what was wrong, then asks again. The state is left as it is.
func (e *Engine) reprompt(ctx context.Context, sess *Session, userID, problem string) error {
	text, kb := e.promptFor(sess)
	return e.say(ctx, userID, problem+"\n"+text, kb)
}

func (e *Engine) promptFor(sess *Session) (string, models.Keyboard) {
	switch sess.State {
	case AwaitingIncomeAmount:
		return msgAskIncome, nil
	case AwaitingExpenseAmount:
		return msgAskExpense, nil
	case AwaitingFutureKind:
		return msgAskKind, kindKeyboard()
	case AwaitingFutureAmount:
		return fmt.Sprintf(msgAskFutureAmount, sess.Pending.Kind), nil
	case AwaitingFutureDate:
		return msgAskFutureDate, calendar.Render(sess.Pending.Year, sess.Pending.Month).Keyboard()
	case AwaitingForecastDate:
		return msgAskForecastDate, calendar.Render(sess.Pending.Year, sess.Pending.Month).Keyboard()
	}
	return msgMenu, nil
}

// fail handles a ledger error. Validation errors are answered like any bad input; anything
// else is a storage failure: the user is told and the error goes back to the transport.
// The session is not moved so the user can simply retry.
func (e *Engine) fail(ctx context.Context, sess *Session, userID string, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return e.reprompt(ctx, sess, userID, msgInvalidAmount)
	case errors.Is(err, ledger.ErrInvalidOperation):
		return e.reprompt(ctx, sess, userID, msgMissingPending)
	}
	slog.Error("ledger failure during dialogue", "user_id", userID, "state", sess.State, "error", err)
	if sendErr := e.say(ctx, userID, msgStorage, nil); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

func (e *Engine) say(ctx context.Context, userID, text string, kb models.Keyboard) error {
	if err := e.out.SendMessage(ctx, userID, text, kb); err != nil {
		return fmt.Errorf("send message to %s: %w", userID, err)
	}
	return nil
}
