package dialogue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/ledger"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/storage/memory"
)

type sent struct {
	user     string
	text     string
	keyboard models.Keyboard
}

type fakeMessenger struct {
	mu   sync.Mutex
	msgs []sent
}

func (f *fakeMessenger) SendMessage(_ context.Context, userID, text string, kb models.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{userID, text, kb})
	return nil
}

func (f *fakeMessenger) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.msgs)
	return f.msgs[len(f.msgs)-1]
}

func mustAmount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

type harness struct {
	engine *Engine
	ledger *ledger.Ledger
	out    *fakeMessenger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	l := ledger.NewLedger(memory.NewMemoryLedgerStore())
	out := &fakeMessenger{}
	e := NewEngine(l, out,
		WithCurrency("USD"),
		WithToday(func() date.Date { return date.MustParse("2025-12-15") }),
	)
	return &harness{engine: e, ledger: l, out: out}
}

func (h *harness) send(t *testing.T, ev Event) sent {
	t.Helper()
	if ev.UserID == "" {
		ev.UserID = "u1"
	}
	require.NoError(t, h.engine.Handle(context.Background(), ev))
	return h.out.last(t)
}

func (h *harness) text(t *testing.T, s string) sent {
	return h.send(t, Event{Type: Text, Text: s})
}

func (h *harness) selectData(t *testing.T, data string) sent {
	t.Helper()
	ev, err := DecodeSelection("u1", data)
	require.NoError(t, err)
	return h.send(t, ev)
}

func (h *harness) state(user string) State {
	s, _ := h.engine.State(user)
	return s
}

func TestIncomeThenExpense(t *testing.T) {
	h := newHarness(t)

	reply := h.send(t, Event{Type: StartIncome})
	require.Equal(t, msgAskIncome, reply.text)
	require.Equal(t, AwaitingIncomeAmount, h.state("u1"))

	reply = h.text(t, "1000")
	require.Contains(t, reply.text, "$1,000.00")
	require.Equal(t, Idle, h.state("u1"))

	h.send(t, Event{Type: StartExpense})
	require.Equal(t, AwaitingExpenseAmount, h.state("u1"))
	reply = h.text(t, "300")
	require.Contains(t, reply.text, "Expense added")
	require.Contains(t, reply.text, "$700.00")

	l, err := h.ledger.GetLedger(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "700", l.Balance.String())
	require.Len(t, l.History, 2)
}

func TestInvalidAmountKeepsState(t *testing.T) {
	h := newHarness(t)
	h.send(t, Event{Type: StartIncome})

	for _, bad := range []string{"abc", "-5", "0", "", "1e100000000"} {
		reply := h.text(t, bad)
		require.True(t, strings.HasPrefix(reply.text, msgInvalidAmount), reply.text)
		require.Equal(t, AwaitingIncomeAmount, h.state("u1"))
	}

	history, err := h.ledger.ListHistory(context.Background(), "u1")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestWrongShapeIsFormatError(t *testing.T) {
	h := newHarness(t)

	// text while idle
	reply := h.text(t, "hello")
	require.True(t, strings.HasPrefix(reply.text, msgFormat))
	require.Equal(t, Idle, h.state("u1"))

	// a day selection while waiting for an amount
	h.send(t, Event{Type: StartExpense})
	reply = h.selectData(t, "day:2025-12-20")
	require.True(t, strings.HasPrefix(reply.text, msgFormat))
	require.Equal(t, AwaitingExpenseAmount, h.state("u1"))

	// starting another flow mid-way
	reply = h.send(t, Event{Type: StartFuture})
	require.True(t, strings.HasPrefix(reply.text, msgFormat))
	require.Equal(t, AwaitingExpenseAmount, h.state("u1"))

	// text while waiting for the kind
	h.send(t, Event{Type: Cancel})
	h.send(t, Event{Type: StartFuture})
	reply = h.text(t, "income")
	require.True(t, strings.HasPrefix(reply.text, msgFormat))
	require.Equal(t, AwaitingFutureKind, h.state("u1"))
	require.NotNil(t, reply.keyboard)
}

func TestScheduleFutureOperation(t *testing.T) {
	h := newHarness(t)

	reply := h.send(t, Event{Type: StartFuture})
	require.Equal(t, msgAskKind, reply.text)
	require.Equal(t, "kind:income", reply.keyboard[0][0].Data)
	require.Equal(t, AwaitingFutureKind, h.state("u1"))

	h.selectData(t, "kind:expense")
	require.Equal(t, AwaitingFutureAmount, h.state("u1"))

	reply = h.text(t, "abc")
	require.True(t, strings.HasPrefix(reply.text, msgInvalidAmount))
	require.Equal(t, AwaitingFutureAmount, h.state("u1"))

	reply = h.text(t, "99,90; rent")
	require.Equal(t, AwaitingFutureDate, h.state("u1"))
	require.Equal(t, msgAskFutureDate, reply.text)
	require.Equal(t, "December 2025", reply.keyboard[0][0].Text)

	_, pending := h.engine.State("u1")
	require.Equal(t, models.Expense, pending.Kind)
	require.True(t, pending.Amount.Valid)
	require.Equal(t, "99.9", pending.Amount.Decimal.String())
	require.Equal(t, "rent", pending.Note)

	// move to next month, wrapping the year
	reply = h.selectData(t, "nav:next:2025-12")
	require.Equal(t, "January 2026", reply.keyboard[0][0].Text)
	require.Equal(t, AwaitingFutureDate, h.state("u1"))
	_, pending = h.engine.State("u1")
	require.Equal(t, 2026, pending.Year)
	require.Equal(t, time.January, pending.Month)

	// filler cells are ignored
	before := len(h.out.msgs)
	require.NoError(t, h.engine.Handle(context.Background(), Event{UserID: "u1", Type: FillerSelected}))
	require.Len(t, h.out.msgs, before)
	require.Equal(t, AwaitingFutureDate, h.state("u1"))

	reply = h.selectData(t, "day:2026-01-05")
	require.Contains(t, reply.text, "added")
	require.Equal(t, Idle, h.state("u1"))
	_, pending = h.engine.State("u1")
	require.Equal(t, Pending{}, pending)

	future, err := h.ledger.ListFuture(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, future, 1)
	require.Equal(t, models.Expense, future[0].Kind)
	require.Equal(t, "99.9", future[0].Amount.String())
	require.Equal(t, date.MustParse("2026-01-05"), future[0].Date)
	require.Equal(t, "rent", future[0].Note)
}

func TestTypedDate(t *testing.T) {
	h := newHarness(t)
	h.send(t, Event{Type: StartFuture})
	h.selectData(t, "kind:income")
	h.text(t, "200")

	reply := h.text(t, "next tuesday")
	require.True(t, strings.HasPrefix(reply.text, msgMalformedDate))
	require.Equal(t, AwaitingFutureDate, h.state("u1"))

	h.text(t, "2026-2-1")
	require.Equal(t, Idle, h.state("u1"))
	future, err := h.ledger.ListFuture(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, date.MustParse("2026-02-01"), future[0].Date)
}

func TestCancelClearsPending(t *testing.T) {
	h := newHarness(t)
	h.send(t, Event{Type: StartFuture})
	h.selectData(t, "kind:income")
	h.text(t, "50")
	require.Equal(t, AwaitingFutureDate, h.state("u1"))

	reply := h.selectData(t, "cancel")
	require.Equal(t, msgCancelled, reply.text)
	state, pending := h.engine.State("u1")
	require.Equal(t, Idle, state)
	require.Equal(t, Pending{}, pending)

	future, err := h.ledger.ListFuture(context.Background(), "u1")
	require.NoError(t, err)
	require.Empty(t, future)
}

func TestForecastFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.ledger.ApplyTransaction(ctx, "u1", models.Income, mustAmount(t, "500"))
	require.NoError(t, err)
	require.NoError(t, h.ledger.AddScheduledOperation(ctx, "u1", models.Income, mustAmount(t, "200"), date.MustParse("2025-01-10"), ""))
	require.NoError(t, h.ledger.AddScheduledOperation(ctx, "u1", models.Expense, mustAmount(t, "100"), date.MustParse("2025-02-01"), ""))

	reply := h.send(t, Event{Type: StartForecast})
	require.Equal(t, AwaitingForecastDate, h.state("u1"))
	require.Equal(t, msgAskForecastDate, reply.text)

	reply = h.selectData(t, "day:2025-01-15")
	require.Contains(t, reply.text, "$700.00")
	require.Equal(t, Idle, h.state("u1"))

	h.send(t, Event{Type: StartForecast})
	reply = h.text(t, "2025-02-01")
	require.Contains(t, reply.text, "$600.00")
}

func TestShowCommandsKeepState(t *testing.T) {
	h := newHarness(t)
	h.send(t, Event{Type: StartIncome})
	h.text(t, "10")

	h.send(t, Event{Type: StartExpense})
	reply := h.send(t, Event{Type: ShowBalance})
	require.Contains(t, reply.text, "$10.00")
	require.Equal(t, AwaitingExpenseAmount, h.state("u1"))

	reply = h.send(t, Event{Type: ShowHistory})
	require.Contains(t, reply.text, "$10.00")

	reply = h.send(t, Event{Type: ShowFuture})
	require.Equal(t, msgNoFuture, reply.text)
	require.Equal(t, AwaitingExpenseAmount, h.state("u1"))
}

func TestStartResetsToMenu(t *testing.T) {
	h := newHarness(t)
	h.send(t, Event{Type: StartIncome})
	reply := h.send(t, Event{Type: Start})
	require.Equal(t, msgMenu, reply.text)
	require.Equal(t, Idle, h.state("u1"))
}

func TestUsersHaveSeparateSessions(t *testing.T) {
	h := newHarness(t)
	h.send(t, Event{UserID: "alice", Type: StartIncome})
	h.send(t, Event{UserID: "bob", Type: StartExpense})

	h.send(t, Event{UserID: "alice", Type: Text, Text: "100"})
	h.send(t, Event{UserID: "bob", Type: Text, Text: "40"})

	ctx := context.Background()
	alice, err := h.ledger.GetLedger(ctx, "alice")
	require.NoError(t, err)
	bob, err := h.ledger.GetLedger(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, "100", alice.Balance.String())
	require.Equal(t, "-40", bob.Balance.String())
}

func TestEventWithoutUser(t *testing.T) {
	h := newHarness(t)
	err := h.engine.Handle(context.Background(), Event{Type: Start})
	require.ErrorIs(t, err, ErrFormat)
}

// brokenLedger fails every call like an unreachable store would.
type brokenLedger struct{ *ledger.Ledger }

func (brokenLedger) ApplyTransaction(context.Context, string, models.Kind, decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Decimal{}, ledger.ErrStorage
}

func TestStorageFailureSurfaces(t *testing.T) {
	out := &fakeMessenger{}
	e := NewEngine(brokenLedger{ledger.NewLedger(memory.NewMemoryLedgerStore())}, out)

	ctx := context.Background()
	require.NoError(t, e.Handle(ctx, Event{UserID: "u1", Type: StartIncome}))
	err := e.Handle(ctx, Event{UserID: "u1", Type: Text, Text: "10"})
	require.True(t, errors.Is(err, ledger.ErrStorage))
	require.Equal(t, msgStorage, out.last(t).text)

	state, _ := e.State("u1")
	require.Equal(t, AwaitingIncomeAmount, state)
}

func TestDecodeSelection(t *testing.T) {
	ev, err := DecodeSelection("u1", "nav:prev:2025-01")
	require.NoError(t, err)
	require.Equal(t, NavSelected, ev.Type)
	require.Equal(t, 2025, ev.Year)
	require.Equal(t, time.January, ev.Month)

	ev, err = DecodeSelection("u1", "noop")
	require.NoError(t, err)
	require.Equal(t, FillerSelected, ev.Type)

	for _, bad := range []string{"", "kind:gift", "day:2025-02-30", "whatever"} {
		_, err := DecodeSelection("u1", bad)
		require.ErrorIs(t, err, ErrFormat, bad)
	}
}

func TestParseEventType(t *testing.T) {
	got, err := ParseEventType("start_forecast")
	require.NoError(t, err)
	require.Equal(t, StartForecast, got)

	_, err = ParseEventType("select")
	require.ErrorIs(t, err, ErrFormat)
}
