package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/dialogue"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/ledger"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/storage/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *ledger.Ledger) {
	t.Helper()
	l := ledger.NewLedger(memory.NewMemoryLedgerStore())
	outbox := NewOutbox()
	engine := dialogue.NewEngine(l, outbox,
		dialogue.WithCurrency("USD"),
		dialogue.WithToday(func() date.Date { return date.MustParse("2025-12-15") }),
	)
	srv := httptest.NewServer(NewServer(engine, l, outbox, "USD").Routes())
	t.Cleanup(srv.Close)
	return srv, l
}

func postEvent(t *testing.T, srv *httptest.Server, user, body string) (int, []Message) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/users/"+user+"/events", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out messagesResponse
	if resp.StatusCode < 400 || resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out.Messages
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	var body map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &body))
	require.Equal(t, "ok", body["status"])
}

func TestIncomeConversation(t *testing.T) {
	srv, _ := newTestServer(t)

	status, msgs := postEvent(t, srv, "alice", `{"type":"start_income"}`)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, msgs, 1)

	status, msgs = postEvent(t, srv, "alice", `{"type":"text","text":"1000"}`)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0].Text, "$1,000.00")

	var bal balanceResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/users/alice/balance", &bal))
	require.Equal(t, "1000", bal.Balance.String())
	require.Equal(t, "$1,000.00", bal.Display)

	var history []models.Transaction
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/users/alice/history", &history))
	require.Len(t, history, 1)
	require.Equal(t, models.Income, history[0].Kind)
}

func TestCalendarConversation(t *testing.T) {
	srv, _ := newTestServer(t)

	postEvent(t, srv, "bob", `{"type":"start_future"}`)
	_, msgs := postEvent(t, srv, "bob", `{"data":"kind:expense"}`)
	require.Len(t, msgs, 1)

	_, msgs = postEvent(t, srv, "bob", `{"type":"text","text":"250"}`)
	require.Len(t, msgs, 1)
	require.NotEmpty(t, msgs[0].Keyboard)
	require.Equal(t, "December 2025", msgs[0].Keyboard[0][0].Text)

	_, msgs = postEvent(t, srv, "bob", `{"data":"day:2026-01-05"}`)
	require.Len(t, msgs, 1)

	var future []models.ScheduledOperation
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/users/bob/future", &future))
	require.Len(t, future, 1)
	require.Equal(t, date.MustParse("2026-01-05"), future[0].Date)
}

func TestBadEvents(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := postEvent(t, srv, "carol", `not json`)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = postEvent(t, srv, "carol", `{"type":"dance"}`)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = postEvent(t, srv, "carol", `{"data":"kind:gift"}`)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestForecastEndpoint(t *testing.T) {
	srv, l := newTestServer(t)
	ctx := context.Background()
	_, err := l.ApplyTransaction(ctx, "dave", models.Income, decimal.NewFromInt(500))
	require.NoError(t, err)
	require.NoError(t, l.AddScheduledOperation(ctx, "dave", models.Income, decimal.NewFromInt(200), date.MustParse("2025-01-10"), ""))
	require.NoError(t, l.AddScheduledOperation(ctx, "dave", models.Expense, decimal.NewFromInt(100), date.MustParse("2025-02-01"), ""))

	var res forecastResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/users/dave/forecast?date=2025-01-15", &res))
	require.Equal(t, "700", res.Balance.String())
	require.Equal(t, 1, res.Applied)
	require.Empty(t, res.Skipped)

	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/users/dave/forecast?date=2025-02-01", &res))
	require.Equal(t, "600", res.Balance.String())

	require.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/users/dave/forecast?date=tomorrow", &res))
}

func TestOutboxDrain(t *testing.T) {
	o := NewOutbox()
	ctx := context.Background()
	require.NoError(t, o.SendMessage(ctx, "u1", "one", nil))
	require.NoError(t, o.SendMessage(ctx, "u1", "two", nil))
	require.NoError(t, o.SendMessage(ctx, "u2", "other", nil))

	msgs := o.Drain("u1")
	require.Equal(t, []Message{{Text: "one"}, {Text: "two"}}, msgs)
	require.Empty(t, o.Drain("u1"))
	require.Len(t, o.Drain("u2"), 1)
}

func TestMessagesEndpoint(t *testing.T) {
	l := ledger.NewLedger(memory.NewMemoryLedgerStore())
	outbox := NewOutbox()
	srv := httptest.NewServer(NewServer(dialogue.NewEngine(l, outbox), l, outbox, "RUB").Routes())
	t.Cleanup(srv.Close)

	require.NoError(t, outbox.SendMessage(context.Background(), "erin", "hello", nil))

	var out messagesResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/users/erin/messages", &out))
	require.Equal(t, []Message{{Text: "hello"}}, out.Messages)

	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/users/erin/messages", &out))
	require.Empty(t, out.Messages)
}
