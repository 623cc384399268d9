// Package httpapi exposes the dialogue and the ledger read side over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/currency"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/dialogue"
	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/ledger"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

type Server struct {
	engine   *dialogue.Engine
	ledger   interfaces.LedgerService
	outbox   *Outbox
	currency string
}

func NewServer(engine *dialogue.Engine, l interfaces.LedgerService, outbox *Outbox, currencyCode string) *Server {
	return &Server{engine: engine, ledger: l, outbox: outbox, currency: currencyCode}
}

func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/users/{userID}", func(r chi.Router) {
		r.Post("/events", s.postEvent)
		r.Get("/messages", s.getMessages)
		r.Get("/balance", s.getBalance)
		r.Get("/history", s.getHistory)
		r.Get("/future", s.getFuture)
		r.Get("/forecast", s.getForecast)
	})
	return router
}

// eventRequest is an inbound chat action. Data carries a button payload; when it is set
// Type is ignored.
type eventRequest struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Data string `json:"data"`
}

type messagesResponse struct {
	Messages []Message `json:"messages"`
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var ev dialogue.Event
	if req.Data != "" {
		decoded, err := dialogue.DecodeSelection(userID, req.Data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ev = decoded
	} else {
		t, err := dialogue.ParseEventType(req.Type)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ev = dialogue.Event{UserID: userID, Type: t, Text: req.Text}
	}

	status := http.StatusOK
	if err := s.engine.Handle(r.Context(), ev); err != nil {
		slog.Error("failed to handle event", "user_id", userID, "error", err)
		status = http.StatusInternalServerError
		if errors.Is(err, ledger.ErrStorage) {
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, messagesResponse{Messages: s.outbox.Drain(userID)})
}

func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messagesResponse{Messages: s.outbox.Drain(chi.URLParam(r, "userID"))})
}

type balanceResponse struct {
	UserID  string          `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
	Display string          `json:"display"`
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	l, err := s.ledger.GetLedger(r.Context(), userID)
	if err != nil {
		s.ledgerError(w, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		UserID:  userID,
		Balance: l.Balance,
		Display: currency.Format(l.Balance, s.currency),
	})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	history, err := s.ledger.ListHistory(r.Context(), userID)
	if err != nil {
		s.ledgerError(w, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) getFuture(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	future, err := s.ledger.ListFuture(r.Context(), userID)
	if err != nil {
		s.ledgerError(w, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, future)
}

type forecastResponse struct {
	UserID  string                      `json:"user_id"`
	Date    date.Date                   `json:"date"`
	Balance decimal.Decimal             `json:"balance"`
	Display string                      `json:"display"`
	Applied int                         `json:"applied"`
	Skipped []models.ScheduledOperation `json:"skipped"`
}

func (s *Server) getForecast(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	target, err := date.Parse(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	res, err := s.ledger.Forecast(r.Context(), userID, target)
	if err != nil {
		s.ledgerError(w, userID, err)
		return
	}
	skipped := res.Skipped
	if skipped == nil {
		skipped = []models.ScheduledOperation{}
	}
	writeJSON(w, http.StatusOK, forecastResponse{
		UserID:  userID,
		Date:    res.Target,
		Balance: res.Balance,
		Display: currency.Format(res.Balance, s.currency),
		Applied: res.Applied,
		Skipped: skipped,
	})
}

func (s *Server) ledgerError(w http.ResponseWriter, userID string, err error) {
	slog.Error("ledger read failed", "user_id", userID, "error", err)
	http.Error(w, "ledger unavailable", http.StatusServiceUnavailable)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
