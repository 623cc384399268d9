// Package storage holds what the SQL-backed ledger stores share.
package storage

import (
	"log/slog"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
)

// DecodeDate turns a stored scheduled-operation date back into a date.Date.
// A value that does not parse is kept as the zero Date: the operation stays listed but the
// forecast skips it.
func DecodeDate(raw, userID, operationID string) date.Date {
	d, err := date.Parse(raw)
	if err != nil {
		slog.Warn("malformed scheduled operation date", "user_id", userID, "operation_id", operationID, "date", raw)
		return date.Date{}
	}
	return d
}

// EncodeDate is the stored form of d.
func EncodeDate(d date.Date) string { return d.String() }
