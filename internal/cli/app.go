// Package cli implements the ledgerctl subcommands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

// OpenFunc returns the ledger commands run against and a function releasing it.
type OpenFunc func(ctx context.Context) (interfaces.LedgerService, func() error, error)

// App is shared by all subcommands. The ledger is opened only by commands that need it.
type App struct {
	Open     OpenFunc
	Currency string
	Out      io.Writer
	Err      io.Writer
}

// Register the subcommands.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&balanceCmd{app: app}, "reports")
	c.Register(&historyCmd{app: app}, "reports")
	c.Register(&futureCmd{app: app}, "reports")
	c.Register(&forecastCmd{app: app}, "reports")

	c.Register(&settleCmd{app: app, kind: models.Income}, "operations")
	c.Register(&settleCmd{app: app, kind: models.Expense}, "operations")
	c.Register(&scheduleCmd{app: app}, "operations")
}

// run opens the ledger, calls fn and maps its error to an exit status.
func (a *App) run(ctx context.Context, fn func(l interfaces.LedgerService) error) subcommands.ExitStatus {
	l, closeFn, err := a.Open(ctx)
	if err != nil {
		a.errorf("Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() {
		if err := closeFn(); err != nil {
			a.errorf("Error closing ledger: %v\n", err)
		}
	}()

	if err := fn(l); err != nil {
		a.errorf("Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (a *App) printf(format string, args ...any) { fmt.Fprintf(a.Out, format, args...) }
func (a *App) errorf(format string, args ...any) { fmt.Fprintf(a.Err, format, args...) }

// userFlag is the -u flag every command takes.
type userFlag struct {
	user string
}

func (u *userFlag) setUserFlag(f *flag.FlagSet) {
	f.StringVar(&u.user, "u", "", "id of the user whose ledger to use (required)")
}

func (u *userFlag) check(app *App) bool {
	if u.user == "" {
		app.errorf("Error: -u is required\n")
		return false
	}
	return true
}
