package cli

import (
	"context"
	"flag"
	"slices"

	"github.com/google/subcommands"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/currency"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

type balanceCmd struct {
	userFlag
	app *App
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "display the current balance" }
func (*balanceCmd) Usage() string {
	return `ledgerctl balance -u <user>

  Displays the balance folded from the user's settled operations.
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) { c.setUserFlag(f) }

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.check(c.app) {
		return subcommands.ExitUsageError
	}
	return c.app.run(ctx, func(l interfaces.LedgerService) error {
		ledger, err := l.GetLedger(ctx, c.user)
		if err != nil {
			return err
		}
		c.app.printf("Balance: %s\n", currency.Format(ledger.Balance, c.app.Currency))
		return nil
	})
}

type historyCmd struct {
	userFlag
	app *App
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list settled operations" }
func (*historyCmd) Usage() string {
	return `ledgerctl history -u <user>

  Lists every settled income and expense, oldest first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) { c.setUserFlag(f) }

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.check(c.app) {
		return subcommands.ExitUsageError
	}
	return c.app.run(ctx, func(l interfaces.LedgerService) error {
		history, err := l.ListHistory(ctx, c.user)
		if err != nil {
			return err
		}
		for _, tx := range history {
			c.app.printf("%s\t%-7s\t%s\n", tx.CreatedAt.Format("2006-01-02 15:04"), tx.Kind, currency.Format(tx.Amount, c.app.Currency))
		}
		return nil
	})
}

type futureCmd struct {
	userFlag
	app *App
}

func (*futureCmd) Name() string     { return "future" }
func (*futureCmd) Synopsis() string { return "list scheduled operations" }
func (*futureCmd) Usage() string {
	return `ledgerctl future -u <user>

  Lists scheduled operations by date.
`
}

func (c *futureCmd) SetFlags(f *flag.FlagSet) { c.setUserFlag(f) }

func (c *futureCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.check(c.app) {
		return subcommands.ExitUsageError
	}
	return c.app.run(ctx, func(l interfaces.LedgerService) error {
		future, err := l.ListFuture(ctx, c.user)
		if err != nil {
			return err
		}
		slices.SortStableFunc(future, models.CompareByDate)
		for _, op := range future {
			on := op.Date.String()
			if !op.Date.Valid() {
				on = "?"
			}
			c.app.printf("%s\t%-7s\t%s\t%s\n", on, op.Kind, currency.Format(op.Amount, c.app.Currency), op.Note)
		}
		return nil
	})
}

type forecastCmd struct {
	userFlag
	app  *App
	date string
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "project the balance to a date" }
func (*forecastCmd) Usage() string {
	return `ledgerctl forecast -u <user> [-d <date>]

  Displays the balance the user would have on the date once every operation
  scheduled on or before it is realized.
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	c.setUserFlag(f)
	f.StringVar(&c.date, "d", date.Today().String(), "target date (YYYY-MM-DD)")
}

func (c *forecastCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.check(c.app) {
		return subcommands.ExitUsageError
	}
	on, err := date.Parse(c.date)
	if err != nil {
		c.app.errorf("Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return c.app.run(ctx, func(l interfaces.LedgerService) error {
		res, err := l.Forecast(ctx, c.user, on)
		if err != nil {
			return err
		}
		c.app.printf("Forecast for %s: %s\n", res.Target, currency.Format(res.Balance, c.app.Currency))
		if n := len(res.Skipped); n > 0 {
			c.app.printf("%d operation(s) with an unreadable date were left out\n", n)
		}
		return nil
	})
}
