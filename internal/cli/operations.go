package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/currency"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/ledger"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

// settleCmd is both the income and the expense command.
type settleCmd struct {
	userFlag
	app    *App
	kind   models.Kind
	amount string
}

func (c *settleCmd) Name() string { return string(c.kind) }
func (c *settleCmd) Synopsis() string {
	return fmt.Sprintf("record a settled %s", c.kind)
}
func (c *settleCmd) Usage() string {
	return fmt.Sprintf(`ledgerctl %s -u <user> -a <amount>

  Records a settled %s and prints the new balance.
`, c.kind, c.kind)
}

func (c *settleCmd) SetFlags(f *flag.FlagSet) {
	c.setUserFlag(f)
	f.StringVar(&c.amount, "a", "", "positive amount, e.g. 1500 or 99.90")
}

func (c *settleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.check(c.app) {
		return subcommands.ExitUsageError
	}
	amount, err := ledger.ParseAmount(c.amount)
	if err != nil {
		c.app.errorf("Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	return c.app.run(ctx, func(l interfaces.LedgerService) error {
		balance, err := l.ApplyTransaction(ctx, c.user, c.kind, amount)
		if err != nil {
			return err
		}
		c.app.printf("New balance: %s\n", currency.Format(balance, c.app.Currency))
		return nil
	})
}

type scheduleCmd struct {
	userFlag
	app    *App
	kind   string
	amount string
	date   string
	note   string
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "schedule an upcoming income or expense" }
func (*scheduleCmd) Usage() string {
	return `ledgerctl schedule -u <user> -k income|expense -a <amount> -d <date> [-n <note>]

  Adds a one-shot operation that forecasts take into account from its date on.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	c.setUserFlag(f)
	f.StringVar(&c.kind, "k", "", "income or expense")
	f.StringVar(&c.amount, "a", "", "positive amount")
	f.StringVar(&c.date, "d", "", "date of the operation (YYYY-MM-DD)")
	f.StringVar(&c.note, "n", "", "optional note")
}

func (c *scheduleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.check(c.app) {
		return subcommands.ExitUsageError
	}
	kind, err := models.ParseKind(c.kind)
	if err != nil {
		c.app.errorf("Error parsing kind: %v\n", err)
		return subcommands.ExitUsageError
	}
	amount, err := ledger.ParseAmount(c.amount)
	if err != nil {
		c.app.errorf("Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	on, err := date.Parse(c.date)
	if err != nil {
		c.app.errorf("Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return c.app.run(ctx, func(l interfaces.LedgerService) error {
		if err := l.AddScheduledOperation(ctx, c.user, kind, amount, on, c.note); err != nil {
			return err
		}
		c.app.printf("Scheduled %s of %s on %s\n", kind, currency.Format(amount, c.app.Currency), on)
		return nil
	})
}
