package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/cli"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/config"
	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/ledger"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/storage/drivers"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	app := &cli.App{
		Open: func(ctx context.Context) (interfaces.LedgerService, func() error, error) {
			store, closeFn, err := drivers.Open(ctx, cfg.Storage)
			if err != nil {
				return nil, nil, err
			}
			return ledger.NewLedger(store), closeFn, nil
		},
		Currency: cfg.UI.Currency,
		Out:      os.Stdout,
		Err:      os.Stderr,
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cli.Register(commander, app)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
