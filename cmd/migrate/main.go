// migrate applies or rolls back the embedded schema migrations.
//
//	migrate up
//	migrate status
//	migrate down [--to VERSION]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"portfolio_api/internal/platform/config"
	"portfolio_api/internal/platform/database"
	"portfolio_api/internal/platform/logger"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var target int64
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.Int64Var(&target, "to", 0, "roll back down to this version (down only)")
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate <up|status|down> [--to VERSION]")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return errors.New("expected exactly one command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New("portfolio-migrate", cfg.LogLevel)

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db, log)

	m := database.NewMigrator(db, log)
	switch cmd := flagSet.Arg(0); cmd {
	case "up":
		return m.Up(ctx)
	case "status":
		return m.Status(ctx)
	case "down":
		return m.Down(ctx, target)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
