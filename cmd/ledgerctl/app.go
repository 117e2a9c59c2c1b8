package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"ledgerkeep/internal/backend"
	"ledgerkeep/internal/cli"
	"ledgerkeep/internal/config"
	"ledgerkeep/internal/core"
	"ledgerkeep/internal/log"
	"ledgerkeep/internal/schedule"
	"ledgerkeep/internal/users"
)

type app struct {
	cfg    *config.Config
	logger *log.Logger
}

// ownerFlag is the -owner flag shared by every per-user command.
type ownerFlag struct {
	owner string
}

func (o *ownerFlag) setOwnerFlag(f *flag.FlagSet) {
	f.StringVar(&o.owner, "owner", os.Getenv("LEDGER_OWNER"), "Owner user id, e.g. U001 (defaults to $LEDGER_OWNER)")
}

// checkOwner requires a registered owner once the registry exists. Without a
// registry any non-empty id is accepted.
func (a *app) checkOwner(owner string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", core.Invalid("owner_id", core.ErrMissingOwner, "-owner is required")
	}
	if _, err := os.Stat(a.cfg.UsersPath); errors.Is(err, os.ErrNotExist) {
		return owner, nil
	}
	if _, err := users.NewRegistry(a.cfg.UsersPath).Get(owner); err != nil {
		return "", err
	}
	return owner, nil
}

// withLedger opens the configured backend for the duration of fn.
func (a *app) withLedger(ctx context.Context, fn func(*backend.BackendResult) error) error {
	res, err := cli.OpenBackend(ctx, a.logger, a.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := res.Cleanup(); cerr != nil {
			a.logger.Warn("Failed to close ledger", log.FieldError, cerr)
		}
	}()
	return fn(res)
}

// withSchedule opens the recurring entry store for the duration of fn.
func (a *app) withSchedule(fn func(*schedule.Store) error) error {
	store, err := schedule.Open(a.cfg.RecurrencesPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// exit reports err on stderr and maps it to an exit status.
func exit(err error) subcommands.ExitStatus {
	if err == nil {
		return subcommands.ExitSuccess
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	if errors.Is(err, core.ErrValidation) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

func usageError(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}
