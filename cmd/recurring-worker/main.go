// Command recurring-worker posts due recurring entries and takes backups on
// cron schedules.
package main

import (
	"flag"
	"fmt"
	"os"

	"ledgerkeep/internal/cli"
	"ledgerkeep/internal/log"
)

func main() {
	once := flag.Bool("once", false, "Run every job once and exit")
	flag.Parse()

	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(log.ComponentWorker, cfg.LogLevel)

	logger.Info("Starting recurring-worker",
		log.FieldBackend, cfg.LedgerBackend,
		"recurring_schedule", cfg.RecurringSchedule,
		"backup_schedule", cfg.BackupSchedule)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	w := newWorker(cfg, logger)
	if *once {
		err = w.runOnce(ctx)
	} else {
		err = w.run(ctx)
	}
	if err != nil {
		logger.Error("Recurring-worker failed", log.FieldError, err)
		stop()
		os.Exit(1)
	}
	logger.Info("Recurring-worker shutdown complete")
}
