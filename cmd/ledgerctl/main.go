// Command ledgerctl manages the ledger, its recurring entries, imports and
// backups from the command line.
package main

import (
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"ledgerkeep/internal/cli"
	"ledgerkeep/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitUsageError))
	}
	logger := cli.SetupLogger(log.ComponentCLI, cfg.LogLevel).With(log.FieldRunID, cli.NewRunID())
	log.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, g := range a.commands() {
		for _, c := range g.cmds {
			commander.Register(c, g.name)
		}
	}

	flag.Parse()
	ctx, stop := cli.GracefulShutdown(logger)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

type commandGroup struct {
	name string
	cmds []subcommands.Command
}

func (a *app) commands() []commandGroup {
	return []commandGroup{
		{"transactions", []subcommands.Command{
			&addCmd{app: a},
			&editCmd{app: a},
			&deleteCmd{app: a},
			&listCmd{app: a},
		}},
		{"categories", []subcommands.Command{
			&categoriesCmd{app: a},
			&renameCmd{app: a},
			&mergeCmd{app: a},
		}},
		{"recurring", []subcommands.Command{
			&recurAddCmd{app: a},
			&recurListCmd{app: a},
			&recurDeleteCmd{app: a},
			&postCmd{app: a},
		}},
		{"transfer", []subcommands.Command{
			&importCmd{app: a},
			&exportCmd{app: a},
		}},
		{"backups", []subcommands.Command{
			&backupCmd{app: a},
			&backupsCmd{app: a},
			&verifyCmd{app: a},
			&restoreCmd{app: a},
		}},
		{"users", []subcommands.Command{
			&registerCmd{app: a},
			&loginCmd{app: a},
			&usersCmd{app: a},
		}},
	}
}
