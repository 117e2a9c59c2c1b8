package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"ledgerkeep/internal/users"
)

type registerCmd struct {
	*app
	name, currency, pin string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "register a new owner" }
func (*registerCmd) Usage() string {
	return `register -name <name> -pin <digits> [-currency EUR]

  Prints the new owner id used by -owner.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Display name, 2 to 40 letters, digits, '-' or '_'")
	f.StringVar(&c.currency, "currency", "EUR", "ISO 4217 currency code")
	f.StringVar(&c.pin, "pin", os.Getenv("LEDGER_PIN"), "PIN, 4 to 12 digits (defaults to $LEDGER_PIN)")
}

func (c *registerCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	u, err := users.NewRegistry(c.cfg.UsersPath).Register(c.name, c.currency, c.pin)
	if err != nil {
		return exit(err)
	}
	fmt.Println(u.UserID)
	return subcommands.ExitSuccess
}

type loginCmd struct {
	*app
	name, pin string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "check a name and PIN and print the owner id" }
func (*loginCmd) Usage() string {
	return `login -name <name> -pin <digits>
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Registered name")
	f.StringVar(&c.pin, "pin", os.Getenv("LEDGER_PIN"), "PIN (defaults to $LEDGER_PIN)")
}

func (c *loginCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	u, err := users.NewRegistry(c.cfg.UsersPath).Authenticate(c.name, c.pin)
	if err != nil {
		return exit(err)
	}
	fmt.Println(u.UserID)
	return subcommands.ExitSuccess
}

type usersCmd struct{ *app }

func (*usersCmd) Name() string     { return "users" }
func (*usersCmd) Synopsis() string { return "list registered owners" }
func (*usersCmd) Usage() string {
	return `users
`
}

func (*usersCmd) SetFlags(*flag.FlagSet) {}

func (c *usersCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	list, err := users.NewRegistry(c.cfg.UsersPath).List()
	if err != nil {
		return exit(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCURRENCY")
	for _, u := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.UserID, u.Name, u.Currency)
	}
	return exit(w.Flush())
}
