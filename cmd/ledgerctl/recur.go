package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"ledgerkeep/internal/backend"
	"ledgerkeep/internal/core"
	"ledgerkeep/internal/schedule"
	"ledgerkeep/internal/services"
)

type recurAddCmd struct {
	*app
	ownerFlag
	entry schedule.Entry
}

func (*recurAddCmd) Name() string     { return "recur-add" }
func (*recurAddCmd) Synopsis() string { return "add or replace a recurring entry" }
func (*recurAddCmd) Usage() string {
	return `recur-add -owner <id> -category <c> -amount <a> -day <1-28> [-desc <text>] [-kind expense] [-method Cash]

  Entries are keyed by (owner, category, description); adding the same key
  again replaces the stored template.
`
}

func (c *recurAddCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	f.StringVar(&c.entry.Category, "category", "", "Category (required)")
	f.StringVar(&c.entry.Description, "desc", "", "Description, part of the entry key")
	f.StringVar(&c.entry.Kind, "kind", string(core.Expense), "income or expense")
	f.StringVar(&c.entry.Amount, "amount", "", "Amount (required)")
	f.StringVar(&c.entry.PaymentMethod, "method", string(core.Cash), "Payment method")
	f.IntVar(&c.entry.DayOfMonth, "day", 1, "Day of month the entry is posted on, 1 to 28")
}

func (c *recurAddCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	e := c.entry
	e.OwnerID = owner
	return exit(c.withSchedule(func(s *schedule.Store) error {
		replaced, err := s.Upsert(e)
		if err != nil {
			return err
		}
		if replaced {
			fmt.Println("replaced recurring entry")
		} else {
			fmt.Println("added recurring entry")
		}
		return nil
	}))
}

type recurListCmd struct {
	*app
	ownerFlag
}

func (*recurListCmd) Name() string     { return "recur-list" }
func (*recurListCmd) Synopsis() string { return "list recurring entries" }
func (*recurListCmd) Usage() string {
	return `recur-list -owner <id>
`
}

func (c *recurListCmd) SetFlags(f *flag.FlagSet) { c.setOwnerFlag(f) }

func (c *recurListCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	return exit(c.withSchedule(func(s *schedule.Store) error {
		entries, err := s.List(owner)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DAY\tKIND\tAMOUNT\tCATEGORY\tMETHOD\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				e.DayOfMonth, e.Kind, e.Amount, e.Category, e.PaymentMethod, e.Description)
		}
		return w.Flush()
	}))
}

type recurDeleteCmd struct {
	*app
	ownerFlag
	category, desc string
}

func (*recurDeleteCmd) Name() string     { return "recur-delete" }
func (*recurDeleteCmd) Synopsis() string { return "remove a recurring entry" }
func (*recurDeleteCmd) Usage() string {
	return `recur-delete -owner <id> -category <c> [-desc <text>]
`
}

func (c *recurDeleteCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	f.StringVar(&c.category, "category", "", "Category of the entry")
	f.StringVar(&c.desc, "desc", "", "Description of the entry")
}

func (c *recurDeleteCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	return exit(c.withSchedule(func(s *schedule.Store) error {
		ok, err := s.Delete(owner, c.category, c.desc)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFound("no recurring entry for category %q and description %q", c.category, c.desc)
		}
		fmt.Println("deleted recurring entry")
		return nil
	}))
}

type postCmd struct {
	*app
	ownerFlag
	month string
	all   bool
}

func (*postCmd) Name() string     { return "post" }
func (*postCmd) Synopsis() string { return "post recurring entries due in a month" }
func (*postCmd) Usage() string {
	return `post [-owner <id> | -all] [-month YYYY-MM]

  Appends one transaction per recurring entry not yet present in the month.
  Running it twice for the same month adds nothing the second time.
`
}

func (c *postCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	f.StringVar(&c.month, "month", core.MonthOf(time.Now()).String(), "Month to post, YYYY-MM")
	f.BoolVar(&c.all, "all", false, "Post for every owner with recurring entries")
}

func (c *postCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	month, err := core.ParseMonth(c.month)
	if err != nil {
		return exit(err)
	}
	owner := ""
	if !c.all {
		if owner, err = c.checkOwner(c.owner); err != nil {
			return exit(err)
		}
	}
	return exit(c.withSchedule(func(s *schedule.Store) error {
		return c.withLedger(ctx, func(b *backend.BackendResult) error {
			proc := services.NewRecurringProcessor(s, b.Store)
			var posted, present int
			var err error
			if c.all {
				posted, present, err = proc.PostAll(ctx, month)
			} else {
				posted, present, err = proc.PostDue(ctx, owner, month)
			}
			fmt.Printf("%s: %d posted, %d already present\n", month, posted, present)
			return err
		})
	}))
}
