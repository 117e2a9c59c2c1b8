package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"ledgerkeep/internal/backend"
	"ledgerkeep/internal/core"
	"ledgerkeep/internal/ledger"
	"ledgerkeep/internal/ledger/csvfile"
)

// txFlags are the record fields accepted by add and edit.
type txFlags struct {
	kind, amount, category, date, desc, method string
}

func (t *txFlags) set(f *flag.FlagSet, defaults core.TransactionInput) {
	f.StringVar(&t.kind, "kind", defaults.Kind, "income or expense")
	f.StringVar(&t.amount, "amount", defaults.Amount, "Amount, e.g. 12.50 (at most two decimals)")
	f.StringVar(&t.category, "category", defaults.Category, "Category, 1 to 40 characters")
	f.StringVar(&t.date, "date", defaults.Date, "Date, YYYY-MM-DD")
	f.StringVar(&t.desc, "desc", defaults.Description, "Free-text description")
	f.StringVar(&t.method, "method", defaults.PaymentMethod, "Cash, Debit Card, Credit Card, Bank Transfer or Wallet")
}

func (t *txFlags) input() core.TransactionInput {
	return core.TransactionInput{
		Kind:          t.kind,
		Amount:        t.amount,
		Category:      t.category,
		Date:          t.date,
		Description:   t.desc,
		PaymentMethod: t.method,
	}
}

type addCmd struct {
	*app
	ownerFlag
	fields txFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a new transaction" }
func (*addCmd) Usage() string {
	return `add -owner <id> -amount <amount> -category <category> [-kind expense] [-date today] [-desc <text>] [-method Cash]

  Validates the record and appends it with the next free transaction id,
  which is printed on success.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	c.fields.set(f, core.TransactionInput{
		Kind:          string(core.Expense),
		Date:          time.Now().Format(core.DateLayout),
		PaymentMethod: string(core.Cash),
	})
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	return exit(c.withLedger(ctx, func(b *backend.BackendResult) error {
		tx, err := b.Service.CreateTransaction(ctx, owner, c.fields.input())
		if err != nil {
			return err
		}
		fmt.Println(tx.ID)
		return nil
	}))
}

type editCmd struct {
	*app
	ownerFlag
	fields txFlags
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change fields of an existing transaction" }
func (*editCmd) Usage() string {
	return `edit -owner <id> [field flags] <transaction-id>

  Only the flags given are changed; the transaction keeps its id.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	c.fields.set(f, core.TransactionInput{})
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("edit takes exactly one transaction id")
	}
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	return exit(c.withLedger(ctx, func(b *backend.BackendResult) error {
		_, changed, err := b.Service.EditTransaction(ctx, owner, f.Arg(0), c.fields.input())
		if err != nil {
			return err
		}
		if changed {
			fmt.Println("updated", f.Arg(0))
		} else {
			fmt.Println("no change", f.Arg(0))
		}
		return nil
	}))
}

type deleteCmd struct {
	*app
	ownerFlag
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "remove a transaction" }
func (*deleteCmd) Usage() string {
	return `delete -owner <id> <transaction-id>

  Deleted ids are never handed out again.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) { c.setOwnerFlag(f) }

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("delete takes exactly one transaction id")
	}
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	return exit(c.withLedger(ctx, func(b *backend.BackendResult) error {
		if err := b.Service.DeleteTransaction(ctx, owner, f.Arg(0)); err != nil {
			return err
		}
		fmt.Println("deleted", f.Arg(0))
		return nil
	}))
}

type listCmd struct {
	*app
	ownerFlag
	from, to, month  string
	category, method string
	kind             string
	desc             bool
	csv              bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list transactions" }
func (*listCmd) Usage() string {
	return `list -owner <id> [-month YYYY-MM | -from <date> -to <date>] [-category <c>] [-method <m>] [-kind <k>] [-desc] [-csv]

  Lists the owner's transactions ordered by date then id, with income and
  expense totals.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	f.StringVar(&c.month, "month", "", "Restrict to one month, YYYY-MM")
	f.StringVar(&c.from, "from", "", "First date, inclusive")
	f.StringVar(&c.to, "to", "", "Last date, inclusive")
	f.StringVar(&c.category, "category", "", "Only this category")
	f.StringVar(&c.method, "method", "", "Only this payment method")
	f.StringVar(&c.kind, "kind", "", "Only income or expense")
	f.BoolVar(&c.desc, "desc", false, "Newest first")
	f.BoolVar(&c.csv, "csv", false, "Write CSV instead of a table")
}

func (c *listCmd) filter() (ledger.Filter, error) {
	flt := ledger.Filter{Category: c.category, Descending: c.desc}
	var err error
	if c.month != "" {
		m, err := core.ParseMonth(c.month)
		if err != nil {
			return flt, err
		}
		flt.From, flt.To = m.First(), m.Last()
	}
	if c.from != "" {
		if flt.From, err = core.ParseDate(c.from); err != nil {
			return flt, err
		}
	}
	if c.to != "" {
		if flt.To, err = core.ParseDate(c.to); err != nil {
			return flt, err
		}
	}
	if c.method != "" {
		if flt.PaymentMethod, err = core.ParsePaymentMethod(c.method); err != nil {
			return flt, err
		}
	}
	if c.kind != "" {
		if flt.Kind, err = core.ParseKind(c.kind); err != nil {
			return flt, err
		}
	}
	return flt, nil
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	flt, err := c.filter()
	if err != nil {
		return exit(err)
	}
	return exit(c.withLedger(ctx, func(b *backend.BackendResult) error {
		rows, err := b.Service.ListTransactions(ctx, owner, flt)
		if err != nil {
			return err
		}
		if c.csv {
			return csvfile.Encode(os.Stdout, rows)
		}
		return printTable(os.Stdout, rows)
	}))
}

func printTable(out io.Writer, rows []core.Transaction) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tKIND\tAMOUNT\tCATEGORY\tMETHOD\tDESCRIPTION")
	income, expense := core.NewMoneyFromCents(0), core.NewMoneyFromCents(0)
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.OccurredOn, r.Kind, r.Amount, r.Category, r.PaymentMethod, r.Description)
		if r.Kind == core.Income {
			income = income.Add(r.Amount)
		} else {
			expense = expense.Add(r.Amount)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d rows, income %s, expense %s\n", len(rows), income, expense)
	return err
}
