package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"ledgerkeep/internal/backend"
)

type categoriesCmd struct {
	*app
	ownerFlag
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list the categories in use" }
func (*categoriesCmd) Usage() string {
	return `categories -owner <id>
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) { c.setOwnerFlag(f) }

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	return exit(c.withLedger(ctx, func(b *backend.BackendResult) error {
		cats, err := b.Service.Categories(ctx, owner)
		if err != nil {
			return err
		}
		for _, cat := range cats {
			fmt.Println(cat)
		}
		return nil
	}))
}

type renameCmd struct {
	*app
	ownerFlag
}

func (*renameCmd) Name() string     { return "rename" }
func (*renameCmd) Synopsis() string { return "rename a category on every matching transaction" }
func (*renameCmd) Usage() string {
	return `rename -owner <id> <from> <to>
`
}

func (c *renameCmd) SetFlags(f *flag.FlagSet) { c.setOwnerFlag(f) }

func (c *renameCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usageError("rename takes a source and a target category")
	}
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	return exit(c.withLedger(ctx, func(b *backend.BackendResult) error {
		n, err := b.Service.RenameCategory(ctx, owner, f.Arg(0), f.Arg(1))
		if err != nil {
			return err
		}
		fmt.Printf("%d transactions moved to %s\n", n, f.Arg(1))
		return nil
	}))
}

type mergeCmd struct {
	*app
	ownerFlag
	into string
}

func (*mergeCmd) Name() string     { return "merge" }
func (*mergeCmd) Synopsis() string { return "merge several categories into one" }
func (*mergeCmd) Usage() string {
	return `merge -owner <id> -into <target> <source>...

  Moves every transaction of the source categories to the target. Sources
  equal to the target are ignored.
`
}

func (c *mergeCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	f.StringVar(&c.into, "into", "", "Target category (required)")
}

func (c *mergeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.into == "" || f.NArg() == 0 {
		return usageError("merge needs -into and at least one source category")
	}
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	return exit(c.withLedger(ctx, func(b *backend.BackendResult) error {
		n, err := b.Service.MergeCategories(ctx, owner, f.Args(), c.into)
		if err != nil {
			return err
		}
		fmt.Printf("%d transactions moved to %s\n", n, c.into)
		return nil
	}))
}
