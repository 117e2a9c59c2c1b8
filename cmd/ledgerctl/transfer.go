package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"ledgerkeep/internal/backend"
	"ledgerkeep/internal/core"
	"ledgerkeep/internal/fsutil"
	"ledgerkeep/internal/services"
)

type importCmd struct {
	*app
	ownerFlag
	mapPath string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "merge an external CSV batch into the ledger" }
func (*importCmd) Usage() string {
	return `import -owner <id> [-map columns.yaml] <file.csv>

  Rows whose date, amount and description already exist for the owner are
  skipped, as are rows that fail validation. A column map renames bank
  export headers to ledger fields:

    columns:
      Booking Date: date
      Value: amount
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	f.StringVar(&c.mapPath, "map", "", "YAML column map")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("import takes exactly one CSV file")
	}
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	var cm services.ColumnMap
	if c.mapPath != "" {
		if cm, err = services.LoadColumnMap(c.mapPath); err != nil {
			return exit(err)
		}
	}
	return exit(c.withLedger(ctx, func(b *backend.BackendResult) error {
		added, skipped, err := services.NewImporter(b.Store).ImportFile(ctx, owner, f.Arg(0), cm)
		if err != nil {
			return err
		}
		fmt.Printf("%d added, %d skipped\n", added, skipped)
		return nil
	}))
}

type exportCmd struct {
	*app
	ownerFlag
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the owner's transactions as CSV" }
func (*exportCmd) Usage() string {
	return `export -owner <id> [-o file.csv]

  The output uses the ledger's own column layout and can be imported back.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	f.StringVar(&c.out, "o", "", "Output file (defaults to stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	owner, err := c.checkOwner(c.owner)
	if err != nil {
		return exit(err)
	}
	return exit(c.withLedger(ctx, func(b *backend.BackendResult) error {
		im := services.NewImporter(b.Store)
		if c.out == "" {
			_, err := im.Export(ctx, owner, os.Stdout)
			return err
		}
		var n int
		err := fsutil.WriteFileAtomic(c.out, 0o644, func(w io.Writer) error {
			var err error
			n, err = im.Export(ctx, owner, w)
			return err
		})
		if err != nil {
			return core.WrapIO("export", c.out, err)
		}
		fmt.Fprintf(os.Stderr, "%d transactions written to %s\n", n, c.out)
		return nil
	}))
}
