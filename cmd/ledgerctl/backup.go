package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/google/subcommands"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/snapshot"
)

func (a *app) snapshots() *snapshot.Manager {
	return snapshot.NewManager(a.cfg.BackupDir)
}

// archivePath accepts either a path or a bare name inside the backup dir.
func (a *app) archivePath(arg string) string {
	if filepath.Base(arg) == arg {
		if _, err := os.Stat(arg); err != nil {
			return filepath.Join(a.cfg.BackupDir, arg)
		}
	}
	return arg
}

type backupCmd struct{ *app }

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "archive the data files" }
func (*backupCmd) Usage() string {
	return `backup

  Writes backup-YYYYMMDD-HHMMSS.zip to the backup directory with a manifest
  of file sizes and SHA-256 checksums. Data files that do not exist yet are
  left out.
`
}

func (*backupCmd) SetFlags(*flag.FlagSet) {}

func (c *backupCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, err := c.snapshots().Create(c.cfg.SnapshotFiles())
	if err != nil {
		return exit(err)
	}
	fmt.Println(path)
	return subcommands.ExitSuccess
}

type backupsCmd struct{ *app }

func (*backupsCmd) Name() string     { return "backups" }
func (*backupsCmd) Synopsis() string { return "list archives, newest first" }
func (*backupsCmd) Usage() string {
	return `backups
`
}

func (*backupsCmd) SetFlags(*flag.FlagSet) {}

func (c *backupsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	archives, err := c.snapshots().List()
	if err != nil {
		return exit(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCREATED\tSIZE")
	for _, a := range archives {
		fmt.Fprintf(w, "%s\t%s\t%d\n", a.Name, a.CreatedAt.Format("2006-01-02 15:04:05"), a.Size)
	}
	return exit(w.Flush())
}

type verifyCmd struct{ *app }

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "check an archive against its manifest" }
func (*verifyCmd) Usage() string {
	return `verify <archive>
`
}

func (*verifyCmd) SetFlags(*flag.FlagSet) {}

func (c *verifyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("verify takes exactly one archive")
	}
	ok, problems, err := snapshot.Verify(c.archivePath(f.Arg(0)))
	if err != nil {
		return exit(err)
	}
	for _, p := range problems {
		fmt.Println(p)
	}
	if !ok {
		return subcommands.ExitFailure
	}
	fmt.Println("OK")
	return subcommands.ExitSuccess
}

type restoreCmd struct {
	*app
	dest      string
	overwrite bool
	force     bool
}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "restore data files from an archive" }
func (*restoreCmd) Usage() string {
	return `restore [-dest <dir>] [-overwrite] [-force] <archive>

  The archive is verified first; -force restores even when verification
  reports problems. Existing files are kept unless -overwrite is given.
`
}

func (c *restoreCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dest, "dest", "", "Destination directory (defaults to the data directory)")
	f.BoolVar(&c.overwrite, "overwrite", false, "Replace existing files")
	f.BoolVar(&c.force, "force", false, "Restore without a clean verification")
}

func (c *restoreCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("restore takes exactly one archive")
	}
	archive := c.archivePath(f.Arg(0))
	dest := c.dest
	if dest == "" {
		dest = c.cfg.DataDir
	}

	if !c.force {
		ok, problems, err := snapshot.Verify(archive)
		if err != nil {
			return exit(err)
		}
		if !ok {
			for _, p := range problems {
				fmt.Fprintln(os.Stderr, p)
			}
			return exit(core.Integrity("archive %s failed verification", archive))
		}
	}

	restored, err := c.snapshots().Restore(archive, dest, c.overwrite)
	for _, p := range restored {
		fmt.Println(p)
	}
	return exit(err)
}
