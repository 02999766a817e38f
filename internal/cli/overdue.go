package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mrlokans/circulation/internal/audit"
	"github.com/mrlokans/circulation/internal/config"
	"github.com/mrlokans/circulation/internal/entities"
	"github.com/mrlokans/circulation/internal/tasks"
)

// OverdueCommand lists loans past their due date and optionally stores the
// report as a JSON snapshot.
type OverdueCommand struct {
	AsOf         entities.Date
	DatabasePath string
	AuditDir     string
	Save         bool

	Out io.Writer
}

func NewOverdueCommand() *OverdueCommand {
	return &OverdueCommand{}
}

func (cmd *OverdueCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("overdue", flag.ContinueOnError)

	var asOf string
	fs.StringVar(&asOf, "as-of", "", "Reference date YYYY-MM-DD (defaults to today)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.StringVar(&cmd.AuditDir, "audit-dir", "./audit", "Directory for report snapshots")
	fs.BoolVar(&cmd.Save, "save", false, "Store the report as a JSON snapshot and record it in the audit trail")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s overdue [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List active loans whose due date is before the reference date.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	cmd.AsOf, err = parseOptionalDate("as-of", asOf)
	return err
}

func (cmd *OverdueCommand) Run() error {
	lib, err := openLibrary(cmd.DatabasePath, 0)
	if err != nil {
		return err
	}
	defer lib.Close()

	var saver tasks.SnapshotSaver
	var recorder tasks.OverdueReportRecorder
	if cmd.Save {
		saver = audit.NewAuditor(cmd.AuditDir)
		recorder = lib.audit
	}

	report, err := tasks.NewOverdueReporter(lib.overdue, saver, recorder).Run(context.Background(), cmd.AsOf)
	if err != nil {
		return fmt.Errorf("overdue query failed: %w", err)
	}

	out := outputOrStdout(cmd.Out)
	fmt.Fprintf(out, "Overdue loans as of %s: %d\n", report.AsOf, report.Count)
	if report.Count > 0 {
		fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LOAN\tDUE\tDAYS\tBOOK\tREADER\tPHONE")
		for _, e := range report.Entries {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
				e.Loan.ID, e.Loan.DueDate, e.DaysOverdue, e.Book.Title, e.Reader.Name, e.Reader.Phone)
		}
		tw.Flush()
	}
	if report.Snapshot != "" {
		fmt.Fprintf(out, "\nSnapshot saved: %s\n", report.Snapshot)
	}
	return nil
}
