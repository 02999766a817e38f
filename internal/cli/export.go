package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/circulation/internal/config"
	"github.com/mrlokans/circulation/internal/importers"
)

// ExportCommand writes one table as CSV to a file or stdout.
type ExportCommand struct {
	Table        importers.Table
	OutputPath   string
	DatabasePath string

	Out io.Writer
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)

	var table string
	fs.StringVar(&table, "table", "", "Table to export: books, readers or loans (required)")
	fs.StringVar(&cmd.OutputPath, "output", "", "Destination file (defaults to stdout)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export -table <books|readers|loans> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export a table as CSV. The output can be fed back to the import command.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if table == "" {
		return fmt.Errorf("required flag -table not provided")
	}

	parsed, err := importers.ParseTable(table)
	if err != nil {
		return err
	}
	cmd.Table = parsed
	return nil
}

func (cmd *ExportCommand) Run() error {
	lib, err := openLibrary(cmd.DatabasePath, 0)
	if err != nil {
		return err
	}
	defer lib.Close()

	w := outputOrStdout(cmd.Out)
	if cmd.OutputPath != "" {
		file, err := os.Create(cmd.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		w = file
	}

	result, err := lib.exporter.Export(context.Background(), cmd.Table, w)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if cmd.OutputPath != "" {
		fmt.Fprintf(outputOrStdout(cmd.Out), "Exported %d %s rows to %s\n", result.Rows, cmd.Table, cmd.OutputPath)
	}
	return nil
}
