package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mrlokans/circulation/internal/cli"
	"github.com/mrlokans/circulation/internal/config"
	"github.com/mrlokans/circulation/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type subcommand interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("WARNING: failed to load .env: %v", err)
	}

	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "import":
		run(cli.NewImportCommand(), args)
	case "export":
		run(cli.NewExportCommand(), args)
	case "checkout":
		run(cli.NewCheckoutCommand(), args)
	case "checkin":
		run(cli.NewCheckInCommand(), args)
	case "overdue":
		run(cli.NewOverdueCommand(), args)

	case "-h", "--help", "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func run(cmd subcommand, args []string) {
	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve      Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  import     Import books, readers or loans from CSV\n")
	fmt.Fprintf(os.Stderr, "  export     Export books, readers or loans as CSV\n")
	fmt.Fprintf(os.Stderr, "  checkout   Lend a book to a reader\n")
	fmt.Fprintf(os.Stderr, "  checkin    Return a borrowed book\n")
	fmt.Fprintf(os.Stderr, "  overdue    List loans past their due date\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
