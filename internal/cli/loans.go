package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/circulation/internal/config"
	"github.com/mrlokans/circulation/internal/entities"
	"github.com/mrlokans/circulation/internal/ledger"
)

// CheckoutCommand lends one copy of a book to a reader.
type CheckoutCommand struct {
	Request        ledger.CheckoutRequest
	LoanPeriodDays int
	DatabasePath   string

	Out io.Writer
}

func NewCheckoutCommand() *CheckoutCommand {
	return &CheckoutCommand{}
}

func (cmd *CheckoutCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)

	var bookID, readerID int64
	var borrowDate, dueDate string
	fs.Int64Var(&bookID, "book", 0, "Book ID (required)")
	fs.Int64Var(&readerID, "reader", 0, "Reader ID (required)")
	fs.StringVar(&borrowDate, "borrow-date", "", "Borrow date YYYY-MM-DD (defaults to today)")
	fs.StringVar(&dueDate, "due-date", "", "Due date YYYY-MM-DD (defaults to borrow date plus the loan period)")
	fs.IntVar(&cmd.LoanPeriodDays, "loan-days", ledger.DefaultLoanPeriodDays, "Loan period used when -due-date is omitted")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s checkout -book <id> -reader <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if bookID <= 0 {
		return fmt.Errorf("required flag -book not provided")
	}
	if readerID <= 0 {
		return fmt.Errorf("required flag -reader not provided")
	}
	cmd.Request.BookID = entities.ID(bookID)
	cmd.Request.ReaderID = entities.ID(readerID)

	var err error
	if cmd.Request.BorrowDate, err = parseOptionalDate("borrow-date", borrowDate); err != nil {
		return err
	}
	if cmd.Request.DueDate, err = parseOptionalDate("due-date", dueDate); err != nil {
		return err
	}
	return nil
}

func (cmd *CheckoutCommand) Run() error {
	lib, err := openLibrary(cmd.DatabasePath, cmd.LoanPeriodDays)
	if err != nil {
		return err
	}
	defer lib.Close()

	loan, err := lib.ledger.Checkout(context.Background(), cmd.Request)
	if err != nil {
		return fmt.Errorf("checkout failed: %w", err)
	}

	fmt.Fprintf(outputOrStdout(cmd.Out), "Loan %d: book %d lent to reader %d on %s, due %s\n",
		loan.ID, loan.BookID, loan.ReaderID, loan.BorrowDate, loan.DueDate)
	return nil
}

// CheckInCommand closes an active loan.
type CheckInCommand struct {
	BorrowID     entities.ID
	ReturnDate   entities.Date
	DatabasePath string

	Out io.Writer
}

func NewCheckInCommand() *CheckInCommand {
	return &CheckInCommand{}
}

func (cmd *CheckInCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("checkin", flag.ContinueOnError)

	var borrowID int64
	var returnDate string
	fs.Int64Var(&borrowID, "loan", 0, "Loan (borrow) ID (required)")
	fs.StringVar(&returnDate, "date", "", "Return date YYYY-MM-DD (defaults to today)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s checkin -loan <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if borrowID <= 0 {
		return fmt.Errorf("required flag -loan not provided")
	}
	cmd.BorrowID = entities.ID(borrowID)

	var err error
	cmd.ReturnDate, err = parseOptionalDate("date", returnDate)
	return err
}

func (cmd *CheckInCommand) Run() error {
	lib, err := openLibrary(cmd.DatabasePath, 0)
	if err != nil {
		return err
	}
	defer lib.Close()

	loan, err := lib.ledger.CheckIn(context.Background(), cmd.BorrowID, cmd.ReturnDate)
	if err != nil {
		return fmt.Errorf("check-in failed: %w", err)
	}

	fmt.Fprintf(outputOrStdout(cmd.Out), "Loan %d: book %d returned on %s\n", loan.ID, loan.BookID, loan.ReturnDate)
	return nil
}

func parseOptionalDate(flagName, value string) (entities.Date, error) {
	if value == "" {
		return entities.Date{}, nil
	}
	d, err := entities.ParseDate(value)
	if err != nil {
		return entities.Date{}, fmt.Errorf("invalid -%s %q: expected YYYY-MM-DD", flagName, value)
	}
	return d, nil
}
