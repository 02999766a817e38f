package importers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/mrlokans/circulation/internal/entities"
	"github.com/mrlokans/circulation/internal/ledger"
)

// Table names a bulk transfer target.
type Table string

const (
	TableBooks   Table = "books"
	TableReaders Table = "readers"
	TableLoans   Table = "loans"
)

// ParseTable accepts the table names used by the CLI and HTTP routes.
// "borrows" is accepted as an alias of loans.
func ParseTable(s string) (Table, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "books":
		return TableBooks, nil
	case "readers":
		return TableReaders, nil
	case "loans", "borrows":
		return TableLoans, nil
	default:
		return "", fmt.Errorf("unknown table %q: expected books, readers or loans", s)
	}
}

// BookCreator inserts catalog rows one at a time.
type BookCreator interface {
	CreateBook(ctx context.Context, book *entities.Book) error
}

// ReaderCreator inserts member rows one at a time.
type ReaderCreator interface {
	CreateReader(ctx context.Context, reader *entities.Reader) error
}

// Lender replays historical loans through the ledger so stock stays
// consistent with the loans that are still out.
type Lender interface {
	Checkout(ctx context.Context, req ledger.CheckoutRequest) (*entities.Loan, error)
	CheckIn(ctx context.Context, borrowID entities.ID, returnDate entities.Date) (*entities.Loan, error)
}

// TransferRecorder receives one summary per import run.
type TransferRecorder interface {
	LogTransfer(correlationID, action, description string, counts map[string]int, err error)
}

// Result summarizes an import run. Total counts every data row, including
// rows that failed to parse.
type Result struct {
	CorrelationID string   `json:"correlation_id"`
	Table         Table    `json:"table"`
	Total         int      `json:"total"`
	Imported      int      `json:"imported"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	Errors        []string `json:"errors,omitempty"`
}

func (r *Result) fail(line int, err error) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("Line %d: %v", line, err))
}

func (r *Result) counts() map[string]int {
	return map[string]int{
		"total":    r.Total,
		"imported": r.Imported,
		"skipped":  r.Skipped,
		"failed":   r.Failed,
	}
}

// Pipeline handles the common import workflow:
// parse → validate → write row by row through the stores → summarize.
//
// Duplicate keys are skipped and counted. Any other domain error fails only
// its row. A storage failure aborts the run and is returned together with
// the counts accumulated so far; rows written before it stay written.
type Pipeline struct {
	books    BookCreator
	readers  ReaderCreator
	lender   Lender
	recorder TransferRecorder
}

type PipelineOption func(*Pipeline)

func WithTransferRecorder(r TransferRecorder) PipelineOption {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// NewPipeline creates a new import pipeline.
func NewPipeline(books BookCreator, readers ReaderCreator, lender Lender, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{books: books, readers: readers, lender: lender}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Import parses r as the given table and writes every row.
func (p *Pipeline) Import(ctx context.Context, table Table, r io.Reader) (Result, error) {
	result := Result{CorrelationID: uuid.NewString(), Table: table}

	var err error
	switch table {
	case TableBooks:
		err = p.importBooks(ctx, r, &result)
	case TableReaders:
		err = p.importReaders(ctx, r, &result)
	case TableLoans:
		err = p.importLoans(ctx, r, &result)
	default:
		err = fmt.Errorf("unknown table %q", table)
	}

	log.Printf("Import %s [%s]: %d total, %d imported, %d skipped, %d failed",
		table, result.CorrelationID, result.Total, result.Imported, result.Skipped, result.Failed)

	if p.recorder != nil {
		description := fmt.Sprintf("Imported %d of %d %s rows", result.Imported, result.Total, table)
		p.recorder.LogTransfer(result.CorrelationID, string(table)+"_import", description, result.counts(), err)
	}
	return result, err
}

func (p *Pipeline) importBooks(ctx context.Context, r io.Reader, result *Result) error {
	records, parseErrors, err := ParseBooksCSV(r)
	if err != nil {
		return err
	}
	result.addParseErrors(parseErrors)
	result.Total += len(records)

	for _, rec := range records {
		book := rec.Book
		if stop := result.apply(rec.Line, p.books.CreateBook(ctx, &book)); stop != nil {
			return stop
		}
	}
	return nil
}

func (p *Pipeline) importReaders(ctx context.Context, r io.Reader, result *Result) error {
	records, parseErrors, err := ParseReadersCSV(r)
	if err != nil {
		return err
	}
	result.addParseErrors(parseErrors)
	result.Total += len(records)

	for _, rec := range records {
		reader := rec.Reader
		if stop := result.apply(rec.Line, p.readers.CreateReader(ctx, &reader)); stop != nil {
			return stop
		}
	}
	return nil
}

func (p *Pipeline) importLoans(ctx context.Context, r io.Reader, result *Result) error {
	if p.lender == nil {
		return errors.New("loan import requires a ledger")
	}

	records, parseErrors, err := ParseLoansCSV(r)
	if err != nil {
		return err
	}
	result.addParseErrors(parseErrors)
	result.Total += len(records)

	for _, rec := range records {
		if stop := result.apply(rec.Line, p.replayLoan(ctx, rec)); stop != nil {
			return stop
		}
	}
	return nil
}

func (p *Pipeline) replayLoan(ctx context.Context, rec LoanRecord) error {
	loan, err := p.lender.Checkout(ctx, ledger.CheckoutRequest{
		BorrowID:   rec.BorrowID,
		BookID:     rec.BookID,
		ReaderID:   rec.ReaderID,
		BorrowDate: rec.BorrowDate,
		DueDate:    rec.DueDate,
	})
	if err != nil {
		return err
	}
	if rec.ReturnDate == nil {
		return nil
	}
	if _, err := p.lender.CheckIn(ctx, loan.ID, *rec.ReturnDate); err != nil {
		return fmt.Errorf("loan %d created but not closed: %w", loan.ID, err)
	}
	return nil
}

// apply counts the outcome of one row and returns a non-nil error when the
// run must stop.
func (r *Result) apply(line int, err error) error {
	switch {
	case err == nil:
		r.Imported++
	case errors.Is(err, entities.ErrStorageFailure):
		r.fail(line, err)
		return err
	case errors.Is(err, entities.ErrDuplicateKey):
		r.Skipped++
	default:
		r.fail(line, err)
	}
	return nil
}

func (r *Result) addParseErrors(messages []string) {
	r.Total += len(messages)
	r.Failed += len(messages)
	r.Errors = append(r.Errors, messages...)
}
