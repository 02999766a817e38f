package exporters

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/google/uuid"

	"github.com/mrlokans/circulation/internal/entities"
	"github.com/mrlokans/circulation/internal/importers"
)

var (
	bookHeader   = []string{"book_id", "title", "author", "category", "stock"}
	readerHeader = []string{"reader_id", "name", "phone", "gender"}
	loanHeader   = []string{"borrow_id", "book_id", "reader_id", "borrow_date", "due_date", "return_date"}
)

type BookLister interface {
	ListBooks(ctx context.Context) ([]entities.Book, error)
}

type ReaderLister interface {
	ListReaders(ctx context.Context) ([]entities.Reader, error)
}

type LoanLister interface {
	GetAllLoans(ctx context.Context) ([]entities.Loan, error)
}

type ExportResult struct {
	CorrelationID string          `json:"correlation_id"`
	Table         importers.Table `json:"table"`
	Rows          int             `json:"rows"`
}

// CSVExporter writes whole tables as UTF-8 CSV with a header row, in the
// layout importers.Pipeline reads back.
type CSVExporter struct {
	books    BookLister
	readers  ReaderLister
	loans    LoanLister
	recorder importers.TransferRecorder
}

func NewCSVExporter(books BookLister, readers ReaderLister, loans LoanLister, recorder importers.TransferRecorder) *CSVExporter {
	return &CSVExporter{books: books, readers: readers, loans: loans, recorder: recorder}
}

// Export writes the requested table to w.
func (e *CSVExporter) Export(ctx context.Context, table importers.Table, w io.Writer) (ExportResult, error) {
	result := ExportResult{CorrelationID: uuid.NewString(), Table: table}

	var err error
	switch table {
	case importers.TableBooks:
		result.Rows, err = e.exportBooks(ctx, w)
	case importers.TableReaders:
		result.Rows, err = e.exportReaders(ctx, w)
	case importers.TableLoans:
		result.Rows, err = e.exportLoans(ctx, w)
	default:
		err = fmt.Errorf("unknown table %q", table)
	}

	if err != nil {
		log.Printf("Export %s [%s] failed: %v", table, result.CorrelationID, err)
	} else {
		log.Printf("Export %s [%s]: %d rows", table, result.CorrelationID, result.Rows)
	}

	if e.recorder != nil {
		e.recorder.LogTransfer(result.CorrelationID, string(table)+"_export",
			fmt.Sprintf("Exported %d %s rows", result.Rows, table),
			map[string]int{"rows": result.Rows}, err)
	}
	return result, err
}

func (e *CSVExporter) exportBooks(ctx context.Context, w io.Writer) (int, error) {
	books, err := e.books.ListBooks(ctx)
	if err != nil {
		return 0, err
	}
	return len(books), WriteBooksCSV(w, books)
}

func (e *CSVExporter) exportReaders(ctx context.Context, w io.Writer) (int, error) {
	readers, err := e.readers.ListReaders(ctx)
	if err != nil {
		return 0, err
	}
	return len(readers), WriteReadersCSV(w, readers)
}

func (e *CSVExporter) exportLoans(ctx context.Context, w io.Writer) (int, error) {
	loans, err := e.loans.GetAllLoans(ctx)
	if err != nil {
		return 0, err
	}
	return len(loans), WriteLoansCSV(w, loans)
}

// WriteBooksCSV writes books with a header row.
func WriteBooksCSV(w io.Writer, books []entities.Book) error {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{b.ID.String(), b.Title, b.Author, b.Category, strconv.Itoa(b.Stock)})
	}
	return writeCSV(w, bookHeader, rows)
}

// WriteReadersCSV writes readers with a header row.
func WriteReadersCSV(w io.Writer, readers []entities.Reader) error {
	rows := make([][]string, 0, len(readers))
	for _, r := range readers {
		rows = append(rows, []string{r.ID.String(), r.Name, r.Phone, r.Gender})
	}
	return writeCSV(w, readerHeader, rows)
}

// WriteLoansCSV writes loans with a header row. Active loans have an empty
// return_date.
func WriteLoansCSV(w io.Writer, loans []entities.Loan) error {
	rows := make([][]string, 0, len(loans))
	for _, l := range loans {
		returned := ""
		if l.ReturnDate != nil {
			returned = l.ReturnDate.String()
		}
		rows = append(rows, []string{
			l.ID.String(),
			l.BookID.String(),
			l.ReaderID.String(),
			l.BorrowDate.String(),
			l.DueDate.String(),
			returned,
		})
	}
	return writeCSV(w, loanHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}
