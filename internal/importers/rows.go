package importers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mrlokans/circulation/internal/entities"
)

var bookColumns = []column{
	{name: "book_id", aliases: []string{"id", "bookid"}},
	{name: "title", aliases: []string{"book_name", "name", "book_title"}},
	{name: "author"},
	{name: "category", aliases: []string{"genre"}},
	{name: "stock", aliases: []string{"quantity", "copies"}},
}

var readerColumns = []column{
	{name: "reader_id", aliases: []string{"id", "readerid"}},
	{name: "name", aliases: []string{"reader_name"}},
	{name: "phone", aliases: []string{"telephone", "phone_number"}},
	{name: "gender", aliases: []string{"sex"}},
}

var loanColumns = []column{
	{name: "borrow_id", aliases: []string{"loan_id", "id"}},
	{name: "book_id"},
	{name: "reader_id"},
	{name: "borrow_date"},
	{name: "due_date"},
	{name: "return_date"},
}

// BookRecord is a parsed catalog row and the CSV line it came from.
type BookRecord struct {
	Line int
	Book entities.Book
}

type ReaderRecord struct {
	Line   int
	Reader entities.Reader
}

// LoanRecord is a historical loan. ReturnDate is nil for loans still out.
type LoanRecord struct {
	Line       int
	BorrowID   entities.ID
	BookID     entities.ID
	ReaderID   entities.ID
	BorrowDate entities.Date
	DueDate    entities.Date
	ReturnDate *entities.Date
}

// ParseBooksCSV parses a catalog export. Rows that cannot be parsed are
// reported in the returned messages and left out; the error is reserved for
// unreadable input.
func ParseBooksCSV(r io.Reader) ([]BookRecord, []string, error) {
	t, err := readCSV(r, bookColumns)
	if err != nil {
		return nil, nil, err
	}

	var records []BookRecord
	var errors []string
	for _, row := range t.rows {
		id, err := entities.ParseID(t.value(row, "book_id"))
		if err != nil {
			errors = append(errors, fmt.Sprintf("Line %d: %v", row.line, err))
			continue
		}

		stock := 0
		if raw := t.value(row, "stock"); raw != "" {
			stock, err = strconv.Atoi(raw)
			if err != nil || stock < 0 {
				errors = append(errors, fmt.Sprintf("Line %d: invalid stock %q", row.line, raw))
				continue
			}
		}

		records = append(records, BookRecord{
			Line: row.line,
			Book: entities.Book{
				ID:       id,
				Title:    t.value(row, "title"),
				Author:   t.value(row, "author"),
				Category: t.value(row, "category"),
				Stock:    stock,
			},
		})
	}
	return records, errors, nil
}

// ParseReadersCSV parses a member export. A missing gender column is
// accepted and stored as unknown.
func ParseReadersCSV(r io.Reader) ([]ReaderRecord, []string, error) {
	t, err := readCSV(r, readerColumns)
	if err != nil {
		return nil, nil, err
	}

	var records []ReaderRecord
	var errors []string
	for _, row := range t.rows {
		id, err := entities.ParseID(t.value(row, "reader_id"))
		if err != nil {
			errors = append(errors, fmt.Sprintf("Line %d: %v", row.line, err))
			continue
		}

		reader := entities.Reader{
			ID:    id,
			Name:  t.value(row, "name"),
			Phone: t.value(row, "phone"),
		}
		if t.has("gender") {
			reader.Gender = t.value(row, "gender")
		}
		reader.Normalize()

		records = append(records, ReaderRecord{Line: row.line, Reader: reader})
	}
	return records, errors, nil
}

// ParseLoansCSV parses a loan history export. A borrow_id is kept so that
// importing the same history twice skips loans already present. An empty
// borrow_id lets the ledger assign one.
func ParseLoansCSV(r io.Reader) ([]LoanRecord, []string, error) {
	t, err := readCSV(r, loanColumns)
	if err != nil {
		return nil, nil, err
	}

	var records []LoanRecord
	var errors []string
	for _, row := range t.rows {
		rec, err := parseLoanRow(t, row)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Line %d: %v", row.line, err))
			continue
		}
		records = append(records, rec)
	}
	return records, errors, nil
}

func parseLoanRow(t *csvTable, row csvRow) (LoanRecord, error) {
	rec := LoanRecord{Line: row.line}

	var err error
	if raw := t.value(row, "borrow_id"); raw != "" {
		if rec.BorrowID, err = entities.ParseID(raw); err != nil {
			return rec, fmt.Errorf("borrow_id: %w", err)
		}
	}
	if rec.BookID, err = entities.ParseID(t.value(row, "book_id")); err != nil {
		return rec, fmt.Errorf("book_id: %w", err)
	}
	if rec.ReaderID, err = entities.ParseID(t.value(row, "reader_id")); err != nil {
		return rec, fmt.Errorf("reader_id: %w", err)
	}
	if rec.BorrowDate, err = entities.ParseDate(t.value(row, "borrow_date")); err != nil {
		return rec, fmt.Errorf("borrow_date: %w", err)
	}
	if rec.DueDate, err = entities.ParseDate(t.value(row, "due_date")); err != nil {
		return rec, fmt.Errorf("due_date: %w", err)
	}
	if raw := t.value(row, "return_date"); raw != "" {
		returned, err := entities.ParseDate(raw)
		if err != nil {
			return rec, fmt.Errorf("return_date: %w", err)
		}
		if returned.Before(rec.BorrowDate) {
			return rec, fmt.Errorf("return_date %s before borrow_date %s: %w", returned, rec.BorrowDate, entities.ErrInvalidDateRange)
		}
		rec.ReturnDate = &returned
	}
	return rec, nil
}
