package http

import (
	"context"
	"io"
	"iter"

	"github.com/mrlokans/circulation/internal/database/catalog"
	"github.com/mrlokans/circulation/internal/entities"
	"github.com/mrlokans/circulation/internal/exporters"
	"github.com/mrlokans/circulation/internal/importers"
	"github.com/mrlokans/circulation/internal/ledger"
	"github.com/mrlokans/circulation/internal/overdue"
)

// Store interfaces used by the controllers. Each controller depends only on
// the methods it calls.

// CatalogStore is satisfied by catalog.Repository.
type CatalogStore interface {
	CreateBook(ctx context.Context, book *entities.Book) error
	UpdateBook(ctx context.Context, book *entities.Book) error
	DeleteBook(ctx context.Context, id entities.ID, policy entities.DeletePolicy) error
	GetBook(ctx context.Context, id entities.ID) (*entities.Book, error)
	ListBooks(ctx context.Context) ([]entities.Book, error)
	SearchBooks(ctx context.Context, keyword string, field catalog.SearchField) ([]entities.Book, error)
}

// MemberStore is satisfied by members.Repository.
type MemberStore interface {
	CreateReader(ctx context.Context, reader *entities.Reader) error
	UpdateReader(ctx context.Context, reader *entities.Reader) error
	DeleteReader(ctx context.Context, id entities.ID, policy entities.DeletePolicy) error
	GetReader(ctx context.Context, id entities.ID) (*entities.Reader, error)
	ListReaders(ctx context.Context) ([]entities.Reader, error)
}

// LoanService is satisfied by ledger.Ledger.
type LoanService interface {
	Checkout(ctx context.Context, req ledger.CheckoutRequest) (*entities.Loan, error)
	CheckIn(ctx context.Context, borrowID entities.ID, returnDate entities.Date) (*entities.Loan, error)
	GetLoan(ctx context.Context, borrowID entities.ID) (*entities.Loan, error)
	GetActiveLoans(ctx context.Context) ([]entities.Loan, error)
	GetAllLoans(ctx context.Context) ([]entities.Loan, error)
}

// OverdueLister is satisfied by overdue.Query.
type OverdueLister interface {
	ListOverdue(ctx context.Context, asOf entities.Date) iter.Seq2[overdue.Entry, error]
}

// Importer is satisfied by importers.Pipeline.
type Importer interface {
	Import(ctx context.Context, table importers.Table, r io.Reader) (importers.Result, error)
}

// Exporter is satisfied by exporters.CSVExporter.
type Exporter interface {
	Export(ctx context.Context, table importers.Table, w io.Writer) (exporters.ExportResult, error)
}

// DeleteRecorder is satisfied by audit.Service.
type DeleteRecorder interface {
	LogDelete(entityType string, entityID entities.ID, policy entities.DeletePolicy, err error)
}

// AuditReader is satisfied by audit.Service.
type AuditReader interface {
	GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsByCorrelation(correlationID string) ([]entities.AuditEvent, error)
}
