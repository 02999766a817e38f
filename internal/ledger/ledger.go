// Package ledger owns loan records and the write path to book stock.
//
// Checkout and CheckIn each run as a single database transaction that
// validates preconditions, writes the loan row and adjusts stock. The
// storage handle opens transactions with BEGIN IMMEDIATE, so the write lock
// is held from the first precondition read until commit and two callers
// racing for the last copy of a book are serialized.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/circulation/internal/database"
	"github.com/mrlokans/circulation/internal/entities"
)

// DefaultLoanPeriodDays is used when a checkout omits the due date.
const DefaultLoanPeriodDays = 30

// BookStore is the part of the catalog the ledger reads and mutates inside
// its transactions.
type BookStore interface {
	FindBook(db *gorm.DB, id entities.ID) (*entities.Book, error)
	AdjustStock(tx *gorm.DB, id entities.ID, delta int) error
}

// ReaderStore is the part of the member store the ledger validates against.
type ReaderStore interface {
	FindReader(db *gorm.DB, id entities.ID) (*entities.Reader, error)
}

// Recorder receives the outcome of every mutation after the transaction has
// finished. Implementations must not block.
type Recorder interface {
	LogCheckout(bookID, readerID entities.ID, loan *entities.Loan, err error)
	LogCheckIn(borrowID entities.ID, loan *entities.Loan, err error)
}

type CheckoutRequest struct {
	// BorrowID pins the loan id when replaying a loan history. Zero lets the
	// store assign one.
	BorrowID   entities.ID   `json:"-"`
	BookID     entities.ID   `json:"book_id"`
	ReaderID   entities.ID   `json:"reader_id"`
	BorrowDate entities.Date `json:"borrow_date"`
	DueDate    entities.Date `json:"due_date"`
}

type Ledger struct {
	db         *gorm.DB
	books      BookStore
	readers    ReaderStore
	recorder   Recorder
	loanPeriod int
	now        func() time.Time
}

type Option func(*Ledger)

func WithRecorder(r Recorder) Option {
	return func(l *Ledger) {
		l.recorder = r
	}
}

// WithLoanPeriod sets the number of days added to the borrow date when a
// checkout has no due date.
func WithLoanPeriod(days int) Option {
	return func(l *Ledger) {
		if days > 0 {
			l.loanPeriod = days
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

func New(db *gorm.DB, books BookStore, readers ReaderStore, opts ...Option) *Ledger {
	l := &Ledger{
		db:         db,
		books:      books,
		readers:    readers,
		loanPeriod: DefaultLoanPeriodDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultDueDate returns the due date used when a checkout omits one.
func (l *Ledger) DefaultDueDate(borrow entities.Date) entities.Date {
	return borrow.AddDays(l.loanPeriod)
}

// Checkout lends one copy of a book to a reader. Preconditions are checked
// in order: book exists, reader exists, due date after borrow date, stock
// available. A pinned BorrowID that is already taken fails first with
// ErrDuplicateKey. On any failure nothing is written.
func (l *Ledger) Checkout(ctx context.Context, req CheckoutRequest) (*entities.Loan, error) {
	if req.BorrowDate.IsZero() {
		req.BorrowDate = entities.DateOf(l.now())
	}
	if req.DueDate.IsZero() {
		req.DueDate = l.DefaultDueDate(req.BorrowDate)
	}

	var loan entities.Loan
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.BorrowID > 0 {
			var existing int64
			if err := tx.Model(&entities.Loan{}).Where("borrow_id = ?", req.BorrowID).Count(&existing).Error; err != nil {
				return database.StorageError("find loan", err)
			}
			if existing > 0 {
				return fmt.Errorf("loan %d: %w", req.BorrowID, entities.ErrDuplicateKey)
			}
		}

		book, err := l.books.FindBook(tx, req.BookID)
		if err != nil {
			return err
		}
		if _, err := l.readers.FindReader(tx, req.ReaderID); err != nil {
			return err
		}
		if !req.DueDate.After(req.BorrowDate) {
			return fmt.Errorf("borrow %s, due %s: %w", req.BorrowDate, req.DueDate, entities.ErrInvalidDateRange)
		}
		if book.Stock <= 0 {
			return fmt.Errorf("book %d: %w", book.ID, entities.ErrOutOfStock)
		}

		loan = entities.Loan{
			ID:         req.BorrowID,
			BookID:     req.BookID,
			ReaderID:   req.ReaderID,
			BorrowDate: req.BorrowDate,
			DueDate:    req.DueDate,
		}
		if err := tx.Create(&loan).Error; err != nil {
			return database.StorageError("insert loan", err)
		}

		if err := l.books.AdjustStock(tx, req.BookID, -1); err != nil {
			if errors.Is(err, entities.ErrInvariantViolation) {
				return fmt.Errorf("book %d: %w", req.BookID, entities.ErrOutOfStock)
			}
			return err
		}
		return nil
	})

	if err != nil {
		err = finish("checkout", err)
		l.record(func(r Recorder) { r.LogCheckout(req.BookID, req.ReaderID, nil, err) })
		return nil, err
	}

	log.Printf("[LEDGER] Loan %d: book %d lent to reader %d until %s", loan.ID, loan.BookID, loan.ReaderID, loan.DueDate)
	l.record(func(r Recorder) { r.LogCheckout(req.BookID, req.ReaderID, &loan, nil) })
	return &loan, nil
}

// CheckIn closes an active loan and returns the copy to stock. The return
// date may not precede the borrow date. The return date and the stock
// increment commit together or not at all.
func (l *Ledger) CheckIn(ctx context.Context, borrowID entities.ID, returnDate entities.Date) (*entities.Loan, error) {
	if returnDate.IsZero() {
		returnDate = entities.DateOf(l.now())
	}

	var loan entities.Loan
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("borrow_id = ? AND return_date IS NULL", borrowID).First(&loan).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("loan %d: %w", borrowID, entities.ErrLoanNotFoundOrClosed)
		}
		if err != nil {
			return database.StorageError("find loan", err)
		}

		if returnDate.Before(loan.BorrowDate) {
			return fmt.Errorf("borrow %s, return %s: %w", loan.BorrowDate, returnDate, entities.ErrInvalidDateRange)
		}

		result := tx.Model(&entities.Loan{}).
			Where("borrow_id = ? AND return_date IS NULL", borrowID).
			Update("return_date", returnDate)
		if result.Error != nil {
			return database.StorageError("close loan", result.Error)
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("loan %d closed concurrently: %w", borrowID, entities.ErrInvariantViolation)
		}

		if err := l.books.AdjustStock(tx, loan.BookID, 1); err != nil {
			if errors.Is(err, entities.ErrBookNotFound) {
				return fmt.Errorf("loan %d references missing book %d: %w", borrowID, loan.BookID, entities.ErrInvariantViolation)
			}
			return err
		}

		loan.ReturnDate = &returnDate
		return nil
	})

	if err != nil {
		err = finish("checkin", err)
		l.record(func(r Recorder) { r.LogCheckIn(borrowID, nil, err) })
		return nil, err
	}

	log.Printf("[LEDGER] Loan %d: book %d returned on %s", loan.ID, loan.BookID, returnDate)
	l.record(func(r Recorder) { r.LogCheckIn(borrowID, &loan, nil) })
	return &loan, nil
}

// GetLoan retrieves a loan by ID regardless of its state.
func (l *Ledger) GetLoan(ctx context.Context, borrowID entities.ID) (*entities.Loan, error) {
	var loan entities.Loan
	err := l.db.WithContext(ctx).Where("borrow_id = ?", borrowID).First(&loan).Error
	if err != nil {
		return nil, database.Classify("get loan", err, fmt.Errorf("loan %d: %w", borrowID, entities.ErrNotFound))
	}
	return &loan, nil
}

// GetActiveLoans returns unreturned loans in insertion order.
func (l *Ledger) GetActiveLoans(ctx context.Context) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := l.db.WithContext(ctx).
		Where("return_date IS NULL").
		Order("borrow_id ASC").
		Find(&loans).Error
	if err != nil {
		return nil, database.StorageError("list active loans", err)
	}
	return loans, nil
}

// GetAllLoans returns every loan in insertion order.
func (l *Ledger) GetAllLoans(ctx context.Context) ([]entities.Loan, error) {
	var loans []entities.Loan
	if err := l.db.WithContext(ctx).Order("borrow_id ASC").Find(&loans).Error; err != nil {
		return nil, database.StorageError("list loans", err)
	}
	return loans, nil
}

func (l *Ledger) record(fn func(Recorder)) {
	if l.recorder != nil {
		fn(l.recorder)
	}
}

// finish classifies and logs a failed mutation. Errors raised by gorm itself
// (begin, commit) are reported as storage failures.
func finish(op string, err error) error {
	if entities.IsDomainError(err) {
		log.Printf("[LEDGER] %s rejected: %v", op, err)
		return err
	}
	err = database.StorageError(op, err)
	log.Printf("[LEDGER] %s failed, transaction rolled back: %v", op, err)
	return err
}
