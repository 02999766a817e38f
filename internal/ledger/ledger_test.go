package ledger

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/circulation/internal/database"
	"github.com/mrlokans/circulation/internal/database/catalog"
	"github.com/mrlokans/circulation/internal/database/dbtest"
	"github.com/mrlokans/circulation/internal/database/members"
	"github.com/mrlokans/circulation/internal/entities"
)

type recordedEvent struct {
	op  string
	id  entities.ID
	err error
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeRecorder) LogCheckout(bookID, _ entities.ID, _ *entities.Loan, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{op: "checkout", id: bookID, err: err})
}

func (f *fakeRecorder) LogCheckIn(borrowID entities.ID, _ *entities.Loan, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{op: "checkin", id: borrowID, err: err})
}

func setupLedger(t *testing.T, opts ...Option) (*Ledger, *database.Database) {
	db := dbtest.Open(t)
	l := New(db.DB, catalog.NewRepository(db.DB), members.NewRepository(db.DB), opts...)
	return l, db
}

func date(s string) entities.Date {
	d, err := entities.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// failBookUpdates makes every UPDATE on the books table fail.
func failBookUpdates(t *testing.T, db *database.Database) {
	t.Helper()
	err := db.DB.Callback().Update().Before("gorm:update").Register("test:fail_books", func(tx *gorm.DB) {
		if tx.Statement.Table == "books" {
			_ = tx.AddError(errors.New("disk I/O error"))
		}
	})
	require.NoError(t, err)
}

func TestLedger_Scenario(t *testing.T) {
	l, db := setupLedger(t)
	ctx := context.Background()

	dbtest.SeedBook(t, db, 1, "Dune", 2)
	dbtest.SeedBook(t, db, 2, "Neuromancer", 1)
	dbtest.SeedReader(t, db, 10, "Reader A")
	dbtest.SeedReader(t, db, 11, "Reader B")

	loan, err := l.Checkout(ctx, CheckoutRequest{BookID: 1, ReaderID: 10, BorrowDate: date("2024-01-01"), DueDate: date("2024-01-31")})
	require.NoError(t, err)
	assert.Equal(t, entities.ID(1), loan.ID)
	assert.Nil(t, loan.ReturnDate)
	assert.Equal(t, 1, dbtest.StockOf(t, db, 1))

	returned, err := l.CheckIn(ctx, loan.ID, date("2024-01-15"))
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, "2024-01-15", returned.ReturnDate.String())
	assert.Equal(t, 2, dbtest.StockOf(t, db, 1))

	second, err := l.Checkout(ctx, CheckoutRequest{BookID: 2, ReaderID: 11, BorrowDate: date("2024-01-02"), DueDate: date("2024-01-10")})
	require.NoError(t, err)
	assert.Equal(t, entities.ID(2), second.ID)

	active, err := l.GetActiveLoans(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	all, err := l.GetAllLoans(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, entities.ID(1), all[0].ID)
	assert.Equal(t, entities.ID(2), all[1].ID)
}

func TestLedger_CheckoutPreconditionOrder(t *testing.T) {
	l, db := setupLedger(t)
	ctx := context.Background()

	dbtest.SeedBook(t, db, 1, "Dune", 0)
	dbtest.SeedReader(t, db, 1, "Alice")

	tests := []struct {
		name    string
		req     CheckoutRequest
		wantErr error
	}{
		{
			name:    "missing book wins over everything",
			req:     CheckoutRequest{BookID: 9, ReaderID: 9, BorrowDate: date("2024-01-10"), DueDate: date("2024-01-01")},
			wantErr: entities.ErrBookNotFound,
		},
		{
			name:    "missing reader wins over dates",
			req:     CheckoutRequest{BookID: 1, ReaderID: 9, BorrowDate: date("2024-01-10"), DueDate: date("2024-01-01")},
			wantErr: entities.ErrReaderNotFound,
		},
		{
			name:    "equal dates are rejected before stock",
			req:     CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-01-10"), DueDate: date("2024-01-10")},
			wantErr: entities.ErrInvalidDateRange,
		},
		{
			name:    "out of stock",
			req:     CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-01-01"), DueDate: date("2024-01-10")},
			wantErr: entities.ErrOutOfStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan, err := l.Checkout(ctx, tt.req)
			assert.Nil(t, loan)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, entities.ErrStorageFailure)
			assert.Equal(t, int64(0), dbtest.CountLoans(t, db))
			assert.Equal(t, 0, dbtest.StockOf(t, db, 1))
		})
	}
}

func TestLedger_NotFoundRefinements(t *testing.T) {
	l, _ := setupLedger(t)
	ctx := context.Background()

	_, err := l.Checkout(ctx, CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-01-01"), DueDate: date("2024-01-02")})
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = l.CheckIn(ctx, 1, date("2024-01-02"))
	assert.ErrorIs(t, err, entities.ErrNotFound)
	assert.ErrorIs(t, err, entities.ErrLoanNotFoundOrClosed)
}

func TestLedger_InvalidDateRangeHasNoSideEffects(t *testing.T) {
	l, db := setupLedger(t)
	dbtest.SeedBook(t, db, 1, "Dune", 3)
	dbtest.SeedReader(t, db, 1, "Alice")

	_, err := l.Checkout(context.Background(), CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-02-01"), DueDate: date("2024-01-01")})
	assert.ErrorIs(t, err, entities.ErrInvalidDateRange)
	assert.Equal(t, 3, dbtest.StockOf(t, db, 1))
	assert.Equal(t, int64(0), dbtest.CountLoans(t, db))
}

func TestLedger_RoundTripRestoresStock(t *testing.T) {
	l, db := setupLedger(t)
	ctx := context.Background()
	dbtest.SeedBook(t, db, 1, "Dune", 5)
	dbtest.SeedReader(t, db, 1, "Alice")

	loan, err := l.Checkout(ctx, CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-01-01"), DueDate: date("2024-01-31")})
	require.NoError(t, err)
	assert.Equal(t, 4, dbtest.StockOf(t, db, 1))

	_, err = l.CheckIn(ctx, loan.ID, date("2024-01-05"))
	require.NoError(t, err)
	assert.Equal(t, 5, dbtest.StockOf(t, db, 1))
}

func TestLedger_DoubleCheckIn(t *testing.T) {
	l, db := setupLedger(t)
	ctx := context.Background()
	dbtest.SeedBook(t, db, 1, "Dune", 1)
	dbtest.SeedReader(t, db, 1, "Alice")

	loan, err := l.Checkout(ctx, CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-01-01"), DueDate: date("2024-01-31")})
	require.NoError(t, err)

	_, err = l.CheckIn(ctx, loan.ID, date("2024-01-10"))
	require.NoError(t, err)

	_, err = l.CheckIn(ctx, loan.ID, date("2024-01-20"))
	assert.ErrorIs(t, err, entities.ErrLoanNotFoundOrClosed)

	got, err := l.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReturnDate)
	assert.Equal(t, "2024-01-10", got.ReturnDate.String())
	assert.Equal(t, 1, dbtest.StockOf(t, db, 1))
}

func TestLedger_CheckInBeforeBorrowDate(t *testing.T) {
	l, db := setupLedger(t)
	ctx := context.Background()
	dbtest.SeedBook(t, db, 1, "Dune", 1)
	dbtest.SeedReader(t, db, 1, "Alice")

	loan, err := l.Checkout(ctx, CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-03-10"), DueDate: date("2024-03-31")})
	require.NoError(t, err)

	_, err = l.CheckIn(ctx, loan.ID, date("2024-03-09"))
	assert.ErrorIs(t, err, entities.ErrInvalidDateRange)

	got, err := l.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive())
	assert.Equal(t, 0, dbtest.StockOf(t, db, 1))

	returned, err := l.CheckIn(ctx, loan.ID, date("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", returned.ReturnDate.String())
	assert.Equal(t, 1, dbtest.StockOf(t, db, 1))
}

func TestLedger_CheckoutWithPinnedBorrowID(t *testing.T) {
	l, db := setupLedger(t)
	ctx := context.Background()
	dbtest.SeedBook(t, db, 1, "Dune", 3)
	dbtest.SeedReader(t, db, 1, "Alice")

	req := CheckoutRequest{BorrowID: 42, BookID: 1, ReaderID: 1, BorrowDate: date("2024-02-01"), DueDate: date("2024-02-28")}
	loan, err := l.Checkout(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, entities.ID(42), loan.ID)
	assert.Equal(t, 2, dbtest.StockOf(t, db, 1))

	_, err = l.Checkout(ctx, req)
	assert.ErrorIs(t, err, entities.ErrDuplicateKey)
	assert.Equal(t, 2, dbtest.StockOf(t, db, 1))
	assert.Equal(t, int64(1), dbtest.CountLoans(t, db))

	// A closed loan still holds its id.
	_, err = l.CheckIn(ctx, 42, date("2024-02-10"))
	require.NoError(t, err)
	_, err = l.Checkout(ctx, req)
	assert.ErrorIs(t, err, entities.ErrDuplicateKey)
	assert.Equal(t, 3, dbtest.StockOf(t, db, 1))

	next, err := l.Checkout(ctx, CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-03-01"), DueDate: date("2024-03-31")})
	require.NoError(t, err)
	assert.Greater(t, next.ID, entities.ID(42))
}

func TestLedger_CheckoutRollsBackWhenStockUpdateFails(t *testing.T) {
	l, db := setupLedger(t)
	dbtest.SeedBook(t, db, 1, "Dune", 2)
	dbtest.SeedReader(t, db, 1, "Alice")
	failBookUpdates(t, db)

	loan, err := l.Checkout(context.Background(), CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-01-01"), DueDate: date("2024-01-31")})
	assert.Nil(t, loan)
	assert.ErrorIs(t, err, entities.ErrStorageFailure)
	assert.Equal(t, int64(0), dbtest.CountLoans(t, db))
	assert.Equal(t, 2, dbtest.StockOf(t, db, 1))
}

func TestLedger_CheckInRollsBackWhenStockUpdateFails(t *testing.T) {
	l, db := setupLedger(t)
	ctx := context.Background()
	dbtest.SeedBook(t, db, 1, "Dune", 1)
	dbtest.SeedReader(t, db, 1, "Alice")

	loan, err := l.Checkout(ctx, CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-01-01"), DueDate: date("2024-01-31")})
	require.NoError(t, err)

	failBookUpdates(t, db)

	_, err = l.CheckIn(ctx, loan.ID, date("2024-01-10"))
	assert.ErrorIs(t, err, entities.ErrStorageFailure)

	got, err := l.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive())
	assert.Equal(t, 0, dbtest.StockOf(t, db, 1))
}

func TestLedger_CheckInOfForceDeletedBook(t *testing.T) {
	l, db := setupLedger(t)
	ctx := context.Background()
	books := catalog.NewRepository(db.DB)
	dbtest.SeedBook(t, db, 1, "Dune", 1)
	dbtest.SeedReader(t, db, 1, "Alice")

	loan, err := l.Checkout(ctx, CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-01-01"), DueDate: date("2024-01-31")})
	require.NoError(t, err)
	require.NoError(t, books.DeleteBook(ctx, 1, entities.DeleteForce))

	_, err = l.CheckIn(ctx, loan.ID, date("2024-01-10"))
	assert.ErrorIs(t, err, entities.ErrInvariantViolation)

	got, err := l.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive())
}

func TestLedger_ConcurrentCheckoutOfLastCopy(t *testing.T) {
	l, db := setupLedger(t)
	dbtest.SeedBook(t, db, 1, "Dune", 1)
	dbtest.SeedReader(t, db, 1, "Alice")
	dbtest.SeedReader(t, db, 2, "Bob")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = l.Checkout(context.Background(), CheckoutRequest{
				BookID:     1,
				ReaderID:   entities.ID(i + 1),
				BorrowDate: date("2024-01-01"),
				DueDate:    date("2024-01-31"),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var succeeded, outOfStock int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, entities.ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, outOfStock)
	assert.Equal(t, 0, dbtest.StockOf(t, db, 1))
	assert.Equal(t, int64(1), dbtest.CountLoans(t, db))
}

func TestLedger_StockNeverNegative(t *testing.T) {
	l, db := setupLedger(t)
	ctx := context.Background()
	dbtest.SeedBook(t, db, 1, "Dune", 2)
	dbtest.SeedBook(t, db, 2, "Emma", 1)
	dbtest.SeedReader(t, db, 1, "Alice")

	rng := rand.New(rand.NewSource(42))
	var open []entities.ID

	for i := 0; i < 60; i++ {
		if len(open) > 0 && rng.Intn(2) == 0 {
			idx := rng.Intn(len(open))
			_, err := l.CheckIn(ctx, open[idx], date("2024-02-01"))
			require.NoError(t, err)
			open = append(open[:idx], open[idx+1:]...)
		} else {
			bookID := entities.ID(rng.Intn(2) + 1)
			loan, err := l.Checkout(ctx, CheckoutRequest{BookID: bookID, ReaderID: 1, BorrowDate: date("2024-01-01"), DueDate: date("2024-01-31")})
			if err != nil {
				require.ErrorIs(t, err, entities.ErrOutOfStock)
			} else {
				open = append(open, loan.ID)
			}
		}

		s1, s2 := dbtest.StockOf(t, db, 1), dbtest.StockOf(t, db, 2)
		require.GreaterOrEqual(t, s1, 0)
		require.GreaterOrEqual(t, s2, 0)
		require.Equal(t, 3, s1+s2+len(open))
	}
}

func TestLedger_Defaults(t *testing.T) {
	fixed := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	l, db := setupLedger(t, WithLoanPeriod(14), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()
	dbtest.SeedBook(t, db, 1, "Dune", 1)
	dbtest.SeedReader(t, db, 1, "Alice")

	assert.Equal(t, "2024-01-15", l.DefaultDueDate(date("2024-01-01")).String())

	loan, err := l.Checkout(ctx, CheckoutRequest{BookID: 1, ReaderID: 1})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", loan.BorrowDate.String())
	assert.Equal(t, "2024-05-24", loan.DueDate.String())

	returned, err := l.CheckIn(ctx, loan.ID, entities.Date{})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", returned.ReturnDate.String())
}

func TestLedger_GetLoanNotFound(t *testing.T) {
	l, _ := setupLedger(t)

	_, err := l.GetLoan(context.Background(), 404)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestLedger_RecordsOutcomes(t *testing.T) {
	rec := &fakeRecorder{}
	l, db := setupLedger(t, WithRecorder(rec))
	ctx := context.Background()
	dbtest.SeedBook(t, db, 1, "Dune", 1)
	dbtest.SeedReader(t, db, 1, "Alice")

	loan, err := l.Checkout(ctx, CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-01-01"), DueDate: date("2024-01-31")})
	require.NoError(t, err)
	_, err = l.Checkout(ctx, CheckoutRequest{BookID: 1, ReaderID: 1, BorrowDate: date("2024-01-01"), DueDate: date("2024-01-31")})
	require.Error(t, err)
	_, err = l.CheckIn(ctx, loan.ID, date("2024-01-02"))
	require.NoError(t, err)

	require.Len(t, rec.events, 3)
	assert.Equal(t, "checkout", rec.events[0].op)
	assert.NoError(t, rec.events[0].err)
	assert.ErrorIs(t, rec.events[1].err, entities.ErrOutOfStock)
	assert.Equal(t, "checkin", rec.events[2].op)
	assert.Equal(t, loan.ID, rec.events[2].id)
}
