// Package overdue is a read-only projection over loans, books and readers
// listing loans that are still out past their due date.
//
// Books and readers are left-joined so that loans whose book or reader was
// force-deleted still appear, with empty summaries.
package overdue

import (
	"context"
	"database/sql"
	"errors"
	"iter"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/mrlokans/circulation/internal/database"
	"github.com/mrlokans/circulation/internal/entities"
)

const (
	dialectSQLite = "sqlite3"

	tableLoans   = "loans"
	tableBooks   = "books"
	tableReaders = "readers"

	aliasLoan   = "l"
	aliasBook   = "b"
	aliasReader = "r"
)

// ErrReferenceDateRequired is returned when no as-of date is given.
var ErrReferenceDateRequired = errors.New("overdue reference date is required")

// Entry is one overdue loan with the summaries needed to chase it.
type Entry struct {
	Loan        entities.Loan          `json:"loan"`
	Book        entities.BookSummary   `json:"book"`
	Reader      entities.ReaderSummary `json:"reader"`
	DaysOverdue int                    `json:"days_overdue"`
}

type row struct {
	BorrowID   entities.ID    `db:"borrow_id"`
	BookID     entities.ID    `db:"book_id"`
	ReaderID   entities.ID    `db:"reader_id"`
	BorrowDate entities.Date  `db:"borrow_date"`
	DueDate    entities.Date  `db:"due_date"`
	Title      sql.NullString `db:"title"`
	Author     sql.NullString `db:"author"`
	ReaderName sql.NullString `db:"reader_name"`
	Phone      sql.NullString `db:"phone"`
}

func (r row) entry(asOf entities.Date) Entry {
	return Entry{
		Loan: entities.Loan{
			ID:         r.BorrowID,
			BookID:     r.BookID,
			ReaderID:   r.ReaderID,
			BorrowDate: r.BorrowDate,
			DueDate:    r.DueDate,
		},
		Book: entities.BookSummary{
			ID:     r.BookID,
			Title:  r.Title.String,
			Author: r.Author.String,
		},
		Reader: entities.ReaderSummary{
			ID:    r.ReaderID,
			Name:  r.ReaderName.String,
			Phone: r.Phone.String,
		},
		DaysOverdue: r.DueDate.DaysUntil(asOf),
	}
}

type Query struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewQuery wraps the pool owned by the storage handle. It never writes.
func NewQuery(sqlDB *sql.DB) *Query {
	return &Query{
		db:      sqlx.NewDb(sqlDB, dialectSQLite),
		dialect: goqu.Dialect(dialectSQLite),
	}
}

// ListOverdue yields active loans with due_date strictly before asOf,
// oldest due date first. Every range over the returned sequence runs a fresh
// query, so it can be consumed any number of times. Iteration stops after
// the first error.
func (q *Query) ListOverdue(ctx context.Context, asOf entities.Date) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if asOf.IsZero() {
			yield(Entry{}, ErrReferenceDateRequired)
			return
		}

		query, args, err := q.selectOverdue(asOf).ToSQL()
		if err != nil {
			yield(Entry{}, database.StorageError("build overdue query", err))
			return
		}

		rows, err := q.db.QueryxContext(ctx, query, args...)
		if err != nil {
			yield(Entry{}, database.StorageError("query overdue loans", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var r row
			if err := rows.StructScan(&r); err != nil {
				yield(Entry{}, database.StorageError("scan overdue loan", err))
				return
			}
			if !yield(r.entry(asOf), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Entry{}, database.StorageError("iterate overdue loans", err))
		}
	}
}

// Count returns how many loans ListOverdue would yield.
func (q *Query) Count(ctx context.Context, asOf entities.Date) (int, error) {
	if asOf.IsZero() {
		return 0, ErrReferenceDateRequired
	}
	query, args, err := q.dialect.
		From(goqu.T(tableLoans)).
		Prepared(true).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C("return_date").IsNull(),
			goqu.C("due_date").Lt(asOf.String()),
		).
		ToSQL()
	if err != nil {
		return 0, database.StorageError("build overdue count", err)
	}

	var count int
	if err := q.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, database.StorageError("count overdue loans", err)
	}
	return count, nil
}

func (q *Query) selectOverdue(asOf entities.Date) *goqu.SelectDataset {
	loan := func(col string) exp.IdentifierExpression { return goqu.T(aliasLoan).Col(col) }

	return q.dialect.
		From(goqu.T(tableLoans).As(aliasLoan)).
		Prepared(true).
		Select(
			loan("borrow_id"),
			loan("book_id"),
			loan("reader_id"),
			loan("borrow_date"),
			loan("due_date"),
			goqu.T(aliasBook).Col("title"),
			goqu.T(aliasBook).Col("author"),
			goqu.T(aliasReader).Col("name").As("reader_name"),
			goqu.T(aliasReader).Col("phone"),
		).
		LeftJoin(
			goqu.T(tableBooks).As(aliasBook),
			goqu.On(goqu.T(aliasBook).Col("book_id").Eq(loan("book_id"))),
		).
		LeftJoin(
			goqu.T(tableReaders).As(aliasReader),
			goqu.On(goqu.T(aliasReader).Col("reader_id").Eq(loan("reader_id"))),
		).
		Where(
			loan("return_date").IsNull(),
			loan("due_date").Lt(asOf.String()),
		).
		Order(loan("due_date").Asc(), loan("borrow_id").Asc())
}

// Collect drains a sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[Entry, error]) ([]Entry, error) {
	var entries []Entry
	for entry, err := range seq {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
