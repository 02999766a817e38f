// Package catalog provides database operations for book records and their
// stock counters.
//
// Stock is mutated through two paths only: AdjustStock, which the ledger
// calls inside its checkout and check-in transactions, and UpdateBook, which
// sets an administrative stock level under the same write lock.
//
// # Interface Implementation
//
//	var _ ledger.BookStore = (*Repository)(nil)
//	var _ http.CatalogStore = (*Repository)(nil)
//
// # Usage
//
//	repo := catalog.NewRepository(db.DB)
//	err := repo.CreateBook(ctx, &entities.Book{ID: 1, Title: "Dune", Stock: 2})
package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/circulation/internal/database"
	"github.com/mrlokans/circulation/internal/entities"
)

// SearchField selects the column matched by SearchBooks.
type SearchField string

const (
	SearchAll      SearchField = "all"
	SearchTitle    SearchField = "title"
	SearchAuthor   SearchField = "author"
	SearchCategory SearchField = "category"
)

// ParseSearchField falls back to SearchAll for unknown input.
func ParseSearchField(s string) SearchField {
	switch f := SearchField(strings.ToLower(strings.TrimSpace(s))); f {
	case SearchTitle, SearchAuthor, SearchCategory:
		return f
	default:
		return SearchAll
	}
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook inserts a new book. The id is assigned by the caller.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book) error {
	if err := validateBook(book); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Book{}).Where("book_id = ?", book.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("book %d: %w", book.ID, entities.ErrDuplicateKey)
		}
		return tx.Create(book).Error
	})
	return database.Classify("create book", err, entities.ErrBookNotFound)
}

// UpdateBook overwrites title, author, category and stock of an existing book.
func (r *Repository) UpdateBook(ctx context.Context, book *entities.Book) error {
	if err := validateBook(book); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Book{}).
			Where("book_id = ?", book.ID).
			Select("title", "author", "category", "stock").
			Updates(map[string]any{
				"title":    book.Title,
				"author":   book.Author,
				"category": book.Category,
				"stock":    book.Stock,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("book %d: %w", book.ID, entities.ErrBookNotFound)
		}
		return nil
	})
	return database.Classify("update book", err, entities.ErrBookNotFound)
}

// DeleteBook removes a book. With DeleteRejectIfReferenced the call fails
// with ErrInvariantViolation while any active loan references the book.
func (r *Repository) DeleteBook(ctx context.Context, id entities.ID, policy entities.DeletePolicy) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Where("book_id = ?", id).First(&book).Error; err != nil {
			return err
		}

		if policy != entities.DeleteForce {
			active, err := countActiveLoans(tx, id)
			if err != nil {
				return err
			}
			if active > 0 {
				return fmt.Errorf("book %d has %d active loans: %w", id, active, entities.ErrInvariantViolation)
			}
		}

		return tx.Where("book_id = ?", id).Delete(&entities.Book{}).Error
	})
	return database.Classify("delete book", err, fmt.Errorf("book %d: %w", id, entities.ErrBookNotFound))
}

// GetBook retrieves a book by ID.
func (r *Repository) GetBook(ctx context.Context, id entities.ID) (*entities.Book, error) {
	return r.FindBook(r.db.WithContext(ctx), id)
}

// FindBook reads a book through the given handle, which may be a transaction.
func (r *Repository) FindBook(db *gorm.DB, id entities.ID) (*entities.Book, error) {
	var book entities.Book
	err := db.Where("book_id = ?", id).First(&book).Error
	if err != nil {
		return nil, database.Classify("get book", err, fmt.Errorf("book %d: %w", id, entities.ErrBookNotFound))
	}
	return &book, nil
}

// ListBooks returns every book ordered by id.
func (r *Repository) ListBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	if err := r.db.WithContext(ctx).Order("book_id ASC").Find(&books).Error; err != nil {
		return nil, database.StorageError("list books", err)
	}
	return books, nil
}

// SearchBooks matches keyword case-insensitively against the chosen field.
// With SearchAll a numeric keyword also matches the book id exactly.
func (r *Repository) SearchBooks(ctx context.Context, keyword string, field SearchField) ([]entities.Book, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return r.ListBooks(ctx)
	}

	pattern := "%" + strings.ToLower(keyword) + "%"
	query := r.db.WithContext(ctx).Model(&entities.Book{})

	switch field {
	case SearchTitle:
		query = query.Where("LOWER(title) LIKE ?", pattern)
	case SearchAuthor:
		query = query.Where("LOWER(author) LIKE ?", pattern)
	case SearchCategory:
		query = query.Where("LOWER(category) LIKE ?", pattern)
	default:
		cond := r.db.Where("LOWER(title) LIKE ?", pattern).
			Or("LOWER(author) LIKE ?", pattern).
			Or("LOWER(category) LIKE ?", pattern)
		if id, err := entities.ParseID(keyword); err == nil {
			cond = cond.Or("book_id = ?", id)
		}
		query = query.Where(cond)
	}

	var books []entities.Book
	if err := query.Order("book_id ASC").Find(&books).Error; err != nil {
		return nil, database.StorageError("search books", err)
	}
	return books, nil
}

// CountActiveLoans returns the number of unreturned loans referencing the book.
func (r *Repository) CountActiveLoans(ctx context.Context, id entities.ID) (int64, error) {
	count, err := countActiveLoans(r.db.WithContext(ctx), id)
	if err != nil {
		return 0, database.StorageError("count active loans", err)
	}
	return count, nil
}

// AdjustStock adds delta to the book's stock. It must run on a transaction
// handle; the change is applied only if the result stays non-negative.
func (r *Repository) AdjustStock(tx *gorm.DB, id entities.ID, delta int) error {
	if _, ok := tx.Statement.ConnPool.(gorm.TxCommitter); !ok {
		return fmt.Errorf("adjust stock of book %d outside a transaction: %w", id, entities.ErrInvariantViolation)
	}

	result := tx.Model(&entities.Book{}).
		Where("book_id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return database.StorageError("adjust stock", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := tx.Model(&entities.Book{}).Where("book_id = ?", id).Count(&count).Error; err != nil {
		return database.StorageError("adjust stock", err)
	}
	if count == 0 {
		return fmt.Errorf("book %d: %w", id, entities.ErrBookNotFound)
	}
	return fmt.Errorf("stock of book %d cannot change by %d: %w", id, delta, entities.ErrInvariantViolation)
}

func countActiveLoans(db *gorm.DB, id entities.ID) (int64, error) {
	var count int64
	err := db.Model(&entities.Loan{}).
		Where("book_id = ? AND return_date IS NULL", id).
		Count(&count).Error
	return count, err
}

func validateBook(book *entities.Book) error {
	if book.ID <= 0 {
		return fmt.Errorf("book id %d: %w", book.ID, entities.ErrInvalidID)
	}
	if book.Stock < 0 {
		return fmt.Errorf("book %d stock %d: %w", book.ID, book.Stock, entities.ErrInvariantViolation)
	}
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
	book.Category = strings.TrimSpace(book.Category)
	return nil
}
