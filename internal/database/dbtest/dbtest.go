// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrlokans/circulation/internal/database"
	"github.com/mrlokans/circulation/internal/entities"
)

// Open creates a migrated database file under t.TempDir and closes it when
// the test finishes.
func Open(t testing.TB) *database.Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "library.db")
	db, err := database.NewDatabase(dbPath, database.WithLogLevel("silent"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// SeedBook inserts a book directly, bypassing repository validation.
func SeedBook(t testing.TB, db *database.Database, id entities.ID, title string, stock int) entities.Book {
	t.Helper()

	book := entities.Book{ID: id, Title: title, Author: "Author " + id.String(), Category: "General", Stock: stock}
	require.NoError(t, db.DB.Create(&book).Error)
	return book
}

// SeedReader inserts a reader directly.
func SeedReader(t testing.TB, db *database.Database, id entities.ID, name string) entities.Reader {
	t.Helper()

	reader := entities.Reader{ID: id, Name: name, Phone: "555-" + id.String(), Gender: entities.GenderUnknown}
	require.NoError(t, db.DB.Create(&reader).Error)
	return reader
}

// StockOf reads the current stock straight from the table.
func StockOf(t testing.TB, db *database.Database, id entities.ID) int {
	t.Helper()

	var book entities.Book
	require.NoError(t, db.DB.Where("book_id = ?", id).First(&book).Error)
	return book.Stock
}

// CountLoans returns the number of loan rows.
func CountLoans(t testing.TB, db *database.Database) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.DB.Model(&entities.Loan{}).Count(&count).Error)
	return count
}
