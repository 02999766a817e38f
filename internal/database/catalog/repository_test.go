package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/circulation/internal/database"
	"github.com/mrlokans/circulation/internal/database/dbtest"
	"github.com/mrlokans/circulation/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *database.Database) {
	db := dbtest.Open(t)
	return NewRepository(db.DB), db
}

func TestRepository_CreateBook(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	book := &entities.Book{ID: 1, Title: " Dune ", Author: "Frank Herbert", Category: "SF", Stock: 2}
	require.NoError(t, repo.CreateBook(ctx, book))

	got, err := repo.GetBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, 2, got.Stock)
}

func TestRepository_CreateBook_Duplicate(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateBook(ctx, &entities.Book{ID: 1, Title: "Dune", Stock: 1}))

	err := repo.CreateBook(ctx, &entities.Book{ID: 1, Title: "Other", Stock: 5})
	assert.ErrorIs(t, err, entities.ErrDuplicateKey)

	got, err := repo.GetBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
}

func TestRepository_CreateBook_Validation(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.CreateBook(ctx, &entities.Book{ID: 0, Title: "x"}), entities.ErrInvalidID)
	assert.ErrorIs(t, repo.CreateBook(ctx, &entities.Book{ID: 2, Title: "x", Stock: -1}), entities.ErrInvariantViolation)
}

func TestRepository_UpdateBook(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateBook(ctx, &entities.Book{ID: 1, Title: "Dune", Stock: 1}))

	err := repo.UpdateBook(ctx, &entities.Book{ID: 1, Title: "Dune Messiah", Author: "Herbert", Category: "SF", Stock: 4})
	require.NoError(t, err)

	got, err := repo.GetBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Equal(t, 4, got.Stock)

	err = repo.UpdateBook(ctx, &entities.Book{ID: 99, Title: "Missing"})
	assert.ErrorIs(t, err, entities.ErrNotFound)
	assert.ErrorIs(t, err, entities.ErrBookNotFound)
}

func TestRepository_GetBook_NotFound(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.GetBook(context.Background(), 42)
	assert.ErrorIs(t, err, entities.ErrBookNotFound)
	assert.NotErrorIs(t, err, entities.ErrStorageFailure)
}

func TestRepository_DeleteBook(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	dbtest.SeedBook(t, db, 1, "Dune", 1)
	dbtest.SeedReader(t, db, 1, "Alice")
	loan := entities.Loan{
		BookID:     1,
		ReaderID:   1,
		BorrowDate: entities.NewDate(2024, 1, 1),
		DueDate:    entities.NewDate(2024, 1, 31),
	}
	require.NoError(t, db.DB.Create(&loan).Error)

	t.Run("rejects while referenced", func(t *testing.T) {
		err := repo.DeleteBook(ctx, 1, entities.DeleteRejectIfReferenced)
		assert.ErrorIs(t, err, entities.ErrInvariantViolation)

		_, err = repo.GetBook(ctx, 1)
		assert.NoError(t, err)
	})

	t.Run("force deletes", func(t *testing.T) {
		require.NoError(t, repo.DeleteBook(ctx, 1, entities.DeleteForce))

		_, err := repo.GetBook(ctx, 1)
		assert.ErrorIs(t, err, entities.ErrNotFound)
		assert.Equal(t, int64(1), dbtest.CountLoans(t, db))
	})

	t.Run("missing book", func(t *testing.T) {
		err := repo.DeleteBook(ctx, 1, entities.DeleteForce)
		assert.ErrorIs(t, err, entities.ErrBookNotFound)
	})
}

func TestRepository_DeleteBook_AfterReturn(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	dbtest.SeedBook(t, db, 1, "Dune", 1)
	returned := entities.NewDate(2024, 1, 10)
	loan := entities.Loan{
		BookID:     1,
		ReaderID:   1,
		BorrowDate: entities.NewDate(2024, 1, 1),
		DueDate:    entities.NewDate(2024, 1, 31),
		ReturnDate: &returned,
	}
	require.NoError(t, db.DB.Create(&loan).Error)

	require.NoError(t, repo.DeleteBook(ctx, 1, entities.DeleteRejectIfReferenced))
}

func TestRepository_ListAndSearchBooks(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	for _, b := range []entities.Book{
		{ID: 3, Title: "Neuromancer", Author: "William Gibson", Category: "Cyberpunk", Stock: 1},
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Category: "SF", Stock: 2},
		{ID: 12, Title: "Foundation", Author: "Isaac Asimov", Category: "SF", Stock: 0},
	} {
		book := b
		require.NoError(t, repo.CreateBook(ctx, &book))
	}

	books, err := repo.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, []entities.ID{1, 3, 12}, []entities.ID{books[0].ID, books[1].ID, books[2].ID})

	tests := []struct {
		name    string
		keyword string
		field   SearchField
		want    []entities.ID
	}{
		{"title", "dune", SearchTitle, []entities.ID{1}},
		{"author", "GIBSON", SearchAuthor, []entities.ID{3}},
		{"category", "sf", SearchCategory, []entities.ID{1, 12}},
		{"all by text", "o", SearchAll, []entities.ID{3, 12}},
		{"all by id", "12", SearchAll, []entities.ID{12}},
		{"title ignores id", "3", SearchTitle, nil},
		{"empty keyword lists all", "", SearchAll, []entities.ID{1, 3, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.SearchBooks(ctx, tt.keyword, tt.field)
			require.NoError(t, err)

			var ids []entities.ID
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRepository_AdjustStock(t *testing.T) {
	repo, db := setupTestDB(t)
	dbtest.SeedBook(t, db, 1, "Dune", 1)

	t.Run("requires a transaction", func(t *testing.T) {
		err := repo.AdjustStock(db.DB, 1, -1)
		assert.ErrorIs(t, err, entities.ErrInvariantViolation)
		assert.Equal(t, 1, dbtest.StockOf(t, db, 1))
	})

	t.Run("decrements inside a transaction", func(t *testing.T) {
		err := db.DB.Transaction(func(tx *gorm.DB) error {
			return repo.AdjustStock(tx, 1, -1)
		})
		require.NoError(t, err)
		assert.Equal(t, 0, dbtest.StockOf(t, db, 1))
	})

	t.Run("refuses to go negative", func(t *testing.T) {
		err := db.DB.Transaction(func(tx *gorm.DB) error {
			return repo.AdjustStock(tx, 1, -1)
		})
		assert.ErrorIs(t, err, entities.ErrInvariantViolation)
		assert.Equal(t, 0, dbtest.StockOf(t, db, 1))
	})

	t.Run("missing book", func(t *testing.T) {
		err := db.DB.Transaction(func(tx *gorm.DB) error {
			return repo.AdjustStock(tx, 77, 1)
		})
		assert.ErrorIs(t, err, entities.ErrBookNotFound)
	})
}

func TestParseSearchField(t *testing.T) {
	assert.Equal(t, SearchTitle, ParseSearchField(" Title "))
	assert.Equal(t, SearchCategory, ParseSearchField("category"))
	assert.Equal(t, SearchAll, ParseSearchField("isbn"))
	assert.Equal(t, SearchAll, ParseSearchField(""))
}
