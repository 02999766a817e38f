package importers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/circulation/internal/entities"
)

func TestParseBooksCSV(t *testing.T) {
	t.Run("header with aliases", func(t *testing.T) {
		input := "Book ID,Book Name,Author,Category,Stock\n" +
			"1,Dune,Frank Herbert,SF,2\n" +
			"\n" +
			"2,\"Foundation, Part 1\",Isaac Asimov,SF,0\n"

		records, errs, err := ParseBooksCSV(strings.NewReader(input))
		require.NoError(t, err)
		assert.Empty(t, errs)
		require.Len(t, records, 2)

		assert.Equal(t, 2, records[0].Line)
		assert.Equal(t, entities.ID(1), records[0].Book.ID)
		assert.Equal(t, "Dune", records[0].Book.Title)
		assert.Equal(t, 2, records[0].Book.Stock)

		assert.Equal(t, 4, records[1].Line)
		assert.Equal(t, "Foundation, Part 1", records[1].Book.Title)
	})

	t.Run("reordered columns", func(t *testing.T) {
		input := "stock,title,book_id,author,category\n3,Emma,7,Jane Austen,Classic\n"

		records, _, err := ParseBooksCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, entities.ID(7), records[0].Book.ID)
		assert.Equal(t, 3, records[0].Book.Stock)
		assert.Equal(t, "Jane Austen", records[0].Book.Author)
	})

	t.Run("positional when header is unknown", func(t *testing.T) {
		input := "图书ID,书名,作者,类别,库存\n5,Walden,Thoreau,Essay,1\n"

		records, _, err := ParseBooksCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, entities.ID(5), records[0].Book.ID)
		assert.Equal(t, "Walden", records[0].Book.Title)
		assert.Equal(t, "Essay", records[0].Book.Category)
	})

	t.Run("invalid rows are reported", func(t *testing.T) {
		input := "book_id,title,author,category,stock\n" +
			"abc,Bad Id,x,y,1\n" +
			"3,Bad Stock,x,y,-2\n" +
			"4,Good,x,y,\n"

		records, errs, err := ParseBooksCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 0, records[0].Book.Stock)
		require.Len(t, errs, 2)
		assert.Contains(t, errs[0], "Line 2")
		assert.Contains(t, errs[1], "Line 3")
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := ParseBooksCSV(strings.NewReader(""))
		assert.Error(t, err)
	})
}

func TestParseReadersCSV(t *testing.T) {
	input := "reader_id,name,phone,gender\n1,Alice,555-1,female\n2,Bob,555-2,\n"

	records, errs, err := ParseReadersCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, records, 2)
	assert.Equal(t, "female", records[0].Reader.Gender)
	assert.Equal(t, entities.GenderUnknown, records[1].Reader.Gender)

	records, _, err = ParseReadersCSV(strings.NewReader("reader_id,name,phone\n3,Carol,555-3\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entities.GenderUnknown, records[0].Reader.Gender)
}

func TestParseLoansCSV(t *testing.T) {
	input := "borrow_id,book_id,reader_id,borrow_date,due_date,return_date\n" +
		"10,1,2,2024-01-01,2024-01-31,2024-01-15\n" +
		"11,1,2,2024-02-01,2024-02-28,\n" +
		"12,1,2,01/02/2024,2024-02-28,\n" +
		"13,1,2,2024-03-10,2024-03-31,2024-03-01\n" +
		"x,1,2,2024-03-10,2024-03-31,\n" +
		",1,2,2024-04-01,2024-04-30,\n"

	records, errs, err := ParseLoansCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, entities.ID(10), records[0].BorrowID)
	require.NotNil(t, records[0].ReturnDate)
	assert.Equal(t, "2024-01-15", records[0].ReturnDate.String())
	assert.Equal(t, entities.ID(11), records[1].BorrowID)
	assert.Nil(t, records[1].ReturnDate)
	assert.Equal(t, entities.ID(0), records[2].BorrowID)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "borrow_date")
	assert.Contains(t, errs[1], "Line 5")
	assert.Contains(t, errs[1], "return_date")
	assert.Contains(t, errs[2], "borrow_id")
}
