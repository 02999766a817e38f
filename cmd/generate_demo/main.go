// Command generate_demo creates a demo library with a small public domain
// catalog, a few readers and a loan history that includes overdue loans.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mrlokans/circulation/internal/database"
	"github.com/mrlokans/circulation/internal/database/catalog"
	"github.com/mrlokans/circulation/internal/database/members"
	"github.com/mrlokans/circulation/internal/entities"
	"github.com/mrlokans/circulation/internal/ledger"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath, database.WithLogLevel("silent"))
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	books := catalog.NewRepository(db.DB)
	readers := members.NewRepository(db.DB)

	for _, book := range publicDomainBooks() {
		if err := books.CreateBook(ctx, &book); err != nil {
			log.Printf("Failed to save book %s: %v", book.Title, err)
			continue
		}
		log.Printf("Saved: %s by %s (%d copies)", book.Title, book.Author, book.Stock)
	}

	for _, reader := range demoReaders() {
		if err := readers.CreateReader(ctx, &reader); err != nil {
			log.Printf("Failed to save reader %s: %v", reader.Name, err)
		}
	}

	// Loans go through the ledger so stock matches the loans still out.
	l := ledger.New(db.DB, books, readers)
	today := entities.Today()
	for _, h := range loanHistory(today) {
		loan, err := l.Checkout(ctx, ledger.CheckoutRequest{
			BookID:     h.bookID,
			ReaderID:   h.readerID,
			BorrowDate: h.borrowed,
			DueDate:    h.borrowed.AddDays(h.days),
		})
		if err != nil {
			log.Printf("Failed to lend book %d to reader %d: %v", h.bookID, h.readerID, err)
			continue
		}
		if h.returnedAfter > 0 {
			if _, err := l.CheckIn(ctx, loan.ID, h.borrowed.AddDays(h.returnedAfter)); err != nil {
				log.Printf("Failed to return loan %d: %v", loan.ID, err)
			}
		}
	}

	log.Println("Demo database generated successfully!")
}

func publicDomainBooks() []entities.Book {
	return []entities.Book{
		{ID: 1, Title: "Meditations", Author: "Marcus Aurelius", Category: "Philosophy", Stock: 3},
		{ID: 2, Title: "Letters from a Stoic", Author: "Seneca", Category: "Philosophy", Stock: 2},
		{ID: 3, Title: "Pride and Prejudice", Author: "Jane Austen", Category: "Fiction", Stock: 4},
		{ID: 4, Title: "Moby-Dick", Author: "Herman Melville", Category: "Fiction", Stock: 1},
		{ID: 5, Title: "On the Origin of Species", Author: "Charles Darwin", Category: "Science", Stock: 2},
		{ID: 6, Title: "The Art of War", Author: "Sun Tzu", Category: "Strategy", Stock: 1},
	}
}

func demoReaders() []entities.Reader {
	return []entities.Reader{
		{ID: 1, Name: "Ada Lovelace", Phone: "555-0101", Gender: "F"},
		{ID: 2, Name: "Alan Turing", Phone: "555-0102", Gender: "M"},
		{ID: 3, Name: "Grace Hopper", Phone: "555-0103", Gender: "F"},
		{ID: 4, Name: "Sam Rivers", Phone: "555-0104"},
	}
}

type demoLoan struct {
	bookID        entities.ID
	readerID      entities.ID
	borrowed      entities.Date
	days          int
	returnedAfter int // zero leaves the loan active
}

func loanHistory(today entities.Date) []demoLoan {
	return []demoLoan{
		{bookID: 1, readerID: 1, borrowed: today.AddDays(-60), days: 30, returnedAfter: 20},
		{bookID: 3, readerID: 2, borrowed: today.AddDays(-45), days: 30, returnedAfter: 40},
		{bookID: 4, readerID: 3, borrowed: today.AddDays(-40), days: 14},
		{bookID: 2, readerID: 1, borrowed: today.AddDays(-35), days: 21},
		{bookID: 5, readerID: 4, borrowed: today.AddDays(-10), days: 30},
		{bookID: 1, readerID: 2, borrowed: today.AddDays(-3), days: 14},
	}
}
