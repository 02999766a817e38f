// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, DSN, migrations
//	├── errors.go        # gorm error to domain error mapping
//	├── catalog/         # Books and stock
//	├── members/         # Readers
//	├── audit/           # Audit trail
//	└── dbtest/          # Throwaway databases for tests
//
// Loans are owned by the ledger package, which writes them inside the same
// transaction that adjusts stock.
//
// # Transactions
//
// Connections are opened with _txlock=immediate, so every gorm Transaction
// takes the SQLite write lock at BEGIN. Writers queue on the busy timeout
// (WithBusyTimeout) rather than failing with SQLITE_BUSY mid-transaction.
// The journal runs in WAL mode so readers never block writers.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./library.db", database.WithLogLevel("warn"))
//
//	books := catalog.NewRepository(db.DB)
//	readers := members.NewRepository(db.DB)
//
//	book, err := books.GetBook(ctx, 42)
//
// # Errors
//
// Repositories never return raw gorm errors. Classify maps missing rows to
// the caller's not-found error and unique violations to
// entities.ErrDuplicateKey; anything else is wrapped with StorageError so it
// matches entities.ErrStorageFailure.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/shelves/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
