// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers declare the narrow interface they need next to the code that
// uses it; concrete types live in the storage, ledger and service packages.
// checks.go pins every pairing at compile time.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - CatalogStore, MemberStore: CRUD for books and readers (internal/http/stores.go)
//   - BookStore, ReaderStore: lookups and stock changes inside ledger transactions (internal/ledger/ledger.go)
//   - BookCreator, ReaderCreator: row-at-a-time inserts for imports (internal/importers/pipeline.go)
//   - BookLister, ReaderLister, LoanLister: whole-table reads for exports (internal/exporters/csv.go)
//
// ## Circulation Interfaces
//
//   - LoanService: checkout, check-in and loan lookups (internal/http/stores.go)
//   - Lender: loan replay during imports (internal/importers/pipeline.go)
//   - OverdueLister: the overdue projection (internal/http/stores.go, internal/tasks/overdue_report.go)
//
// ## Audit Interfaces
//
//   - Recorder: checkout and check-in outcomes (internal/ledger/ledger.go)
//   - TransferRecorder: import and export summaries (internal/importers/pipeline.go)
//   - DeleteRecorder, AuditReader: deletes and trail queries (internal/http/stores.go)
//   - OverdueReportRecorder, SnapshotSaver: report runs (internal/tasks/overdue_report.go)
//
// ## Background Work Interfaces
//
//   - TaskQueue, TaskEnqueuer: the backlite task client (internal/http/tasks.go, internal/scheduler)
//   - ReportRunner: inline overdue reports when no queue is configured (internal/scheduler)
//
// # Adding a New Transfer Table
//
//  1. Describe its columns in internal/importers/rows.go and add a Parse*CSV
//     function returning records plus per-row messages.
//
//  2. Extend Pipeline.Import and CSVExporter.Export with the new Table.
//
//  3. Add the lister or creator interface the new table needs and pin the
//     repository to it in checks.go:
//
//     var _ exporters.ShelfLister = (*shelves.Repository)(nil)
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/shelves/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Map gorm errors with database.Classify so callers see domain errors.
//
//  4. Add compile-time check:
//
//     var _ http.ShelfStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
