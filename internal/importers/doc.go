// Package importers loads CSV exports of the catalog, the member list and the
// loan history back into the library.
//
// # Architecture
//
// The import pipeline follows a simple flow:
//
//	CSV → Parse*CSV → records → Pipeline → Catalog/Member stores or Ledger
//
// Every row goes through the same create operation an interactive caller
// would use, one row at a time. There is no bulk insert path, so the stores'
// validation and the ledger's stock rules apply unchanged.
//
// # CSV Layout
//
// The first line is a header. Columns are matched by name, case-insensitive,
// with a few accepted spellings (book_name for title, sex for gender). A file
// whose header matches nothing is read positionally:
//
//	books:   book_id, title, author, category, stock
//	readers: reader_id, name, phone[, gender]
//	loans:   borrow_id, book_id, reader_id, borrow_date, due_date, return_date
//
// Loans are replayed: each row becomes a Checkout, followed by a CheckIn when
// return_date is set. Stock therefore ends up reduced by the loans that are
// still out. Loans keep their borrow_id; a row whose id is already in the
// ledger is skipped, so a history can be imported twice without lending the
// same copy again.
//
// # Example Usage
//
//	pipeline := importers.NewPipeline(catalogRepo, membersRepo, ledger,
//		importers.WithTransferRecorder(auditService))
//
//	result, err := pipeline.Import(ctx, importers.TableBooks, file)
//	// result.Imported, result.Skipped (duplicate ids), result.Failed, result.Errors
package importers
