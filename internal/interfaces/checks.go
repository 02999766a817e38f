package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/circulation/internal/audit"
	"github.com/mrlokans/circulation/internal/database"
	"github.com/mrlokans/circulation/internal/database/catalog"
	"github.com/mrlokans/circulation/internal/database/members"
	"github.com/mrlokans/circulation/internal/exporters"
	"github.com/mrlokans/circulation/internal/http"
	"github.com/mrlokans/circulation/internal/importers"
	"github.com/mrlokans/circulation/internal/ledger"
	"github.com/mrlokans/circulation/internal/overdue"
	"github.com/mrlokans/circulation/internal/scheduler"
	"github.com/mrlokans/circulation/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.CatalogStore = (*catalog.Repository)(nil)
var _ http.MemberStore = (*members.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)

var _ ledger.BookStore = (*catalog.Repository)(nil)
var _ ledger.ReaderStore = (*members.Repository)(nil)

// =============================================================================
// Circulation
// =============================================================================

var _ http.LoanService = (*ledger.Ledger)(nil)
var _ http.OverdueLister = (*overdue.Query)(nil)
var _ tasks.OverdueLister = (*overdue.Query)(nil)

// =============================================================================
// Bulk Transfer
// =============================================================================

var _ importers.BookCreator = (*catalog.Repository)(nil)
var _ importers.ReaderCreator = (*members.Repository)(nil)
var _ importers.Lender = (*ledger.Ledger)(nil)
var _ http.Importer = (*importers.Pipeline)(nil)

var _ exporters.BookLister = (*catalog.Repository)(nil)
var _ exporters.ReaderLister = (*members.Repository)(nil)
var _ exporters.LoanLister = (*ledger.Ledger)(nil)
var _ http.Exporter = (*exporters.CSVExporter)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ ledger.Recorder = (*audit.Service)(nil)
var _ importers.TransferRecorder = (*audit.Service)(nil)
var _ http.DeleteRecorder = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ tasks.OverdueReportRecorder = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.SnapshotSaver = (*audit.Auditor)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
var _ scheduler.ReportRunner = (*tasks.OverdueReporter)(nil)
var _ http.NextRunner = (*scheduler.OverdueReportScheduler)(nil)
