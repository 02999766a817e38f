package http

import "github.com/mrlokans/circulation/internal/entities"

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. Optional dependencies left nil disable the
// routes that need them.
type RouterConfig struct {
	// Core dependencies
	Catalog  CatalogStore
	Members  MemberStore
	Ledger   LoanService
	Overdue  OverdueLister
	Importer Importer
	Exporter Exporter

	// Health
	Database  Pinger
	Scheduler NextRunner

	// Audit trail (optional)
	AuditRecorder DeleteRecorder
	AuditReader   AuditReader

	// Task queue client (optional)
	TaskQueue                TaskQueue
	AuditRetentionDays       int
	AuditFailedRetentionDays int

	// Policy applied to deletes that do not name one
	DeletePolicy entities.DeletePolicy

	// Application info
	Version string
}
