package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/circulation/internal/audit"
	"github.com/mrlokans/circulation/internal/database"
	auditrepo "github.com/mrlokans/circulation/internal/database/audit"
	"github.com/mrlokans/circulation/internal/database/catalog"
	"github.com/mrlokans/circulation/internal/database/members"
	"github.com/mrlokans/circulation/internal/exporters"
	"github.com/mrlokans/circulation/internal/importers"
	"github.com/mrlokans/circulation/internal/ledger"
	"github.com/mrlokans/circulation/internal/overdue"
)

// library is the set of services a one-shot command works against. It owns
// the database handle; Close flushes pending audit writes before releasing it.
type library struct {
	db       *database.Database
	catalog  *catalog.Repository
	members  *members.Repository
	audit    *audit.Service
	ledger   *ledger.Ledger
	overdue  *overdue.Query
	importer *importers.Pipeline
	exporter *exporters.CSVExporter
}

func openLibrary(dbPath string, loanPeriodDays int) (*library, error) {
	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath, database.WithLogLevel("silent"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sqlDB, err := db.SQL()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to access database pool: %w", err)
	}

	lib := &library{
		db:      db,
		catalog: catalog.NewRepository(db.DB),
		members: members.NewRepository(db.DB),
		audit:   audit.NewService(auditrepo.NewRepository(db.DB)),
		overdue: overdue.NewQuery(sqlDB),
	}
	lib.ledger = ledger.New(db.DB, lib.catalog, lib.members,
		ledger.WithRecorder(lib.audit),
		ledger.WithLoanPeriod(loanPeriodDays),
	)
	lib.importer = importers.NewPipeline(lib.catalog, lib.members, lib.ledger,
		importers.WithTransferRecorder(lib.audit),
	)
	lib.exporter = exporters.NewCSVExporter(lib.catalog, lib.members, lib.ledger, lib.audit)
	return lib, nil
}

func (l *library) Close() error {
	l.audit.Wait()
	return l.db.Close()
}

func outputOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
