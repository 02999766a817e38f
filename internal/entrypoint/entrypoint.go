package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/circulation/internal/audit"
	"github.com/mrlokans/circulation/internal/config"
	"github.com/mrlokans/circulation/internal/database"
	auditrepo "github.com/mrlokans/circulation/internal/database/audit"
	"github.com/mrlokans/circulation/internal/database/catalog"
	"github.com/mrlokans/circulation/internal/database/members"
	"github.com/mrlokans/circulation/internal/exporters"
	http_controllers "github.com/mrlokans/circulation/internal/http"
	"github.com/mrlokans/circulation/internal/importers"
	"github.com/mrlokans/circulation/internal/ledger"
	"github.com/mrlokans/circulation/internal/overdue"
	"github.com/mrlokans/circulation/internal/scheduler"
	"github.com/mrlokans/circulation/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT. SIGKILL cannot be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the server stops accepting requests.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Circulation v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path,
		database.WithLogLevel(cfg.Database.LogLevel),
		database.WithBusyTimeout(cfg.Database.BusyTimeout),
	)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	sqlDB, err := db.SQL()
	if err != nil {
		log.Fatalf("Failed to access database pool: %v", err)
	}

	catalogRepo := catalog.NewRepository(db.DB)
	membersRepo := members.NewRepository(db.DB)

	// Audit events are written asynchronously; flush them before the
	// database handle closes.
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	defer auditService.Wait()

	loanLedger := ledger.New(db.DB, catalogRepo, membersRepo,
		ledger.WithRecorder(auditService),
		ledger.WithLoanPeriod(cfg.Circulation.LoanPeriodDays),
	)
	overdueQuery := overdue.NewQuery(sqlDB)

	importer := importers.NewPipeline(catalogRepo, membersRepo, loanLedger,
		importers.WithTransferRecorder(auditService),
	)
	exporter := exporters.NewCSVExporter(catalogRepo, membersRepo, loanLedger, auditService)

	// Overdue report snapshots are written as JSON files under the audit dir.
	auditor := audit.NewAuditor(cfg.Audit.Dir)
	reporter := tasks.NewOverdueReporter(overdueQuery, auditor, auditService)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewOverdueReportQueue(reporter),
			tasks.NewCleanupAuditEventsQueue(auditService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if _, err := taskClient.Enqueue(tasks.CleanupAuditEventsTask{
			RetentionDays:       cfg.Audit.RetentionDays,
			FailedRetentionDays: cfg.Audit.FailedRetentionDays,
		}); err != nil {
			log.Printf("WARNING: Failed to enqueue audit cleanup: %v", err)
		}
	}

	// The scheduler hands runs to the task queue when there is one and runs
	// them inline otherwise.
	var enqueuer scheduler.TaskEnqueuer
	if taskClient != nil {
		enqueuer = taskClient
	}
	overdueScheduler := scheduler.NewOverdueReportScheduler(cfg.OverdueReport, reporter, enqueuer)
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if err := overdueScheduler.Start(schedCtx); err != nil {
		log.Printf("WARNING: Overdue report scheduler disabled: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Catalog:                  catalogRepo,
		Members:                  membersRepo,
		Ledger:                   loanLedger,
		Overdue:                  overdueQuery,
		Importer:                 importer,
		Exporter:                 exporter,
		Database:                 db,
		Scheduler:                overdueScheduler,
		AuditRecorder:            auditService,
		AuditReader:              auditService,
		AuditRetentionDays:       cfg.Audit.RetentionDays,
		AuditFailedRetentionDays: cfg.Audit.FailedRetentionDays,
		DeletePolicy:             cfg.Circulation.DeletePolicy,
		Version:                  version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		overdueScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
