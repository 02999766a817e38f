package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates the JSON API router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Scheduler, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")

	if cfg.Catalog != nil {
		books := NewBooksController(cfg.Catalog, cfg.DeletePolicy, cfg.AuditRecorder)
		api.GET("/books", books.ListBooks)
		api.POST("/books", books.CreateBook)
		api.GET("/books/:id", books.GetBook)
		api.PUT("/books/:id", books.UpdateBook)
		api.DELETE("/books/:id", books.DeleteBook)
	}

	if cfg.Members != nil {
		readers := NewReadersController(cfg.Members, cfg.DeletePolicy, cfg.AuditRecorder)
		api.GET("/readers", readers.ListReaders)
		api.POST("/readers", readers.CreateReader)
		api.GET("/readers/:id", readers.GetReader)
		api.PUT("/readers/:id", readers.UpdateReader)
		api.DELETE("/readers/:id", readers.DeleteReader)
	}

	if cfg.Ledger != nil {
		loans := NewLoansController(cfg.Ledger, cfg.Overdue)
		api.GET("/loans", loans.ListLoans)
		api.POST("/loans", loans.Checkout)
		api.GET("/loans/active", loans.ListActiveLoans)
		if cfg.Overdue != nil {
			api.GET("/loans/overdue", loans.ListOverdue)
		}
		api.GET("/loans/:id", loans.GetLoan)
		api.POST("/loans/:id/return", loans.CheckIn)
	}

	if cfg.Importer != nil || cfg.Exporter != nil {
		transfer := NewTransferController(cfg.Importer, cfg.Exporter)
		if cfg.Importer != nil {
			api.POST("/import/:table", transfer.Import)
		}
		if cfg.Exporter != nil {
			api.GET("/export/:table", transfer.Export)
		}
	}

	if cfg.AuditReader != nil {
		audit := NewAuditController(cfg.AuditReader)
		api.GET("/audit", audit.GetAuditEvents)
		api.GET("/audit/types", audit.GetEventTypes)
		api.GET("/audit/runs/:correlation_id", audit.GetRun)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.AuditRetentionDays, cfg.AuditFailedRetentionDays)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
