package main

import (
	"github.com/hibiken/asynq"

	catalogJob "sitestock-backend/internal/domains/catalog/job"
	reportJob "sitestock-backend/internal/domains/report/job"
	"sitestock-backend/internal/shared"
	"sitestock-backend/internal/shared/idempotency"
	"sitestock-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	refreshSnapshot *catalogJob.RefreshSnapshotHandler
	cleanupIdem     *idempotency.CleanupHandler
	exportReport    *reportJob.ExportStockReportHandler
	lowStockAlert   *reportJob.LowStockAlertHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		refreshSnapshot: catalogJob.NewRefreshSnapshotHandler(c.Snapshot),
		cleanupIdem:     idempotency.NewCleanupHandler(c.IdemStore),
		exportReport:    reportJob.NewExportStockReportHandler(c.ReportService, c.Telegram),
		lowStockAlert:   reportJob.NewLowStockAlertHandler(c.ReportService, c.Telegram),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeRefreshCatalogSnapshot, h.refreshSnapshot.ProcessTask)
	mux.HandleFunc(shared.TypeCleanupIdempotency, h.cleanupIdem.ProcessTask)
	mux.HandleFunc(shared.TypeExportStockReport, h.exportReport.ProcessTask)
	mux.HandleFunc(shared.TypeLowStockAlert, h.lowStockAlert.ProcessTask)
}
