package shared

// Asynq task types handled by the worker process.
const (
	TypeRefreshCatalogSnapshot = "catalog:refresh_snapshot"
	TypeCleanupIdempotency     = "idempotency:cleanup_expired"
	TypeExportStockReport      = "report:export_stock"
	TypeLowStockAlert          = "report:low_stock_alert"
)

// Worker queue names, in descending priority.
const (
	QueueCatalog = "high"
	QueueDefault = "default"
	QueueReports = "low"
)

// ExportStockReportPayload asks the worker to build the stock workbook and
// post the download link to the given chats. Empty means log-only.
type ExportStockReportPayload struct {
	ChatIDs []int64 `json:"chat_ids,omitempty"`
}

// LowStockAlertPayload asks the worker to check reorder thresholds and
// notify the given chats.
type LowStockAlertPayload struct {
	ChatIDs []int64 `json:"chat_ids,omitempty"`
}
