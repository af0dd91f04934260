package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"sitestock-backend/internal/config"
	"sitestock-backend/internal/shared"
	"sitestock-backend/pkg/logger"
)

// Scheduler registers the recurring jobs of the worker process.
type Scheduler struct {
	scheduler *asynq.Scheduler
	botConfig config.BotConfig
}

func NewScheduler(redisAddress string, botConfig config.BotConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		botConfig: botConfig,
	}
}

// RegisterJobs wires every cron entry. Call once before Start.
func (s *Scheduler) RegisterJobs() error {
	if err := s.registerRefreshCatalogSnapshotJob(); err != nil {
		return err
	}

	if err := s.registerCleanupIdempotencyJob(); err != nil {
		return err
	}

	if err := s.registerExportStockReportJob(); err != nil {
		return err
	}

	if err := s.registerLowStockAlertJob(); err != nil {
		return err
	}

	return nil
}

// ================================================
// JOB 1: Refresh Catalogue Snapshot (Every 5 minutes)
// ================================================
func (s *Scheduler) registerRefreshCatalogSnapshotJob() error {
	task := asynq.NewTask(shared.TypeRefreshCatalogSnapshot, nil)

	_, err := s.scheduler.Register(
		"*/5 * * * *",
		task,
		asynq.Queue(shared.QueueCatalog),
		asynq.MaxRetry(1),
		asynq.Timeout(2*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register RefreshCatalogSnapshot job", err)
		return err
	}

	logger.Info("Registered RefreshCatalogSnapshot: every 5 minutes", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 2: Cleanup Idempotency Keys (Hourly)
// ================================================
// Redis-backed deployments expire keys natively; this sweep only matters
// when the cache runs in memory.
func (s *Scheduler) registerCleanupIdempotencyJob() error {
	task := asynq.NewTask(shared.TypeCleanupIdempotency, nil)

	_, err := s.scheduler.Register(
		"0 * * * *",
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(1),
		asynq.Timeout(2*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register CleanupIdempotency job", err)
		return err
	}

	logger.Info("Registered CleanupIdempotency: hourly", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 3: Export Stock Report (Monday 6 AM)
// ================================================
// Before the week starts the site leads get a full workbook so they do not
// have to ask the bot one by one.
func (s *Scheduler) registerExportStockReportJob() error {
	payload, err := json.Marshal(shared.ExportStockReportPayload{
		ChatIDs: s.botConfig.AllowedChatIDs,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeExportStockReport, payload)

	_, err = s.scheduler.Register(
		"0 6 * * 1",
		task,
		asynq.Queue(shared.QueueReports),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register ExportStockReport job", err)
		return err
	}

	logger.Info("Registered ExportStockReport: Monday at 6 AM", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 4: Low Stock Alert (Daily at 7 AM)
// ================================================
func (s *Scheduler) registerLowStockAlertJob() error {
	payload, err := json.Marshal(shared.LowStockAlertPayload{
		ChatIDs: s.botConfig.AllowedChatIDs,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeLowStockAlert, payload)

	_, err = s.scheduler.Register(
		"0 7 * * *",
		task,
		asynq.Queue(shared.QueueReports),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register LowStockAlert job", err)
		return err
	}

	logger.Info("Registered LowStockAlert: daily at 7 AM", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
