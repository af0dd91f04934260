package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sitestock-backend/internal/bot"
	"sitestock-backend/internal/config"
	infraCache "sitestock-backend/internal/infrastructure/cache"
	"sitestock-backend/internal/infrastructure/sheetdb"
	"sitestock-backend/internal/infrastructure/storage"
	"sitestock-backend/internal/infrastructure/telegram"
	"sitestock-backend/internal/shared/idempotency"
	"sitestock-backend/pkg/cache"
	"sitestock-backend/pkg/jwt"

	"sitestock-backend/internal/domains/approval"
	approvalHandler "sitestock-backend/internal/domains/approval/handler"
	catalogHandler "sitestock-backend/internal/domains/catalog/handler"
	catalogRepo "sitestock-backend/internal/domains/catalog/repository"
	catalogService "sitestock-backend/internal/domains/catalog/service"
	movementRepo "sitestock-backend/internal/domains/movement/repository"
	movementService "sitestock-backend/internal/domains/movement/service"
	"sitestock-backend/internal/domains/report"
	reportHandler "sitestock-backend/internal/domains/report/handler"
	userHandler "sitestock-backend/internal/domains/user/handler"
	userRepo "sitestock-backend/internal/domains/user/repository"
	userService "sitestock-backend/internal/domains/user/service"
)

// Container is the root of the dependency graph. Everything in it is a
// singleton built once at startup, in dependency order: config first, then
// infrastructure, repositories, services and finally the bot and handlers.
type Container struct {
	// Infrastructure
	Config     *config.Config
	Cache      cache.Cache
	DB         *pgxpool.Pool   // nil when the sheet backend is active
	Sheet      *sheetdb.Client // nil when the postgres backend is active
	JWTManager *jwt.Manager
	Telegram   telegram.Sender
	Objects    storage.ObjectStore

	// Repositories
	CatalogRepo  catalogRepo.RepositoryInterface
	MovementRepo movementRepo.RepositoryInterface
	UserRepo     userRepo.RepositoryInterface

	// Services
	Snapshot       *catalogService.SnapshotCache
	CatalogService catalogService.ServiceInterface
	UserService    userService.ServiceInterface
	Executor       *movementService.Executor
	Processor      *movementService.BatchProcessor
	Stocktakes     *movementService.StocktakeService
	Approvals      *approval.Controller
	IdemStore      *idempotency.Store
	ReportService  report.ServiceInterface

	// Entry points
	Bot             *bot.Bot
	CatalogHandler  *catalogHandler.Handler
	ApprovalHandler *approvalHandler.Handler
	AuthHandler     *userHandler.Handler
	ReportHandler   *reportHandler.Handler
}

// NewContainer builds the whole dependency graph or fails fast.
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s, Store: %s)", cfg.App.Environment, cfg.Store.Backend)

	if err := c.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}
	log.Println("✅ Infrastructure initialized")

	c.initRepositories()
	log.Println("✅ Repositories initialized")

	if err := c.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}
	log.Println("✅ Services initialized")

	c.initEntryPoints()
	log.Println("✅ Bot and handlers initialized")

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	// Cache. Redis failure is non-critical; the in-memory cache keeps the
	// bot working with per-process idempotency only.
	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		log.Printf("⚠️  Redis connection failed (non-critical), using memory cache: %v", err)
		c.Cache = infraCache.NewMemoryCache()
	} else {
		c.Cache = redisCache
		log.Println("✅ Redis connected")
	}

	// Backing store for catalogue, journal and roster.
	switch cfg.Store.Backend {
	case "postgres":
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
			cfg.Database.User, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database,
			cfg.Database.SSLMode, cfg.Database.MaxConns, cfg.Database.MinConns,
		)

		connCtx, cancelConn := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelConn()

		pool, err := pgxpool.New(connCtx, dsn)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(connCtx); err != nil {
			return fmt.Errorf("postgres ping: %w", err)
		}
		c.DB = pool
		log.Println("✅ PostgreSQL connected")

	default:
		c.Sheet = sheetdb.NewClient(cfg.SheetDB)
		log.Println("✅ Sheet store client ready")
	}

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)
	c.Telegram = telegram.NewClient(cfg.Telegram)

	objCtx, cancelObj := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelObj()
	objects, err := storage.NewMinioStore(objCtx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("connect object store: %w", err)
	}
	c.Objects = objects
	log.Println("✅ Object store ready")

	return nil
}

func (c *Container) initRepositories() {
	if c.DB != nil {
		c.CatalogRepo = catalogRepo.NewPostgresRepository(c.DB)
		c.MovementRepo = movementRepo.NewPostgresRepository(c.DB)
		c.UserRepo = userRepo.NewPostgresRepository(c.DB)
		return
	}

	c.CatalogRepo = catalogRepo.NewSheetRepository(c.Sheet)
	c.MovementRepo = movementRepo.NewSheetRepository(c.Sheet)
	c.UserRepo = userRepo.NewSheetRepository(c.Sheet)
}

func (c *Container) initServices() error {
	cfg := c.Config

	c.Snapshot = catalogService.NewSnapshotCache(
		c.CatalogRepo,
		time.Duration(cfg.Bot.CatalogCacheTTL)*time.Second,
	)
	c.CatalogService = catalogService.NewService(c.CatalogRepo, c.Snapshot)

	c.UserService = userService.NewService(c.UserRepo, c.Cache, cfg.Bot.AllowedChatIDs)

	c.Executor = movementService.NewExecutor(c.CatalogService, c.MovementRepo)
	c.Processor = movementService.NewBatchProcessor(c.Executor, cfg.Bot.LargeQtyThreshold)
	c.Stocktakes = movementService.NewStocktakeService(c.CatalogService, c.MovementRepo)
	c.Approvals = approval.NewController(c.Processor, c.Executor, c.MovementRepo)

	c.IdemStore = idempotency.NewStore(c.Cache)

	c.ReportService = report.NewService(c.CatalogService, c.MovementRepo, c.Objects, cfg.Jobs.ExportLimit)

	return nil
}

func (c *Container) initEntryPoints() {
	cfg := c.Config

	c.Bot = bot.New(
		c.UserService,
		c.CatalogService,
		c.Stocktakes,
		c.Approvals,
		c.IdemStore,
		c.Telegram,
		c.ReportService,
		cfg.Bot.IdempotencyTTLSecs,
	)

	c.CatalogHandler = catalogHandler.NewHandler(c.CatalogService)
	c.ApprovalHandler = approvalHandler.NewHandler(c.Approvals)
	c.AuthHandler = userHandler.NewHandler(
		c.UserRepo,
		c.JWTManager,
		cfg.JWT.AdminAPIKey,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
	)
	c.ReportHandler = reportHandler.NewHandler(c.ReportService)
}

// Cleanup releases infrastructure resources on shutdown.
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.DB != nil {
		c.DB.Close()
		log.Println("✅ Database connections closed")
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Printf("⚠️  Failed to close Redis: %v", err)
		} else {
			log.Println("✅ Redis connections closed")
		}
	}

	log.Println("✅ Container cleanup completed")
}
