package app

import (
	"context"
	"database/sql"
	"errors"

	gachaAPI "gacha_backend/internal/api/gacha"
	"gacha_backend/internal/catalog"
	"gacha_backend/internal/config"
	"gacha_backend/internal/config/env"
	"gacha_backend/internal/database"
	"gacha_backend/internal/lock"
	"gacha_backend/internal/logger"
	"gacha_backend/internal/middleware"
	"gacha_backend/internal/notify"
	"gacha_backend/internal/repository"
	"gacha_backend/internal/repository/history_repo"
	"gacha_backend/internal/repository/owned_repo"
	"gacha_backend/internal/repository/pity_repo"
	"gacha_backend/internal/repository/sqlite_repo"
	"gacha_backend/internal/repository/stats_repo"
	"gacha_backend/internal/service"
	"gacha_backend/internal/service/gacha"
	"gacha_backend/internal/telemetry"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// notifier - оповещатель, который нужно закрыть при остановке
type notifier interface {
	service.Notifier
	Close() error
}

type ServiceProvider struct {
	// Configs
	httpCfg      config.HTTPConfig
	storageCfg   config.StorageConfig
	pgConfig     config.PGConfig
	jwtCfg       config.JWTConfig
	persistCfg   config.PersistConfig
	notifierCfg  config.NotifierConfig
	logCfg       config.LogConfig
	telemetryCfg config.TelemetryConfig
	drawCfg      config.DrawConfig

	log               *zerolog.Logger
	telemetryShutdown func(context.Context) error

	// Database
	pgPool   *pgxpool.Pool
	sqliteDB *sql.DB

	//TXManager
	txManager trm.Manager

	// Gacha bits
	pityRepo    repository.PityRepository
	ownedRepo   repository.OwnedItemRepository
	historyRepo repository.HistoryRepository
	statsRepo   repository.StatsRepository
	catalog     *catalog.Static
	notifier    notifier
	locks       *lock.Keyed
	gachaServ   service.GachaService
	gachaHand   *gachaAPI.Handler

	// Router
	router chi.Router
}

func newServiceProvider() *ServiceProvider {
	return &ServiceProvider{}
}

func (sp *ServiceProvider) HTTPCfg() config.HTTPConfig {
	if sp.httpCfg == nil {
		cfg, err := env.NewHTTPConfig()
		if err != nil {
			panic("failed to get http config: " + err.Error())
		}
		sp.httpCfg = cfg
	}
	return sp.httpCfg
}

func (sp *ServiceProvider) StorageCfg() config.StorageConfig {
	if sp.storageCfg == nil {
		cfg, err := env.NewStorageConfig()
		if err != nil {
			panic("failed to get storage config: " + err.Error())
		}
		sp.storageCfg = cfg
	}
	return sp.storageCfg
}

func (sp *ServiceProvider) PgConfig() config.PGConfig {
	if sp.pgConfig == nil {
		cfg, err := env.NewPGConfig()
		if err != nil {
			panic("failed to get database config: " + err.Error())
		}
		sp.pgConfig = cfg
	}
	return sp.pgConfig
}

func (sp *ServiceProvider) JWTCfg() config.JWTConfig {
	if sp.jwtCfg == nil {
		cfg, err := env.NewJWTConfig()
		if err != nil {
			panic("failed to get jwt config: " + err.Error())
		}
		sp.jwtCfg = cfg
	}
	return sp.jwtCfg
}

func (sp *ServiceProvider) PersistCfg() config.PersistConfig {
	if sp.persistCfg == nil {
		cfg, err := env.NewPersistConfig()
		if err != nil {
			panic("failed to get persist config: " + err.Error())
		}
		sp.persistCfg = cfg
	}
	return sp.persistCfg
}

func (sp *ServiceProvider) NotifierCfg() config.NotifierConfig {
	if sp.notifierCfg == nil {
		cfg, err := env.NewNotifierConfig()
		if err != nil {
			panic("failed to get notifier config: " + err.Error())
		}
		sp.notifierCfg = cfg
	}
	return sp.notifierCfg
}

func (sp *ServiceProvider) LogCfg() config.LogConfig {
	if sp.logCfg == nil {
		cfg, err := env.NewLogConfig()
		if err != nil {
			panic("failed to get log config: " + err.Error())
		}
		sp.logCfg = cfg
	}
	return sp.logCfg
}

func (sp *ServiceProvider) TelemetryCfg() config.TelemetryConfig {
	if sp.telemetryCfg == nil {
		cfg, err := env.NewTelemetryConfig()
		if err != nil {
			panic("failed to get telemetry config: " + err.Error())
		}
		sp.telemetryCfg = cfg
	}
	return sp.telemetryCfg
}

// DrawCfg - вероятности, гарант и каталог. Невалидная конфигурация останавливает запуск.
func (sp *ServiceProvider) DrawCfg() config.DrawConfig {
	if sp.drawCfg == nil {
		cfg, err := env.NewDrawConfig()
		if err != nil {
			panic("failed to get draw config: " + err.Error())
		}
		sp.drawCfg = cfg
	}
	return sp.drawCfg
}

func (sp *ServiceProvider) Logger() zerolog.Logger {
	if sp.log == nil {
		l := logger.New(sp.LogCfg().Level(), sp.LogCfg().Pretty())
		sp.log = &l
	}
	return *sp.log
}

// Telemetry включает экспорт трейсов, если задан OTEL_ENDPOINT
func (sp *ServiceProvider) Telemetry(ctx context.Context) {
	if sp.telemetryShutdown == nil {
		shutdown, err := telemetry.Setup(ctx, sp.TelemetryCfg().Endpoint(), sp.TelemetryCfg().ServiceName())
		if err != nil {
			panic("failed to setup telemetry: " + err.Error())
		}
		sp.telemetryShutdown = shutdown
	}
}

func (sp *ServiceProvider) isSQLite() bool {
	return sp.StorageCfg().Driver() == env.DriverSQLite
}

func (sp *ServiceProvider) DBClient(ctx context.Context) *pgxpool.Pool {
	if sp.pgPool == nil {
		dbc, err := database.ConnectPostgres(ctx, sp.PgConfig().DSN(), sp.PgConfig().MaxConns())
		if err != nil {
			panic("failed to connect to postgres: " + err.Error())
		}
		if err = database.MigratePostgres(ctx, dbc); err != nil {
			dbc.Close()
			panic("failed to migrate postgres: " + err.Error())
		}
		sp.pgPool = dbc
	}
	return sp.pgPool
}

func (sp *ServiceProvider) SQLiteDB(ctx context.Context) *sql.DB {
	if sp.sqliteDB == nil {
		db, err := database.OpenSQLite(ctx, sp.StorageCfg().SQLitePath())
		if err != nil {
			panic("failed to open sqlite: " + err.Error())
		}
		sp.sqliteDB = db
	}
	return sp.sqliteDB
}

func (sp *ServiceProvider) TXManager(ctx context.Context) trm.Manager {
	if sp.txManager == nil {
		var (
			m   *manager.Manager
			err error
		)
		if sp.isSQLite() {
			m, err = manager.New(trmsql.NewDefaultFactory(sp.SQLiteDB(ctx)))
		} else {
			m, err = manager.New(trmpgx.NewDefaultFactory(sp.DBClient(ctx)))
		}
		if err != nil {
			panic("failed to create tx manager: " + err.Error())
		}
		sp.txManager = m
	}
	return sp.txManager
}

func (sp *ServiceProvider) PityRepository(ctx context.Context) repository.PityRepository {
	if sp.pityRepo == nil {
		if sp.isSQLite() {
			sp.pityRepo = sqlite_repo.NewPityRepository(sp.SQLiteDB(ctx))
		} else {
			sp.pityRepo = pity_repo.NewPityRepository(sp.DBClient(ctx))
		}
	}
	return sp.pityRepo
}

func (sp *ServiceProvider) OwnedItemRepository(ctx context.Context) repository.OwnedItemRepository {
	if sp.ownedRepo == nil {
		if sp.isSQLite() {
			sp.ownedRepo = sqlite_repo.NewOwnedItemRepository(sp.SQLiteDB(ctx))
		} else {
			sp.ownedRepo = owned_repo.NewOwnedItemRepository(sp.DBClient(ctx))
		}
	}
	return sp.ownedRepo
}

func (sp *ServiceProvider) HistoryRepository(ctx context.Context) repository.HistoryRepository {
	if sp.historyRepo == nil {
		if sp.isSQLite() {
			sp.historyRepo = sqlite_repo.NewHistoryRepository(sp.SQLiteDB(ctx))
		} else {
			sp.historyRepo = history_repo.NewHistoryRepository(sp.DBClient(ctx))
		}
	}
	return sp.historyRepo
}

// StatsRepository - кэш статистики в памяти, после рестарта собирается из истории заново
func (sp *ServiceProvider) StatsRepository() repository.StatsRepository {
	if sp.statsRepo == nil {
		sp.statsRepo = stats_repo.NewStatsRepository()
	}
	return sp.statsRepo
}

func (sp *ServiceProvider) Catalog() *catalog.Static {
	if sp.catalog == nil {
		c, err := catalog.NewStatic(sp.DrawCfg().Catalog(), sp.DrawCfg().Draw())
		if err != nil {
			panic("failed to build catalog: " + err.Error())
		}
		sp.catalog = c
	}
	return sp.catalog
}

func (sp *ServiceProvider) Notifier() service.Notifier {
	if sp.notifier == nil {
		cfg := sp.NotifierCfg()
		switch cfg.Kind() {
		case env.NotifierRabbitMQ:
			n, err := notify.NewRabbitMQNotifier(cfg.RabbitURL(), cfg.RabbitExchange())
			if err != nil {
				panic("failed to connect to rabbitmq: " + err.Error())
			}
			sp.notifier = n
		case env.NotifierKafka:
			n, err := notify.NewKafkaNotifier(cfg.KafkaBrokers(), cfg.KafkaTopic())
			if err != nil {
				panic("failed to create kafka producer: " + err.Error())
			}
			sp.notifier = n
		default:
			sp.notifier = notify.NewLogNotifier(logger.Component(sp.Logger(), "notify"))
		}
	}
	return sp.notifier
}

func (sp *ServiceProvider) Locks() *lock.Keyed {
	if sp.locks == nil {
		sp.locks = lock.NewKeyed()
	}
	return sp.locks
}

func (sp *ServiceProvider) GachaService(ctx context.Context) service.GachaService {
	if sp.gachaServ == nil {
		sp.gachaServ = gacha.NewGachaService(gacha.Deps{
			Draw:          sp.DrawCfg().Draw(),
			Catalog:       sp.Catalog(),
			PityRepo:      sp.PityRepository(ctx),
			OwnedRepo:     sp.OwnedItemRepository(ctx),
			HistoryRepo:   sp.HistoryRepository(ctx),
			StatsRepo:     sp.StatsRepository(),
			TxManager:     sp.TXManager(ctx),
			Notifier:      sp.Notifier(),
			Log:           sp.Logger(),
			MaxAttempts:   sp.PersistCfg().MaxAttempts(),
			Backoff:       sp.PersistCfg().Backoff(),
			NotifyTimeout: sp.NotifierCfg().Timeout(),
			Locks:         sp.Locks(),
		})
	}
	return sp.gachaServ
}

func (sp *ServiceProvider) GachaHandler(ctx context.Context) *gachaAPI.Handler {
	if sp.gachaHand == nil {
		sp.gachaHand = gachaAPI.NewHandler(gachaAPI.HandlerDeps{
			Serv: sp.GachaService(ctx),
			Log:  logger.Component(sp.Logger(), "http"),
		})
	}
	return sp.gachaHand
}

func (sp *ServiceProvider) Router(ctx context.Context) chi.Router {
	if sp.router == nil {
		r := chi.NewRouter()

		r.Use(chimw.RequestID)
		r.Use(chimw.Recoverer)
		r.Use(middleware.RequestLogger(logger.Component(sp.Logger(), "http")))

		// CORS middleware
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
			ExposedHeaders:   []string{"Retry-After"},
			AllowCredentials: false,
			MaxAge:           60 * 15,
		}))

		gachaHandler := sp.GachaHandler(ctx)
		r.Get("/healthz", gachaHandler.Health)

		// Gacha endpoints
		r.Route("/gacha", func(rr chi.Router) {
			rr.Use(middleware.Auth(sp.JWTCfg().AccessTokenSecretKey()))
			rr.Post("/pull", gachaHandler.Pull)
			rr.Get("/stats", gachaHandler.Stats)
			rr.Get("/collection", gachaHandler.Collection)
			rr.Get("/history", gachaHandler.History)
		})

		sp.router = r
	}
	return sp.router
}

// Close освобождает внешние ресурсы в обратном порядке их создания
func (sp *ServiceProvider) Close(ctx context.Context) error {
	var errs []error
	if sp.gachaServ != nil {
		if err := sp.gachaServ.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if sp.notifier != nil {
		if err := sp.notifier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if sp.pgPool != nil {
		sp.pgPool.Close()
	}
	if sp.sqliteDB != nil {
		if err := sp.sqliteDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if sp.telemetryShutdown != nil {
		if err := sp.telemetryShutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
