package gacha

import (
	"context"
	"sync"
	"time"

	"gacha_backend/internal/engine"
	"gacha_backend/internal/lock"
	"gacha_backend/internal/model"
	"gacha_backend/internal/repository"
	"gacha_backend/internal/service"
	"gacha_backend/internal/telemetry"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxAttempts   = 3
	defaultBackoff       = 50 * time.Millisecond
	defaultNotifyTimeout = 5 * time.Second
)

// Deps - зависимости сервиса. Необязательные поля получают значения по умолчанию.
type Deps struct {
	Draw        model.DrawConfig
	Catalog     service.Catalog
	PityRepo    repository.PityRepository
	OwnedRepo   repository.OwnedItemRepository
	HistoryRepo repository.HistoryRepository
	StatsRepo   repository.StatsRepository
	TxManager   trm.Manager
	Notifier    service.Notifier
	Log         zerolog.Logger

	// RNG создает источник случайности на одну попытку записи партии
	RNG           func() engine.RandomSource
	MaxAttempts   uint
	Backoff       time.Duration
	NotifyTimeout time.Duration
	Now           func() time.Time
	Locks         *lock.Keyed
}

type serv struct {
	draw        model.DrawConfig
	coord       engine.Coordinator
	catalog     service.Catalog
	pityRepo    repository.PityRepository
	ownedRepo   repository.OwnedItemRepository
	historyRepo repository.HistoryRepository
	statsRepo   repository.StatsRepository
	txManager   trm.Manager
	notifier    service.Notifier
	log         zerolog.Logger
	tracer      trace.Tracer

	rng           func() engine.RandomSource
	maxAttempts   uint
	backoff       time.Duration
	notifyTimeout time.Duration
	now           func() time.Time

	locks    *lock.Keyed
	sf       singleflight.Group
	inFlight sync.WaitGroup
	notifyMu sync.Mutex
	closed   bool
}

// NewGachaService Создать сервис круток по проверенной конфигурации розыгрыша
func NewGachaService(deps Deps) service.GachaService {
	s := &serv{
		draw:          deps.Draw,
		coord:         engine.NewCoordinator(deps.Draw),
		catalog:       deps.Catalog,
		pityRepo:      deps.PityRepo,
		ownedRepo:     deps.OwnedRepo,
		historyRepo:   deps.HistoryRepo,
		statsRepo:     deps.StatsRepo,
		txManager:     deps.TxManager,
		notifier:      deps.Notifier,
		log:           deps.Log.With().Str("component", "gacha").Logger(),
		tracer:        telemetry.Tracer(),
		rng:           deps.RNG,
		maxAttempts:   deps.MaxAttempts,
		backoff:       deps.Backoff,
		notifyTimeout: deps.NotifyTimeout,
		now:           deps.Now,
		locks:         deps.Locks,
	}

	if s.rng == nil {
		s.rng = engine.DefaultRNG
	}
	if s.maxAttempts == 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	if s.backoff <= 0 {
		s.backoff = defaultBackoff
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = defaultNotifyTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.locks == nil {
		s.locks = lock.NewKeyed()
	}
	return s
}

func (s *serv) Shutdown(ctx context.Context) error {
	s.notifyMu.Lock()
	s.closed = true
	s.notifyMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
