package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"gacha_backend/internal/config"
)

type App struct {
	ServiceProvider *ServiceProvider
}

func NewApp() *App {
	return &App{}
}

func (s *App) initServiceProvider() {
	s.ServiceProvider = newServiceProvider()
}

// Run поднимает HTTP сервер и блокируется до SIGINT/SIGTERM
func (s *App) Run() error {
	loadErr := config.Load(".env")
	s.initServiceProvider()
	log := s.ServiceProvider.Logger()
	if loadErr != nil {
		log.Warn().Err(loadErr).Msg("error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.ServiceProvider.Telemetry(ctx)
	r := s.ServiceProvider.Router(ctx)

	httpCfg := s.ServiceProvider.HTTPCfg()
	srv := &http.Server{
		Addr:              httpCfg.Address(),
		Handler:           r,
		ReadTimeout:       httpCfg.ReadTimeout(),
		ReadHeaderTimeout: httpCfg.ReadTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", httpCfg.Address()).Str("storage", s.ServiceProvider.StorageCfg().Driver()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// дожидаемся фоновых уведомлений и закрываем хранилище
	if err := s.ServiceProvider.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("close resources")
	}
	return runErr
}
