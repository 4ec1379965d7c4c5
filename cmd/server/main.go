package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/nestrischamps-rooms/internal/adapters/http"
	wssignal "github.com/dkeye/nestrischamps-rooms/internal/adapters/signal"
	"github.com/dkeye/nestrischamps-rooms/internal/app"
	"github.com/dkeye/nestrischamps-rooms/internal/app/orch"
	"github.com/dkeye/nestrischamps-rooms/internal/config"
	"github.com/dkeye/nestrischamps-rooms/internal/core"
	"github.com/dkeye/nestrischamps-rooms/internal/store/memory"
	"github.com/dkeye/nestrischamps-rooms/internal/store/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	users, closeUsers, err := openUsers(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open user directory")
	}
	defer closeUsers()

	reg := app.NewRegistry()
	rooms := app.NewRoomManager(reg, users, cfg.LookupTimeout)
	o := orch.New(reg, rooms)

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:    o,
		Users:   users,
		Limiter: wssignal.NewConnectLimiter(cfg.ConnectLimit, cfg.ConnectInterval),
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("rooms server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		o.Shutdown("server_shutdown")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
		return
	}
	log.Info().Msg("Server exited gracefully")
}

func openUsers(ctx context.Context, cfg *config.Config) (core.UserDirectory, func(), error) {
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("module", "main").Msg("using postgres user directory")
		return postgres.NewUserRepository(pool), pool.Close, nil
	}
	store, err := memory.LoadFile(cfg.UsersFile)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("module", "main").Str("file", cfg.UsersFile).Msg("using yaml user directory")
	return store, func() {}, nil
}
