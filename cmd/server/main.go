package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                  // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // request logging and panic recovery

	"github.com/iliyamo/badminton-scheduler/internal/config"
	"github.com/iliyamo/badminton-scheduler/internal/database"
	"github.com/iliyamo/badminton-scheduler/internal/handler"
	"github.com/iliyamo/badminton-scheduler/internal/queue"
	"github.com/iliyamo/badminton-scheduler/internal/repository"
	"github.com/iliyamo/badminton-scheduler/internal/router"
	"github.com/iliyamo/badminton-scheduler/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		return err
	}

	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		return err
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		return err
	}
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher = queue.Noop{}
	if cfg.EventsEnabled {
		publisher := queue.NewPublisher(cfg.RabbitMQURL)
		defer publisher.Close()
		events = publisher
		consumer := queue.NewAuditConsumer(cfg.RabbitMQURL)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("audit consumer stopped: %v", err)
			}
		}()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	registrationRepo := repository.NewRegistrationRepo(db)

	sessions := service.NewSessionService(sessionRepo, events, cfg.Location())
	registrations := service.NewRegistrationService(sessionRepo, registrationRepo, events)
	accounts := service.NewAccountService(users)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())

	stack := router.NewStack(cfg.JWTSecret, users, rlCfg, cacheCfg, rdb)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, stack, handler.NewAuthHandler(cfg, users, tokens))
	router.RegisterAccounts(e, stack, handler.NewAccountHandler(accounts))
	router.RegisterSessions(e, stack, handler.NewSessionHandler(sessions), handler.NewRegistrationHandler(registrations))

	addr := ":" + cfg.Port // Address string with port
	log.Printf("listening on %s (env=%s, db=%s, tz=%s)", addr, cfg.Env, cfg.DBDriver, cfg.Timezone)

	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openDB connects to the store selected by DB_DRIVER.
func openDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDriver == "sqlite" {
		return database.OpenSQLite(cfg.DBPath)
	}
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
