package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo_api/internal/config"
	"todo_api/internal/handlers"
	"todo_api/internal/logger"
	"todo_api/internal/metrics"
	"todo_api/internal/ratelimit"
	"todo_api/internal/repository"
	"todo_api/internal/repository/db"
	"todo_api/internal/server"
	"todo_api/internal/service"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// @title                       Todo API
// @version                     1.0
// @description                 Per-user todo lists behind x-auth bearer tokens.
// @BasePath                    /
// @securityDefinitions.apikey  TokenAuth
// @in                          header
// @name                        x-auth
func main() {
	// load configs/config.yml, .env and TODO_* overrides
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel, logger.FormatConsole).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()
	gin.SetMode(cfg.GinMode)

	// open the configured store
	repos, closeStore, err := openStore(cfg.Store)
	if err != nil {
		log.Fatalw("failed to open store", "driver", cfg.Store.Driver, "err", err)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			log.Errorw("failed to close store", "driver", cfg.Store.Driver, "err", cerr)
		}
	}()
	log.Infow("store_ready", "driver", cfg.Store.Driver)

	// wire dependencies
	services := service.NewService(repos, service.Deps{
		Tokens:     service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		BcryptCost: cfg.Auth.BcryptCost,
	})
	apiHandler := handlers.NewHandler(services, log, handlerOptions(cfg)...)

	// start HTTP server
	srv := server.New(cfg.Port, apiHandler.InitRoutes())
	runHTTPServer(srv, log)

	// graceful shutdown
	waitForShutdown(srv, log)
}

// openStore connects the backend named by cfg.Driver and returns a closer for it.
func openStore(cfg config.StoreConfig) (*repository.Repository, func() error, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, database, err := db.InitMongo(context.Background(), cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() error {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
			defer cancel()
			return client.Disconnect(ctx)
		}
		return repository.NewMongoRepository(database), closeFn, nil
	case config.DriverSQLite:
		sqlDB, err := db.InitSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLiteRepository(sqlDB), sqlDB.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func handlerOptions(cfg *config.Config) []handlers.Option {
	opts := []handlers.Option{
		handlers.WithMetrics(metrics.New()),
		handlers.WithCORS(cfg.CORS.AllowedOrigins),
		handlers.WithTrustedProxies(cfg.Server.TrustedProxies),
	}
	if cfg.Auth.LoginRate > 0 {
		opts = append(opts, handlers.WithLoginLimiter(ratelimit.New(cfg.Auth.LoginRate, cfg.Auth.LoginBurst)))
	}
	return opts
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, log *logger.Logger) {
	go func() {
		log.Infow("server_listening", "addr", srv.Addr())
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
