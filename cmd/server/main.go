package main // Entry point package

import (
	"context"   // boot and shutdown deadlines
	"errors"    // matching http.ErrServerClosed
	"net/http"  // server-closed sentinel
	"os"        // interrupt signal
	"os/signal" // signal-aware root context
	"syscall"   // SIGTERM
	"time"      // timeouts

	"github.com/joho/godotenv"                      // load variables from .env
	"github.com/labstack/echo/v4"                   // Echo framework
	echomw "github.com/labstack/echo/v4/middleware" // panic recovery
	"go.uber.org/zap"                               // structured logging

	"github.com/iliyamo/billing-staff-auth/internal/config"     // configuration loader
	"github.com/iliyamo/billing-staff-auth/internal/database"   // MySQL connection and schema
	"github.com/iliyamo/billing-staff-auth/internal/handler"    // HTTP handlers
	"github.com/iliyamo/billing-staff-auth/internal/middleware" // request logging
	"github.com/iliyamo/billing-staff-auth/internal/queue"      // staff.provisioned publisher
	"github.com/iliyamo/billing-staff-auth/internal/repository" // SQL repositories
	"github.com/iliyamo/billing-staff-auth/internal/router"     // route registration and gates
	"github.com/iliyamo/billing-staff-auth/internal/service"    // auth flows
	"github.com/iliyamo/billing-staff-auth/internal/session"    // session manager, stores and cookies
	"github.com/iliyamo/billing-staff-auth/internal/token"      // bearer token issuer
	"github.com/iliyamo/billing-staff-auth/internal/utils"      // bcrypt hasher
)

func main() {
	_ = godotenv.Load()  // .env is optional; real env vars win
	cfg := config.Load() // read configuration

	logger, err := newLogger(cfg) // development or production encoder
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }() // flush buffered entries

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop() // restore default signal handling

	bootCtx, cancel := context.WithTimeout(ctx, 15*time.Second) // bound connect and migrate
	db, err := database.Open(bootCtx, database.Params{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		cancel()
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()                                      // close DB on exit
	if err := database.Migrate(bootCtx, db); err != nil { // create tables if missing
		cancel()
		logger.Fatal("migrate", zap.Error(err))
	}
	cancel()

	store, err := newSessionStore(cfg, logger) // memory or redis
	if err != nil {
		logger.Fatal("session store", zap.Error(err))
	}

	var events service.EventPublisher // nil disables publishing
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.AMQPURL)
	}

	svc := service.NewAuthService(
		repository.NewStaffRepo(db),
		repository.NewUserRepo(db),
		token.NewIssuer(repository.NewTokenRepo(db), cfg.TokenTTL),
		session.NewManager(store, cfg.Session.Lifetime),
		utils.BcryptHasher{Cost: cfg.BcryptCost},
		events,
		logger,
	)
	cookies := session.NewCookies(cfg.Session) // signs role cookies

	e := echo.New()                         // create Echo instance
	e.HideBanner = true                     // quiet startup
	e.Use(echomw.Recover())                 // recover from panics
	e.Use(middleware.RequestLogger(logger)) // one log line per request

	router.RegisterRoutes(e) // health routes
	router.RegisterAuth(e, handler.NewAuthHandler(svc, cookies, logger), router.NewGate(svc, cookies),
		router.AuthOptions{OpenProvisioning: cfg.StaffProvisioningOpen})
	if cfg.StaffProvisioningOpen {
		logger.Warn("POST /create-staff is open to unauthenticated callers")
	}

	addr := ":" + cfg.Port // listen address
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.String("session_driver", cfg.Session.Driver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done() // wait for SIGINT or SIGTERM
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil { // drain in-flight requests
		logger.Error("shutdown", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newSessionStore(cfg config.Config, logger *zap.Logger) (session.Store, error) {
	if cfg.Session.Driver != config.SessionDriverRedis {
		return session.NewMemoryStore(), nil
	}
	rdb, err := config.NewRedisClient(cfg.Redis) // pings before returning
	if err != nil {
		return nil, err
	}
	logger.Info("redis session store", zap.String("addr", cfg.Redis.Addr))
	return session.NewRedisStore(rdb, cfg.Session.Prefix), nil
}
