package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/bizledger-backend/api/routes"
	"github.com/angelmondragon/bizledger-backend/internal/access"
	"github.com/angelmondragon/bizledger-backend/internal/auth"
	"github.com/angelmondragon/bizledger-backend/internal/businesses"
	"github.com/angelmondragon/bizledger-backend/internal/contacts"
	"github.com/angelmondragon/bizledger-backend/internal/invoices"
	"github.com/angelmondragon/bizledger-backend/internal/memberships"
	"github.com/angelmondragon/bizledger-backend/internal/notifications"
	"github.com/angelmondragon/bizledger-backend/internal/users"
	"github.com/angelmondragon/bizledger-backend/pkg/auth/session"
	"github.com/angelmondragon/bizledger-backend/pkg/config"
	"github.com/angelmondragon/bizledger-backend/pkg/db"
	"github.com/angelmondragon/bizledger-backend/pkg/env"
	"github.com/angelmondragon/bizledger-backend/pkg/logger"
	"github.com/angelmondragon/bizledger-backend/pkg/migrate"
	"github.com/angelmondragon/bizledger-backend/pkg/redis"
	"github.com/angelmondragon/bizledger-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	membershipRepo := memberships.NewRepository(conn)
	notificationRepo := notifications.NewRepository(conn)
	hierarchy := access.DefaultHierarchy()

	gate, err := access.NewGate(membershipRepo, hierarchy)
	requireService(logg, "access gate", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:        userRepo,
		MembershipsRepo: membershipRepo,
		SessionManager:  sessionManager,
		Passwords:       security.NewHasher(cfg.Password),
		JWTConfig:       cfg.JWT,
	})
	requireService(logg, "auth", err)

	businessService, err := businesses.NewService(businesses.ServiceParams{
		DB:            dbClient,
		Repo:          businesses.NewRepository(conn),
		Memberships:   membershipRepo,
		Notifications: notificationRepo,
	})
	requireService(logg, "business", err)

	memberService, err := memberships.NewService(memberships.ServiceParams{
		DB:            dbClient,
		Repo:          membershipRepo,
		Users:         userRepo,
		Notifications: notificationRepo,
		Hierarchy:     hierarchy,
	})
	requireService(logg, "membership", err)

	contactService, err := contacts.NewService(contacts.NewRepository(conn))
	requireService(logg, "contacts", err)

	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		DB:            dbClient,
		Repo:          invoices.NewRepository(conn),
		Notifications: notificationRepo,
	})
	requireService(logg, "invoice", err)

	notificationService, err := notifications.NewService(notificationRepo)
	requireService(logg, "notifications", err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": env.InstanceID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, reg, dbClient, redisClient, sessionManager, gate, routes.Services{
			Auth:          authService,
			Businesses:    businessService,
			Members:       memberService,
			Contacts:      contactService,
			Invoices:      invoiceService,
			Notifications: notificationService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server stopped")
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
