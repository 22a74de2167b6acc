// Package main initializes and starts the credential backend HTTP server,
// setting up configuration, logging, the user store, services, handlers,
// metrics and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/thestream/internal/config"
	"github.com/atinyakov/thestream/internal/db"
	"github.com/atinyakov/thestream/internal/logger"
	"github.com/atinyakov/thestream/internal/metrics"
	"github.com/atinyakov/thestream/internal/middleware"
	"github.com/atinyakov/thestream/internal/platform"
	"github.com/atinyakov/thestream/internal/repository"
	"github.com/atinyakov/thestream/internal/server/handler/http"
	"github.com/atinyakov/thestream/internal/service"
	"github.com/atinyakov/thestream/internal/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	if err := options.Validate(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pick the user store: Postgres when a DSN is given, memory otherwise.
	var users service.UserRepository
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()
		users = repository.NewPostgresUserRepository(postgresDB)
	} else {
		zapLogger.Warn("no database configured, users are kept in memory")
		users = repository.NewMemoryUserRepository()
	}

	// Chat user registration is optional.
	var chat service.ChatUserRegistrar
	if options.ChatURL != "" {
		chat = platform.NewChatClient(
			&nethttp.Client{Timeout: 10 * time.Second},
			options.ChatURL, options.StreamAPIKey, options.StreamAPISecret,
		)
	}

	// Initialize business-logic services.
	authority := token.NewAuthority(options.AuthSecret, options.AuthTTL)
	authService := service.NewAuthService(users, authority)
	credentialService := service.NewCredentialService(options.StreamAPIKey, options.StreamAPISecret, chat)

	// Metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Build the router with middleware and routes.
	router := http.NewRouter(http.RouterDeps{
		AuthHandler:       &http.AuthHandler{AuthService: authService, Metrics: collector, Log: zapLogger},
		CredentialHandler: &http.CredentialHandler{CredentialService: credentialService, Metrics: collector, Log: zapLogger},
		Verifier:          authority,
		SignInLimiter: middleware.NewRateLimiter(ctx,
			rate.Limit(options.SignInRate), options.SignInBurst, 10*time.Minute, zapLogger),
		Metrics: collector,
		Logger:  zapLogger,
	})

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if options.TLSCert != "" {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	go func() {
		<-ctx.Done()
		zapLogger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting server", zap.String("addr", options.Port), zap.Bool("tls", options.TLSCert != ""))
	if options.TLSCert != "" {
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
