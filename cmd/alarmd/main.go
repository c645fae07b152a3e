package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hearthguard-systems/hearthguard/internal/audit"
	"github.com/hearthguard-systems/hearthguard/internal/config"
	"github.com/hearthguard-systems/hearthguard/internal/credential"
	"github.com/hearthguard-systems/hearthguard/internal/guard"
	"github.com/hearthguard-systems/hearthguard/internal/logging"
	"github.com/hearthguard-systems/hearthguard/internal/server"
	"github.com/hearthguard-systems/hearthguard/pkg/tokens"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	slog.SetDefault(logger)

	logger.Info("starting alarmd",
		slog.Int("port", cfg.Server.Port),
		slog.String("credential_file", cfg.Security.CredentialFile),
	)

	auditLog := audit.New(cfg.Security.AuditLogFile, audit.NewSigner(cfg.Security.SigningKey), logger)
	store := credential.NewStore(cfg.Security.CredentialFile, auditLog)

	// Fail-closed startup gate: a missing or invalid credential record stops
	// the process before any listener is bound.
	g := guard.New(store, auditLog, logger)
	if err := g.Check(); err != nil {
		fmt.Fprintln(os.Stderr, "Admin password file is missing")
		fmt.Fprintln(os.Stderr, "The server will not start until an administrator password is set.")
		fmt.Fprintln(os.Stderr, "Run 'hguard reset' to set one, then start the server again.")
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := server.NewMetrics(registry)
	tokenGen := tokens.NewGenerator(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	handler := server.NewSecurityHandler(store, auditLog, tokenGen, metrics, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler, registry),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("alarmd listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}
