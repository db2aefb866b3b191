package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/akosarev/folio-cli/internal/client/api"
	"github.com/akosarev/folio-cli/internal/client/auth"
	"github.com/akosarev/folio-cli/internal/client/cli"
	"github.com/akosarev/folio-cli/internal/client/config"
	"github.com/akosarev/folio-cli/internal/client/csrf"
	"github.com/akosarev/folio-cli/internal/client/iocli"
	"github.com/akosarev/folio-cli/internal/client/seclog"
	"github.com/akosarev/folio-cli/internal/client/session"
	"github.com/akosarev/folio-cli/internal/client/storage/boltdb"
	"github.com/akosarev/folio-cli/internal/client/storage/memory"
	"github.com/akosarev/folio-cli/internal/crypto"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to config file")
	serverURL := flag.String("server", "", "Server URL (overrides config)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		stdio := iocli.NewStdio()
		cli.New(stdio, nil, nil, 0, 0).PrintUsage()
		os.Exit(1)
	}
	command := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	// Ключ шифрования токенов at rest
	key, err := crypto.LoadOrCreateKey(cfg.KeyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load keyfile: %v\n", err)
		os.Exit(1)
	}

	// Durable хранилище опционально: при отказе тихо работаем в памяти
	var durable *boltdb.Storage
	if durable, err = boltdb.New(ctx, cfg.DBPath); err != nil {
		slog.Warn("durable storage unavailable, sessions will not persist", "error", err)
		durable = nil
	} else {
		defer func() {
			if err := durable.Close(); err != nil {
				slog.Error("failed to close database", "error", err)
			}
		}()
	}

	apiClient := api.NewClient(cfg.ServerURL, cfg.Timeout)

	base, err := apiClient.BaseURL()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid server URL: %v\n", err)
		os.Exit(1)
	}
	apiClient.SetGuard(csrf.NewGuard(base, apiClient.Jar(), seclog.New(cfg.ServerURL)))

	store := newCredentialStore(durable, key)
	svc := auth.NewService(apiClient, store)

	sessions := session.NewManager(apiClient)
	sessions.OnExpire(func() {
		if err := svc.Logout(context.Background()); err != nil {
			slog.Error("forced logout failed", "error", err)
		}
	})
	svc.BindSession(sessions)

	timeout := time.Duration(cfg.Session.TimeoutMinutes) * time.Minute
	warning := time.Duration(cfg.Session.WarningMinutes) * time.Minute
	c := cli.New(iocli.NewStdio(), svc, sessions, timeout, warning)

	if err := c.Run(ctx, command, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newCredentialStore собирает хранилище с учетом доступности durable backend
func newCredentialStore(durable *boltdb.Storage, key []byte) *auth.CredentialStore {
	if durable == nil {
		return auth.NewCredentialStore(nil, memory.New(), key)
	}
	return auth.NewCredentialStore(durable, memory.New(), key)
}

func printVersion() {
	fmt.Printf("Folio Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
