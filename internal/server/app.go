// Package server wires the application together: configuration, logging,
// database, migrations, services, and the HTTP endpoint, with graceful
// shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/aleksvdm/gopherchat/internal/cryptox"
	"github.com/aleksvdm/gopherchat/internal/logging"
	"github.com/aleksvdm/gopherchat/internal/server/config"
	"github.com/aleksvdm/gopherchat/internal/server/httpapi"
	"github.com/aleksvdm/gopherchat/internal/server/password"
	"github.com/aleksvdm/gopherchat/internal/server/relay"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/repomanager"
	"github.com/aleksvdm/gopherchat/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	repos  repomanager.RepositoryManager
	server *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	handler := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(handler)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key decode error: %w", err)
	}
	box, err := cryptox.NewBox(key)
	if err != nil {
		return nil, fmt.Errorf("encryption init error: %w", err)
	}

	hasher, err := password.NewHasher()
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	client := relay.NewClient(cfg.RelayTimeout)

	authService := services.NewAuthService(db, m, cfg, hasher)
	userService := services.NewUserService(db, m)
	modelConfigService := services.NewModelConfigService(db, m, box)
	conversationService := services.NewConversationService(db, m, modelConfigService, client)
	attachmentService := services.NewAttachmentService(cfg)
	chatService := services.NewChatService(db, m, modelConfigService, client, attachmentService)

	srv := httpapi.NewServer(logger, cfg,
		authService, userService, conversationService,
		chatService, modelConfigService, attachmentService)

	return &App{config: cfg, logger: logger, db: db, repos: m, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migration error", "error", err)
		return
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server error", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
