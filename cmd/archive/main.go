package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/auth"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/handler"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/notify"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/persistence/sqlite"
	"github.com/MahmoudNasser1/FZ-Maintenance-Archive/internal/server"
	"github.com/Netflix/go-env"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type App struct {
	logger          *zap.Logger
	settings        Settings
	store           *sqlite.Store
	queue           *notify.Queue
	sweeper         *notify.RetentionSweeper
	websocketServer *server.WebSocketServer
	restServer      *server.RESTServer
}

func NewApp(logger *zap.Logger, settings Settings) (*App, error) {
	store, err := sqlite.Open(settings.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	authenticator := auth.NewAuthenticator(
		settings.JWTSecret,
		time.Duration(settings.TokenTTLMinutes)*time.Minute,
	)

	registry := notify.NewInMemoryRegistry(logger)
	dispatcher := notify.NewDispatcher(logger, registry, store, store, store)
	queue := notify.NewQueue(logger, settings.DispatchQueueSize)

	authHandler := handler.NewAuthHandler(store, authenticator)
	userHandler := handler.NewUserHandler(store)
	caseHandler := handler.NewCaseHandler(logger, store, store, store, dispatcher, queue)
	batchHandler := handler.NewBatchHandler(logger, store, store, store, dispatcher, queue)
	noteHandler := handler.NewNoteHandler(store, store, store)
	notificationHandler := handler.NewNotificationHandler(store, dispatcher, queue)

	websocketUpgrader := &websocket.Upgrader{
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		EnableCompression: true,
	}

	websocketServer := server.NewWebSocketServer(
		logger,
		websocketUpgrader,
		authenticator,
		store,
		registry,
	)
	restServer := server.NewRESTServer(
		logger,
		authenticator,
		store,
		authHandler,
		userHandler,
		caseHandler,
		batchHandler,
		noteHandler,
		notificationHandler,
	)

	sweeper := notify.NewRetentionSweeper(logger, store, settings.RetentionDays)

	return &App{
		logger:          logger,
		settings:        settings,
		store:           store,
		queue:           queue,
		sweeper:         sweeper,
		websocketServer: websocketServer,
		restServer:      restServer,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	notifyCtx, notifyCtxCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer notifyCtxCancel()

	address := fmt.Sprintf("0.0.0.0:%d", a.settings.Port)

	router := mux.NewRouter().
		PathPrefix(a.settings.BasePath).
		Subrouter()

	a.websocketServer.Register(router)
	a.restServer.Register(router)

	go a.sweeper.Run(notifyCtx, 24*time.Hour)

	httpServer := &http.Server{
		Addr:    address,
		Handler: router,
	}

	a.logger.Info("starting http server",
		zap.String("address", address))

	go func() {
		err := httpServer.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("failed to start http server",
				zap.Error(err))
		}
	}()

	<-notifyCtx.Done()

	a.logger.Info("stopping http server")

	shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCtxCancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	a.queue.Close()
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}

	a.logger.Info("http server stopped")

	return nil
}

func main() {
	ctx := context.Background()

	var settings Settings
	_, err := env.UnmarshalFromEnviron(&settings)
	if err != nil {
		panic(err)
	}

	logger, err := buildZapLogger(settings.LogEncoding)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	app, err := NewApp(logger, settings)
	if err != nil {
		logger.Fatal("failed to set up application", zap.Error(err))
	}

	err = app.Run(ctx)
	if err != nil {
		logger.Fatal("application exited with error", zap.Error(err))
	}
}
