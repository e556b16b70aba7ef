package tbot

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DenisKhanov/TransitBot/internal/logcfg"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/api"
	botHand "github.com/DenisKhanov/TransitBot/internal/tg_bot/api/http"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/config"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/infra/storage"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// App represents the application structure responsible for initializing dependencies
// and running the Telegram bot.
type App struct {
	serviceProvider *ServiceProvider // The service provider for dependency injection
	config          *config.Config   // The configuration object for the application
	statusServer    *http.Server     // Status server, nil when STATUS_ADDR is empty

	ctx    context.Context    // Parent of every tracking session
	cancel context.CancelFunc // Stops every tracking session
}

// NewApp creates a new instance of the application.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}
	app.ctx, app.cancel = context.WithCancel(ctx)
	err := app.initDeps(app.ctx)
	if err != nil {
		app.cancel()
		return nil, err
	}
	return app, nil
}

// Run starts the application and runs the Telegram bot.
func (a *App) Run() {
	defer a.cancel()
	a.runStatusServer()
	a.runTelegramBot()
}

// initDeps initializes all dependencies required by the application.
func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
		a.initStatusServer,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// initConfig initializes the application configuration.
func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	a.config = cfg
	logcfg.RunLoggerConfig(a.config.EnvLogsLevel, a.config.EnvLogFileName)
	return nil
}

// initServiceProvider initializes the service provider for dependency injection.
func (a *App) initServiceProvider(ctx context.Context) error {
	a.serviceProvider = NewServiceProvider(ctx, a.config)
	return nil
}

// initStatusServer initializes the status server with middleware and routes.
func (a *App) initStatusServer(_ context.Context) error {
	if a.config.EnvStatusAddr == "" {
		return nil
	}
	gin.SetMode(gin.ReleaseMode)
	router := botHand.NewRouter(a.serviceProvider.Handler())

	a.statusServer = &http.Server{
		Addr:              a.config.EnvStatusAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// runStatusServer serves the status endpoints in the background.
func (a *App) runStatusServer() {
	if a.statusServer == nil {
		return
	}
	go func() {
		logrus.Infof("Status server started on: %s", a.statusServer.Addr)
		if err := a.statusServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("Status server stopped")
		}
	}()
}

// runTelegramBot starts the Telegram bot with graceful shutdown.
func (a *App) runTelegramBot() {
	// Initialize bot API
	botAPI, err := a.serviceProvider.BotAPI()
	if err != nil {
		logrus.Fatalf("[ERROR] can't make telegram bot, %v", err)
	}
	logrus.Infof("Bot API created successfully for %s", botAPI.Self.UserName)

	// Initialize bot service
	myBot, err := a.serviceProvider.BotService(botAPI)
	if err != nil {
		logrus.Fatalf("[ERROR] can't make bot service, %v", err)
	}
	if err = a.serviceProvider.Messenger(botAPI).SetCommands(); err != nil {
		logrus.WithError(err).Warn("Failed to register bot commands")
	}

	profiles, err := a.serviceProvider.ProfileStore()
	if err != nil {
		logrus.Fatalf("[ERROR] can't open profile store, %v", err)
	}

	// Setup ticker for periodic profile saving
	ticker := time.NewTicker(a.config.FlushInterval())
	defer ticker.Stop()

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	// Configure updates channel
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60 // seconds timeout
	updates := api.NewUpdatePoller(botAPI, botAPI.Buffer).Updates(a.ctx, updateConfig)

	// Main loop
	for {
		select {
		case sig := <-signalChan: // Wait for shutdown signal
			logrus.Infof("Received %v signal, shutting down bot...", sig)
			a.shutdown(profiles)
			return

		case <-ticker.C: // Ticker event
			if err = profiles.Flush(a.ctx); err != nil {
				logrus.Error("Error while saving profiles on ticker: ", err)
			}

		case update, ok := <-updates: // Telegram updates
			if !ok {
				logrus.Warn("Telegram updates channel closed")
				a.shutdown(profiles)
				return
			}
			myBot.UpdateProcessing(a.ctx, &update)
		}
	}
}

// shutdown stops the updates, cancels every tracking session, flushes the profiles
// and stops the status server.
func (a *App) shutdown(profiles storage.ProfileStorage) {
	a.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := profiles.Flush(shutdownCtx); err != nil {
		logrus.Error("Error while saving profiles on shutdown: ", err)
	}
	if err := profiles.Close(); err != nil {
		logrus.Error("Error while closing profile store: ", err)
	}

	if a.statusServer != nil {
		if err := a.statusServer.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("Status server shutdown error")
		}
	}
	logrus.Info("Bot exited")
}
