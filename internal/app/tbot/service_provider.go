// Package tbot provides dependency injection and service management for Telegram bot components.
// It initializes and provides access to gateways, repositories and services required for bot operations.
package tbot

import (
	"context"
	"fmt"
	"sync"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/api"
	botHand "github.com/DenisKhanov/TransitBot/internal/tg_bot/api/http"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/config"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/infra/storage"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/repository"
	botServ "github.com/DenisKhanov/TransitBot/internal/tg_bot/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// ServiceProvider manages the dependency injection for Telegram bot components.
type ServiceProvider struct {
	config *config.Config

	// Tracking sessions are children of this context
	baseCtx context.Context

	// Gateways
	transit  *api.TransitAPI
	geocoder *api.GeocodeAPI

	// Repositories
	profileStore    storage.ProfileStorage
	profileStoreErr error
	dialogStates    *repository.DialogStates

	// Bot API
	botAPI    *tgbotapi.BotAPI
	botAPIErr error
	messenger *api.TelegramMessenger

	// Services
	registry   *botServ.TaskRegistry
	tracker    *botServ.Tracker
	dialog     *botServ.Dialog
	botService *botServ.TgBotServices

	// Handler
	handler *botHand.Handler

	transitOnce      sync.Once
	geocoderOnce     sync.Once
	profileStoreOnce sync.Once
	dialogStatesOnce sync.Once
	botAPIOnce       sync.Once
	messengerOnce    sync.Once
	registryOnce     sync.Once
	trackerOnce      sync.Once
	dialogOnce       sync.Once
	botServiceOnce   sync.Once
	handlerOnce      sync.Once
}

// NewServiceProvider creates a new instance of the service provider.
// Arguments:
//   - baseCtx: parent context of every tracking session, cancelled on shutdown.
//   - cfg: validated application configuration.
func NewServiceProvider(baseCtx context.Context, cfg *config.Config) *ServiceProvider {
	if cfg == nil {
		logrus.Fatal("ServiceProvider requires a configuration")
	}
	return &ServiceProvider{
		config:  cfg,
		baseCtx: baseCtx,
	}
}

// TransitAPI returns the transport.rest gateway.
func (s *ServiceProvider) TransitAPI() *api.TransitAPI {
	s.transitOnce.Do(func() {
		s.transit = api.NewTransitAPI(s.config.EnvTransitEndpoint, s.config.EnvGeocodeUserAgent, s.config.HTTPTimeout())
		logrus.Info("TransitAPI initialized")
	})
	return s.transit
}

// GeocodeAPI returns the Nominatim geocoder.
func (s *ServiceProvider) GeocodeAPI() *api.GeocodeAPI {
	s.geocoderOnce.Do(func() {
		s.geocoder = api.NewGeocodeAPI(s.config.EnvGeocodeEndpoint, s.config.EnvGeocodeUserAgent, s.config.HTTPTimeout())
		logrus.Info("GeocodeAPI initialized")
	})
	return s.geocoder
}

// ProfileStore returns the user profile store selected by PROFILE_STORAGE.
func (s *ServiceProvider) ProfileStore() (storage.ProfileStorage, error) {
	s.profileStoreOnce.Do(func() {
		s.profileStore, s.profileStoreErr = storage.StorageFactory(s.baseCtx, s.config.EnvProfileStorage, storage.Options{
			FilePath:      s.config.EnvStoragePath,
			SQLitePath:    s.config.EnvSQLitePath,
			MySQLDSN:      s.config.EnvMySQLDSN,
			RedisAddr:     s.config.EnvRedisAddr,
			RedisPassword: s.config.EnvRedisPassword,
			RedisDB:       s.config.EnvRedisDB,
		})
		if s.profileStoreErr != nil {
			logrus.Errorf("Failed to initialize profile store: %v", s.profileStoreErr)
			return
		}
		logrus.Infof("ProfileStore initialized with %s backend", s.config.EnvProfileStorage)
	})
	if s.profileStoreErr != nil {
		return nil, fmt.Errorf("profile store not initialized: %w", s.profileStoreErr)
	}
	return s.profileStore, nil
}

// DialogStates returns the per-chat conversation state repository.
func (s *ServiceProvider) DialogStates() *repository.DialogStates {
	s.dialogStatesOnce.Do(func() {
		s.dialogStates = repository.NewDialogStates()
		logrus.Info("DialogStates initialized")
	})
	return s.dialogStates
}

// BotAPI returns the Telegram Bot API instance.
func (s *ServiceProvider) BotAPI() (*tgbotapi.BotAPI, error) {
	s.botAPIOnce.Do(func() {
		s.botAPI, s.botAPIErr = tgbotapi.NewBotAPI(s.config.EnvBotToken)
		if s.botAPIErr != nil {
			logrus.Errorf("Failed to initialize BotAPI: %v", s.botAPIErr)
			return
		}
		s.botAPI.Debug = s.config.EnvBotDebug
		logrus.Info("BotApi initialized")
	})
	if s.botAPIErr != nil {
		return nil, fmt.Errorf("bot API not initialized: %w", s.botAPIErr)
	}
	return s.botAPI, nil
}

// Messenger returns the Telegram messenger built on botAPI.
func (s *ServiceProvider) Messenger(botAPI *tgbotapi.BotAPI) *api.TelegramMessenger {
	s.messengerOnce.Do(func() {
		s.messenger = api.NewTelegramMessenger(botAPI)
		logrus.Info("Messenger initialized")
	})
	return s.messenger
}

// TaskRegistry returns the registry of running tracking tasks.
func (s *ServiceProvider) TaskRegistry() *botServ.TaskRegistry {
	s.registryOnce.Do(func() {
		s.registry = botServ.NewTaskRegistry()
		logrus.Info("TaskRegistry initialized")
	})
	return s.registry
}

// Tracker returns the tracking scheduler. A session that ends by itself moves its chat back to Idle.
func (s *ServiceProvider) Tracker(messenger botServ.Messenger) *botServ.Tracker {
	s.trackerOnce.Do(func() {
		states := s.DialogStates()
		s.tracker = botServ.NewTracker(s.baseCtx, s.TransitAPI(), messenger, s.TaskRegistry(),
			botServ.WithNotFoundAfter(s.config.EnvNotFoundAfter),
			botServ.WithOnFinish(func(session models.TrackingSession, _ botServ.Outcome) {
				states.ResetIfTracking(session.ChatID)
			}),
		)
		logrus.Info("Tracker initialized")
	})
	return s.tracker
}

// Dialog returns the conversation state machine.
func (s *ServiceProvider) Dialog() (*botServ.Dialog, error) {
	profiles, err := s.ProfileStore()
	if err != nil {
		return nil, err
	}
	s.dialogOnce.Do(func() {
		s.dialog = botServ.NewDialog(s.GeocodeAPI(), s.TransitAPI(), profiles)
		logrus.Info("Dialog initialized")
	})
	return s.dialog, nil
}

// BotService returns the main Telegram bot service.
func (s *ServiceProvider) BotService(botAPI *tgbotapi.BotAPI) (*botServ.TgBotServices, error) {
	dialog, err := s.Dialog()
	if err != nil {
		logrus.Errorf("Failed to get dialog: %v", err)
		return nil, fmt.Errorf("bot service not initialized: %w", err)
	}

	s.botServiceOnce.Do(func() {
		messenger := s.Messenger(botAPI)
		s.botService = botServ.NewTgBot(
			dialog,
			s.Tracker(messenger),
			s.TaskRegistry(),
			s.DialogStates(),
			messenger,
		)
		logrus.Info("BotService initialized")
	})
	return s.botService, nil
}

// Handler returns the status HTTP handler.
func (s *ServiceProvider) Handler() *botHand.Handler {
	s.handlerOnce.Do(func() {
		s.handler = botHand.NewHandler(s.TaskRegistry())
		logrus.Info("Handler initialized")
	})
	return s.handler
}
