// Package service provides the core logic of the transit tracking bot: the conversation state
// machine, the per-user tracking tasks and the dispatcher that connects them to Telegram updates.
package service

import (
	"context"
	"strconv"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Messenger is the outbound chat transport. Every text is sent as HTML.
type Messenger interface {
	SendText(chatID int64, msg models.OutgoingMessage) (int, error)
	SendLocation(chatID int64, loc models.Location) (int, error)
	EditText(chatID int64, messageID int, msg models.OutgoingMessage) error
	ClearButtons(chatID int64, messageID int) error
	Delete(chatID int64, messageID int) error
	AnswerCallback(callbackID string) error
}

// The DialogRepository defines the interface for per-chat conversation state.
type DialogRepository interface {
	Load(chatID int64) models.DialogState
	Store(chatID int64, state models.DialogState)
	ResetIfTracking(chatID int64) bool
}

// TgBotServices is the update dispatcher, integrating all dependencies.
type TgBotServices struct {
	Dialog    *Dialog          // Conversation state machine.
	Tracker   *Tracker         // Spawns tracking tasks.
	Registry  *TaskRegistry    // Running tracking tasks by user.
	StateRepo DialogRepository // Per-chat conversation state.
	Messenger Messenger        // Chat transport.
}

// NewTgBot creates a new TgBotServices instance with the specified dependencies.
// Arguments:
//   - dialog: conversation state machine.
//   - tracker: tracking task spawner.
//   - registry: task registry shared with the tracker.
//   - stateRepo: per-chat state repository.
//   - messenger: chat transport.
//
// Returns a pointer to a TgBotServices.
func NewTgBot(dialog *Dialog, tracker *Tracker, registry *TaskRegistry, stateRepo DialogRepository, messenger Messenger) *TgBotServices {
	return &TgBotServices{
		Dialog:    dialog,
		Tracker:   tracker,
		Registry:  registry,
		StateRepo: stateRepo,
		Messenger: messenger,
	}
}

// UpdateProcessing handles one incoming Telegram update (message or callback query).
func (b *TgBotServices) UpdateProcessing(ctx context.Context, update *tgbotapi.Update) {
	ev, ok := b.eventFromUpdate(update)
	if !ok {
		return
	}

	state := b.StateRepo.Load(ev.ChatID)
	next, effects := b.Dialog.Advance(ctx, state, ev)
	b.StateRepo.Store(ev.ChatID, next)

	logrus.WithFields(logrus.Fields{
		"chatID": ev.ChatID,
		"userID": ev.UserID,
		"from":   state.Kind().String(),
		"to":     next.Kind().String(),
	}).Debug("Dialog transition")

	b.apply(ev.ChatID, effects)
}

// eventFromUpdate converts a Telegram update to a dialog event.
func (b *TgBotServices) eventFromUpdate(update *tgbotapi.Update) (Event, bool) {
	if q := update.CallbackQuery; q != nil {
		if err := b.Messenger.AnswerCallback(q.ID); err != nil {
			logrus.WithError(err).Warn("Failed to answer callback query")
		}
		if q.Message == nil || q.Message.Chat == nil || q.From == nil {
			return Event{}, false
		}
		return Event{
			Kind:      EventSelection,
			UserID:    strconv.FormatInt(q.From.ID, 10),
			ChatID:    q.Message.Chat.ID,
			MessageID: q.Message.MessageID,
			Text:      q.Data,
		}, true
	}

	m := update.Message
	if m == nil || m.Chat == nil || m.From == nil {
		return Event{}, false
	}
	ev := Event{
		UserID:    strconv.FormatInt(m.From.ID, 10),
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
	}
	switch {
	case m.IsCommand():
		logrus.Infof("Command [%s] from %s (chat %d)", m.Text, m.From.UserName, m.Chat.ID)
		ev.Kind = EventCommand
		ev.Command = m.Command()
	case m.Location != nil:
		ev.Kind = EventLocation
		ev.Location = models.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	default:
		ev.Kind = EventText
		ev.Text = m.Text
	}
	return ev, true
}

// apply carries out the effects of a transition in order.
func (b *TgBotServices) apply(chatID int64, effects []Effect) {
	for _, e := range effects {
		var err error
		switch e := e.(type) {
		case SendEffect:
			_, err = b.Messenger.SendText(chatID, e.Message)
		case EditEffect:
			if e.MessageID != 0 {
				err = b.Messenger.EditText(chatID, e.MessageID, e.Message)
			}
		case ClearButtonsEffect:
			if e.MessageID != 0 {
				err = b.Messenger.ClearButtons(chatID, e.MessageID)
			}
		case DeleteEffect:
			if e.MessageID != 0 {
				err = b.Messenger.Delete(chatID, e.MessageID)
			}
		case StartTrackingEffect:
			b.Tracker.Start(e.Session)
		case StopTrackingEffect:
			if b.Registry.Cancel(e.UserID) {
				logrus.WithField("userID", e.UserID).Info("Tracking cancelled by user")
			}
		}
		if err != nil {
			logrus.WithError(err).WithField("chatID", chatID).Errorf("Failed to apply %T", e)
		}
	}
}
