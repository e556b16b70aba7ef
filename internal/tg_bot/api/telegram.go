package api

import (
	"fmt"
	"unicode/utf8"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// BotSender is the part of *tgbotapi.BotAPI the messenger uses.
type BotSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramMessenger sends HTML messages with inline keyboards through the Bot API.
type TelegramMessenger struct {
	bot BotSender
}

// NewTelegramMessenger creates a new instance of TelegramMessenger.
func NewTelegramMessenger(bot BotSender) *TelegramMessenger {
	return &TelegramMessenger{bot: bot}
}

// SendText sends msg to the chat and returns the ID of the new message.
func (t *TelegramMessenger) SendText(chatID int64, msg models.OutgoingMessage) (int, error) {
	out := tgbotapi.NewMessage(chatID, msg.Text)
	out.ParseMode = tgbotapi.ModeHTML
	if markup, ok := inlineKeyboard(msg); ok {
		out.ReplyMarkup = markup
	}
	sent, err := t.bot.Send(out)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d", chatID)
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// SendLocation sends a location marker and returns the ID of the new message.
func (t *TelegramMessenger) SendLocation(chatID int64, loc models.Location) (int, error) {
	sent, err := t.bot.Send(tgbotapi.NewLocation(chatID, loc.Latitude, loc.Longitude))
	if err != nil {
		logrus.WithError(err).Errorf("Failed to send location to chat %d", chatID)
		return 0, fmt.Errorf("send location: %w", err)
	}
	return sent.MessageID, nil
}

// EditText replaces the text and the buttons of a message.
func (t *TelegramMessenger) EditText(chatID int64, messageID int, msg models.OutgoingMessage) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, msg.Text)
	edit.ParseMode = tgbotapi.ModeHTML
	if markup, ok := inlineKeyboard(msg); ok {
		edit.ReplyMarkup = &markup
	}
	if _, err := t.bot.Request(edit); err != nil {
		return fmt.Errorf("edit message %d: %w", messageID, err)
	}
	return nil
}

// ClearButtons removes the inline keyboard of a message.
func (t *TelegramMessenger) ClearButtons(chatID int64, messageID int) error {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0)}
	if _, err := t.bot.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)); err != nil {
		return fmt.Errorf("clear buttons of %d: %w", messageID, err)
	}
	return nil
}

// Delete deletes a message.
func (t *TelegramMessenger) Delete(chatID int64, messageID int) error {
	if _, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query so the client stops its loading indicator.
func (t *TelegramMessenger) AnswerCallback(callbackID string) error {
	if _, err := t.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// SetCommands registers the bot command list shown by Telegram clients.
func (t *TelegramMessenger) SetCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: constant.COMMAND_START, Description: "start tracking your transit"},
		tgbotapi.BotCommand{Command: constant.COMMAND_CANCEL, Description: "cancel the tracking"},
		tgbotapi.BotCommand{Command: constant.COMMAND_HELP, Description: "display the usage"},
	)
	if _, err := t.bot.Request(cfg); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// inlineKeyboard lays the options out in rows of msg.Columns buttons. The button label is the
// option itself, the callback data is the option cut to the Telegram limit.
func inlineKeyboard(msg models.OutgoingMessage) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(msg.Options) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	cols := msg.Columns
	if cols < 1 {
		cols = 1
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, (len(msg.Options)+cols-1)/cols)
	for start := 0; start < len(msg.Options); start += cols {
		end := min(start+cols, len(msg.Options))
		row := make([]tgbotapi.InlineKeyboardButton, 0, end-start)
		for _, opt := range msg.Options[start:end] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(opt, truncateData(opt, constant.CALLBACK_DATA_MAX_BYTES)))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// truncateData cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncateData(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := 0
	for i, r := range s {
		size := utf8.RuneLen(r)
		if size < 0 {
			size = 1
		}
		if i+size > limit {
			break
		}
		cut = i + size
	}
	return s[:cut]
}
