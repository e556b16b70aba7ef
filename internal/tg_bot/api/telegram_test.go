package api

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeBot struct {
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	err       error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	if b.err != nil {
		return tgbotapi.Message{}, b.err
	}
	return tgbotapi.Message{MessageID: 100 + len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.requested = append(b.requested, c)
	if b.err != nil {
		return nil, b.err
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func buttonLabels(markup tgbotapi.InlineKeyboardMarkup) [][]string {
	rows := make([][]string, 0, len(markup.InlineKeyboard))
	for _, row := range markup.InlineKeyboard {
		labels := make([]string, 0, len(row))
		for _, b := range row {
			labels = append(labels, b.Text)
		}
		rows = append(rows, labels)
	}
	return rows
}

func TestTelegramMessengerSendText(t *testing.T) {
	bot := &fakeBot{}
	m := NewTelegramMessenger(bot)

	id, err := m.SendText(70, models.OutgoingMessage{
		Text:    "Select a transit:",
		Options: []string{"A", "B", "C", constant.BUTTON_TEXT_CHANGE_ADDRESS},
		Columns: 2,
	})
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if id != 101 {
		t.Errorf("id = %d, want 101", id)
	}

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", bot.sent[0])
	}
	if msg.ParseMode != tgbotapi.ModeHTML || msg.ChatID != 70 {
		t.Errorf("message = %+v", msg)
	}
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("markup %T, want InlineKeyboardMarkup", msg.ReplyMarkup)
	}
	want := [][]string{{"A", "B"}, {"C", constant.BUTTON_TEXT_CHANGE_ADDRESS}}
	if got := buttonLabels(markup); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

func TestTelegramMessengerPlainText(t *testing.T) {
	bot := &fakeBot{}
	if _, err := NewTelegramMessenger(bot).SendText(70, models.OutgoingMessage{Text: "hi"}); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if msg := bot.sent[0].(tgbotapi.MessageConfig); msg.ReplyMarkup != nil {
		t.Errorf("markup = %v, want none", msg.ReplyMarkup)
	}
}

func TestTelegramMessengerSendError(t *testing.T) {
	bot := &fakeBot{err: errors.New("Forbidden: bot was blocked by the user")}
	m := NewTelegramMessenger(bot)

	if id, err := m.SendText(70, models.OutgoingMessage{Text: "hi"}); err == nil || id != 0 {
		t.Errorf("SendText = %d, %v; want 0 and an error", id, err)
	}
	if err := m.Delete(70, 5); err == nil {
		t.Error("Delete: want error")
	}
}

func TestTelegramMessengerRequests(t *testing.T) {
	bot := &fakeBot{}
	m := NewTelegramMessenger(bot)

	if _, err := m.SendLocation(70, models.Location{Latitude: 52.52, Longitude: 13.41}); err != nil {
		t.Fatalf("SendLocation: %v", err)
	}
	if err := m.EditText(70, 5, models.OutgoingMessage{Text: "edited", Options: []string{"1"}}); err != nil {
		t.Fatalf("EditText: %v", err)
	}
	if err := m.ClearButtons(70, 6); err != nil {
		t.Fatalf("ClearButtons: %v", err)
	}
	if err := m.Delete(70, 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.AnswerCallback("cb"); err != nil {
		t.Fatalf("AnswerCallback: %v", err)
	}
	if err := m.SetCommands(); err != nil {
		t.Fatalf("SetCommands: %v", err)
	}

	if loc, ok := bot.sent[0].(tgbotapi.LocationConfig); !ok || loc.Latitude != 52.52 {
		t.Errorf("sent %+v, want a location", bot.sent[0])
	}

	edit, ok := bot.requested[0].(tgbotapi.EditMessageTextConfig)
	if !ok || edit.MessageID != 5 || edit.ParseMode != tgbotapi.ModeHTML || edit.ReplyMarkup == nil {
		t.Errorf("edit = %+v", bot.requested[0])
	}
	cleared, ok := bot.requested[1].(tgbotapi.EditMessageReplyMarkupConfig)
	if !ok || cleared.MessageID != 6 || cleared.ReplyMarkup == nil || len(cleared.ReplyMarkup.InlineKeyboard) != 0 {
		t.Errorf("cleared = %+v", bot.requested[1])
	}
	if del, ok := bot.requested[2].(tgbotapi.DeleteMessageConfig); !ok || del.MessageID != 7 {
		t.Errorf("delete = %+v", bot.requested[2])
	}
	if cb, ok := bot.requested[3].(tgbotapi.CallbackConfig); !ok || cb.CallbackQueryID != "cb" {
		t.Errorf("callback = %+v", bot.requested[3])
	}
	cmds, ok := bot.requested[4].(tgbotapi.SetMyCommandsConfig)
	if !ok || len(cmds.Commands) != 3 {
		t.Errorf("commands = %+v", bot.requested[4])
	}
}

func TestInlineKeyboardCallbackData(t *testing.T) {
	long := strings.Repeat("Ü", 40) // 80 bytes
	markup, ok := inlineKeyboard(models.OutgoingMessage{Options: []string{long}, Columns: 0})
	if !ok {
		t.Fatal("no keyboard")
	}
	button := markup.InlineKeyboard[0][0]
	if button.Text != long {
		t.Errorf("label was truncated")
	}
	data := *button.CallbackData
	if len(data) > constant.CALLBACK_DATA_MAX_BYTES || !utf8.ValidString(data) {
		t.Errorf("callback data %q is %d bytes", data, len(data))
	}
	if !strings.HasPrefix(long, data) || len(data) != 64 {
		t.Errorf("callback data = %q, want the first 32 runes", data)
	}
}

func TestInlineKeyboardLongLineKey(t *testing.T) {
	key := models.Line{Name: "Bus 248", Direction: "Berlin, S+U Hauptbahnhof/Invalidenstraße via Alt-Moabit"}.Key()
	markup, _ := inlineKeyboard(models.OutgoingMessage{Options: []string{key}, Columns: 2})

	data := *markup.InlineKeyboard[0][0].CallbackData
	if len(data) != constant.CALLBACK_DATA_MAX_BYTES || !strings.HasPrefix(key, data) {
		t.Errorf("callback data = %q (%d bytes), want the first %d bytes of %q", data, len(data), constant.CALLBACK_DATA_MAX_BYTES, key)
	}
}

func TestTruncateData(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{in: "S+U Alexanderplatz", limit: 64, want: "S+U Alexanderplatz"},
		{in: "abcdef", limit: 3, want: "abc"},
		{in: "aÜb", limit: 2, want: "a"},
		{in: "aÜb", limit: 3, want: "aÜ"},
	}
	for _, tt := range tests {
		if got := truncateData(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncateData(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
