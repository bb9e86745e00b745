package lib

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hihikaAAa/duty-bot/internal/calendar"
)

// Messenger sends and edits chat messages on behalf of the flow.
type Messenger struct {
	api botAPI
}

func NewMessenger(api *tgbotapi.BotAPI) *Messenger { return &Messenger{api: api} }

func (m *Messenger) Send(ctx context.Context, chatID int64, text string, w *calendar.Widget) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if w != nil {
		msg.ReplyMarkup = keyboard(*w)
	}
	sent, err := m.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("telegram: send: %w", err)
	}
	return sent.MessageID, nil
}

// Edit rewrites a message in place. A nil widget drops the inline keyboard.
func (m *Messenger) Edit(ctx context.Context, chatID int64, messageID int, text string, w *calendar.Widget) error {
	var edit tgbotapi.Chattable
	if w != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard(*w))
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	if _, err := m.api.Request(edit); err != nil {
		return fmt.Errorf("telegram: edit: %w", err)
	}
	return nil
}

func keyboard(w calendar.Widget) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(w.Rows))
	for _, r := range w.Rows {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, btn := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
