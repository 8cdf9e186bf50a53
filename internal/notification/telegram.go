package notification

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramAPI interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender delivers messages through the Bot API.
type TelegramSender struct {
	api telegramAPI
}

func NewTelegramSender(api telegramAPI) *TelegramSender {
	return &TelegramSender{api: api}
}

func (s *TelegramSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.api.Send(Chattable(msg))
	return err
}

// Chattable converts msg into the Bot API request that delivers it.
func Chattable(msg Message) tgbotapi.Chattable {
	if msg.PhotoFileID != "" {
		photo := tgbotapi.NewPhoto(msg.ChatID, tgbotapi.FileID(msg.PhotoFileID))
		photo.Caption = msg.Text
		photo.ParseMode = tgbotapi.ModeHTML
		if len(msg.Buttons) > 0 {
			photo.ReplyMarkup = InlineKeyboard(msg.Buttons)
		}
		return photo
	}

	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true
	if len(msg.Buttons) > 0 {
		out.ReplyMarkup = InlineKeyboard(msg.Buttons)
	}
	return out
}

func InlineKeyboard(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		out = append(out, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}
