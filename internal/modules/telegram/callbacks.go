package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cottage/internal/domain"
	"cottage/internal/modules/booking"
	"cottage/internal/notification"
)

// The admin chat is authenticated by Telegram itself.
var adminActor = booking.Actor{TrustedChannel: true}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil {
		b.answerCallback(cq.ID, "❌ Помилка: не вдалося визначити чат")
		return
	}
	if !b.isAdmin(cq.Message.Chat.ID) {
		b.answerCallback(cq.ID, "❌ Ця функція доступна тільки адміністратору")
		return
	}

	action, id, ok := notification.ParseCallbackData(cq.Data)
	if !ok {
		b.answerCallback(cq.ID, "❌ Невірна команда")
		return
	}

	var (
		bk  *domain.Booking
		err error
	)
	switch action {
	case notification.ActionConfirm:
		bk, err = b.bookings.SetStatus(ctx, id, domain.BookingConfirmed, adminActor)
	case notification.ActionCancel:
		bk, err = b.bookings.SetStatus(ctx, id, domain.BookingCancelled, adminActor)
	case notification.ActionPayment:
		bk, err = b.bookings.ConfirmPayment(ctx, id, adminActor)
	}
	if err != nil {
		b.answerCallback(cq.ID, callbackErrorText(err))
		if !errors.Is(err, booking.ErrNotFound) && !errors.Is(err, booking.ErrInvalidStatusTransition) {
			b.log.Error("handle callback", "action", action, "booking_id", id, "error", err)
		}
		return
	}

	msg := cq.Message
	if action == notification.ActionPayment {
		edit := tgbotapi.NewEditMessageCaption(msg.Chat.ID, msg.MessageID, paymentConfirmedText(bk))
		edit.ParseMode = tgbotapi.ModeHTML
		b.edit(edit)
		b.answerCallback(cq.ID, "✅ Оплату підтверджено")
		return
	}

	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, decisionText(bk))
	edit.ParseMode = tgbotapi.ModeHTML
	b.edit(edit)
	b.answerCallback(cq.ID, fmt.Sprintf("%s Бронь %s", notification.StatusEmoji(bk.Status), strings.ToLower(notification.StatusText(bk.Status))))
}

// edit goes through Request: edits of inline messages answer with a bare
// boolean that Send cannot decode.
func (b *Bot) edit(c tgbotapi.Chattable) {
	if _, err := b.tg.Request(c); err != nil {
		b.log.Warn("edit message failed", "error", err)
	}
}

func callbackErrorText(err error) string {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return "❌ Бронювання не знайдено"
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		return "❌ Статус цієї броні вже не можна змінити"
	default:
		return "❌ Помилка обробки команди"
	}
}

// decisionText replaces the admin's new-booking message once it is acted on;
// the inline buttons go away with it.
func decisionText(bk *domain.Booking) string {
	emoji := notification.StatusEmoji(bk.Status)
	status := notification.StatusText(bk.Status)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>Бронь %s!</b>\n\n", emoji, strings.ToLower(status))
	fmt.Fprintf(&sb, "📋 ID: <code>%s</code>\n", bk.ID)
	fmt.Fprintf(&sb, "👤 Гість: %s\n", notification.Escape(bk.Name))
	fmt.Fprintf(&sb, "📞 Телефон: %s\n\n", notification.Escape(bk.Contact))
	fmt.Fprintf(&sb, "📅 Заїзд: %s\n", notification.FormatDate(bk.CheckIn))
	fmt.Fprintf(&sb, "📅 Виїзд: %s\n", notification.FormatDate(bk.CheckOut))
	fmt.Fprintf(&sb, "👥 Гостей: %d\n\n", bk.Guests())
	fmt.Fprintf(&sb, "💰 Сума: %s\n\n", notification.FormatMoney(bk.QuoteTotal))
	fmt.Fprintf(&sb, "Статус: %s <b>%s</b>", emoji, status)
	return sb.String()
}

func paymentConfirmedText(bk *domain.Booking) string {
	return fmt.Sprintf("✅ <b>Оплату підтверджено!</b>\n\n📋 Бронь: <code>%s</code>\n👤 Гість: %s\n📞 Телефон: %s\n💵 Сума: %s",
		bk.ID, notification.Escape(bk.Name), notification.Escape(bk.Contact), notification.FormatMoney(bk.QuoteTotal))
}
