package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cottage/internal/domain"
	"cottage/internal/notification"
	"cottage/internal/pkg/contact"
	"cottage/internal/repository"
)

const authFailedText = "❌ Помилка авторизації. Спробуйте пізніше."

// handleContact authorizes a chat by the phone number the guest shared,
// creating a password-less account when the number is new.
func (b *Bot) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	shared := msg.Contact
	if msg.From != nil && shared.UserID != 0 && shared.UserID != msg.From.ID {
		b.reply(chatID, "❌ Будь ласка, поділіться власним номером телефону.")
		return
	}

	phone, ok := b.normalizer.Phone(shared.PhoneNumber)
	if !ok {
		b.reply(chatID, "❌ Не вдалося розпізнати номер телефону.")
		return
	}

	name := strings.TrimSpace(shared.FirstName + " " + shared.LastName)
	u, created, err := b.users.FindOrCreateByPhone(ctx, phone, name)
	if err != nil {
		b.log.Error("find or create phone user", "chat_id", chatID, "error", err)
		b.reply(chatID, authFailedText)
		return
	}

	count, err := b.bindChat(ctx, u, chatID)
	if err != nil {
		b.reply(chatID, authFailedText)
		return
	}

	var text string
	if created {
		text = "✅ Вас зареєстровано!\n\n"
		if count > 0 {
			text += fmt.Sprintf("Знайдено і прив'язано %d %s! 🎉\n\n", count, bookingsWord(count))
		} else {
			text += "Тепер ви можете створювати брони на сайті, і ми будемо надсилати вам сповіщення тут.\n\n"
		}
		text += userCommandsHelp
	} else {
		text = fmt.Sprintf("✅ Авторизація успішна!\n\nВи увійшли як: %s\nЗнайдено бронювань: %d\n\n%s",
			notification.Escape(displayName(u)), count, userCommandsHelp)
	}

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.send(reply)
}

// handleEmail treats free text from an unbound chat as an e-mail address
// of an existing account.
func (b *Bot) handleEmail(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.isAdmin(chatID) || b.chatUser(ctx, chatID) != nil {
		return
	}

	email, ok := b.normalizer.Email(msg.Text)
	if !ok {
		b.reply(chatID, "❌ Невірний формат email. Спробуйте ще раз або натисніть кнопку '"+shareContactButton+"'.")
		return
	}

	u, err := b.users.FindByIdentifier(ctx, contact.Identifier{Kind: contact.KindEmail, Value: email})
	if errors.Is(err, repository.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("❌ Користувача з email %s не знайдено.\n\n"+
			"Спочатку зареєструйтеся на сайті або натисніть кнопку '%s' для автоматичної реєстрації.",
			notification.Escape(email), shareContactButton))
		return
	}
	if err != nil {
		b.log.Error("find user by email", "chat_id", chatID, "error", err)
		b.reply(chatID, authFailedText)
		return
	}

	count, err := b.bindChat(ctx, u, chatID)
	if err != nil {
		b.reply(chatID, authFailedText)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Авторизація успішна!\n\nВи увійшли як: %s\nEmail: %s\nЗнайдено бронювань: %d\n\n%s",
		notification.Escape(displayName(u)), notification.Escape(email), count, userCommandsHelp))
}

// bindChat attaches the chat to u, claims u's anonymous bookings and
// returns how many bookings u owns afterwards.
func (b *Bot) bindChat(ctx context.Context, u *domain.User, chatID int64) (int64, error) {
	if err := b.users.SetChatID(ctx, u.ID, chatID); err != nil {
		b.log.Error("bind telegram chat", "user_id", u.ID, "chat_id", chatID, "error", err)
		return 0, err
	}
	if _, err := b.linker.LinkUser(ctx, u.ID); err != nil {
		b.log.Warn("link bookings after chat auth", "user_id", u.ID, "error", err)
	}
	count, err := b.bookings.CountForUser(ctx, u.ID)
	if err != nil {
		b.log.Warn("count user bookings", "user_id", u.ID, "error", err)
		return 0, nil
	}
	b.log.Info("telegram chat authorized", "user_id", u.ID, "chat_id", chatID)
	return count, nil
}

func bookingsWord(n int64) string {
	if n == 1 {
		return "бронювання"
	}
	return "бронювань"
}
