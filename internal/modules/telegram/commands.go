package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cottage/internal/domain"
	"cottage/internal/notification"
)

const (
	startBookingPrefix = "booking_"
	myBookingsLimit    = 10

	shareContactButton = "📱 Поділитися номером"

	userCommandsHelp = "Доступні команди:\n" +
		"/my_bookings - мої брони\n" +
		"/contact - написати адміністратору"

	adminGreeting = "👋 Привіт, адміністратор!\n\n" +
		"Доступні команди:\n" +
		"/today - брони на сьогодні\n" +
		"/pending - непідтверджені брони\n\n" +
		"Ви автоматично отримуватимете сповіщення про нові брони та завантажені чеки."

	contactsText = "📞 <b>Контакти адміністрації:</b>\n\n" +
		"📱 Телефон: +380507096162\n" +
		"📧 Email: tyshacottages@gmail.com\n" +
		"💬 Telegram: @a_servelle"

	notAuthorizedText = "❌ Ви не авторизовані. Використайте /start для авторизації."
	adminOnlyText     = "❌ Ця команда доступна тільки адміністратору."
	loadFailedText    = "❌ Помилка завантаження бронювань."
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, chatID, msg.CommandArguments())
	case "my_bookings":
		b.handleMyBookings(ctx, chatID)
	case "today":
		b.handleToday(ctx, chatID)
	case "pending":
		b.handlePending(ctx, chatID)
	case "contact":
		b.reply(chatID, contactsText)
	default:
		b.reply(chatID, userCommandsHelp)
	}
}

// handleStart greets the chat. A deep link of the form booking_<id> shows
// that booking to its owner along with receipt instructions.
func (b *Bot) handleStart(ctx context.Context, chatID int64, payload string) {
	if b.isAdmin(chatID) {
		b.reply(chatID, adminGreeting)
		return
	}

	bookingID := strings.TrimPrefix(strings.TrimSpace(payload), startBookingPrefix)
	if bookingID == strings.TrimSpace(payload) {
		bookingID = ""
	}

	if u := b.chatUser(ctx, chatID); u != nil {
		var sb strings.Builder
		fmt.Fprintf(&sb, "👋 Вітаємо, %s!\n\n", notification.Escape(displayName(u)))
		if bookingID != "" {
			if bk, err := b.bookings.GetByID(ctx, bookingID); err == nil && ownedBy(bk, u) {
				fmt.Fprintf(&sb, "📋 Бронь: <code>%s</code>\n", bk.ID)
				fmt.Fprintf(&sb, "📅 %s - %s\n", notification.FormatDate(bk.CheckIn), notification.FormatDate(bk.CheckOut))
				fmt.Fprintf(&sb, "💰 Сума: %s\n\n", notification.FormatMoney(bk.QuoteTotal))
				sb.WriteString("Щоб надіслати квитанцію про оплату, просто надішліть фото чека в цей чат.\n\n")
			}
		}
		sb.WriteString(userCommandsHelp)
		b.reply(chatID, sb.String())
		return
	}

	text := "👋 Вітаємо у Тиша Котеджі!\n\n"
	if bookingID != "" {
		text += "Щоб надіслати квитанцію про оплату та переглядати свої брони, "
	} else {
		text += "Щоб переглядати свої брони та отримувати сповіщення, "
	}
	text += "будь ласка, поділіться своїм номером телефону."

	msg := tgbotapi.NewMessage(chatID, text)
	keyboard := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButtonContact(shareContactButton),
	))
	keyboard.OneTimeKeyboard = true
	msg.ReplyMarkup = keyboard
	b.send(msg)

	b.send(tgbotapi.NewMessage(chatID, "Або надішліть свій email у форматі:\nприклад@email.com"))
}

func (b *Bot) handleMyBookings(ctx context.Context, chatID int64) {
	u := b.chatUser(ctx, chatID)
	if u == nil {
		b.reply(chatID, notAuthorizedText)
		return
	}

	list, err := b.bookings.ListForUser(ctx, u.ID, myBookingsLimit)
	if err != nil {
		b.log.Error("list user bookings", "user_id", u.ID, "error", err)
		b.reply(chatID, loadFailedText)
		return
	}
	if len(list) == 0 {
		b.reply(chatID, "У вас поки немає бронювань.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Ваші бронювання:</b>\n\n")
	for i := range list {
		sb.WriteString(notification.BookingSummary(&list[i], false))
		sb.WriteString("\n")
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleToday(ctx context.Context, chatID int64) {
	if !b.isAdmin(chatID) {
		b.reply(chatID, adminOnlyText)
		return
	}

	today := b.bookings.Today()
	list, err := b.bookings.ListForDay(ctx, today)
	if err != nil {
		b.log.Error("list today bookings", "error", err)
		b.reply(chatID, loadFailedText)
		return
	}
	if len(list) == 0 {
		b.reply(chatID, "Немає бронювань на сьогодні.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 <b>Брони на сьогодні (%s):</b>\n\n", notification.FormatDate(today))
	for i := range list {
		sb.WriteString(notification.BookingSummary(&list[i], true))
		sb.WriteString("\n")
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handlePending(ctx context.Context, chatID int64) {
	if !b.isAdmin(chatID) {
		b.reply(chatID, adminOnlyText)
		return
	}

	pending := domain.BookingPending
	list, err := b.bookings.List(ctx, domain.BookingFilter{Status: &pending})
	if err != nil {
		b.log.Error("list pending bookings", "error", err)
		b.reply(chatID, loadFailedText)
		return
	}
	if len(list) == 0 {
		b.reply(chatID, "Немає непідтверджених бронювань.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⏳ <b>Непідтверджені бронювання (%d):</b>\n\n", len(list))
	for i := range list {
		sb.WriteString(notification.BookingSummary(&list[i], true))
		sb.WriteString("\n")
	}
	b.reply(chatID, sb.String())
}

func displayName(u *domain.User) string {
	if strings.TrimSpace(u.Name) == "" {
		return "гість"
	}
	return u.Name
}

func ownedBy(bk *domain.Booking, u *domain.User) bool {
	return bk.UserID != nil && *bk.UserID == u.ID
}
