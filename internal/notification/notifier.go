package notification

import (
	"fmt"
	"strings"

	"cottage/internal/domain"
)

// Enqueuer is satisfied by *Dispatcher.
type Enqueuer interface {
	Enqueue(msg Message) bool
}

// Notifier turns booking events into chat messages for the administrator
// and, when the owner has linked a chat, for the guest.
type Notifier struct {
	queue       Enqueuer
	adminChatID int64
	publicURL   string
}

func NewNotifier(queue Enqueuer, adminChatID int64, publicURL string) *Notifier {
	return &Notifier{
		queue:       queue,
		adminChatID: adminChatID,
		publicURL:   strings.TrimRight(publicURL, "/"),
	}
}

// PayURL is the page where a guest sees payment instructions.
func (n *Notifier) PayURL(bookingID string) string {
	return fmt.Sprintf("%s/pay/%s", n.publicURL, bookingID)
}

func (n *Notifier) BookingCreated(b *domain.Booking, owner *domain.User) {
	n.queue.Enqueue(Message{
		Type:   TypeBookingCreated,
		ChatID: n.adminChatID,
		Text:   AdminNewBookingText(b),
		Buttons: [][]Button{{
			{Text: "✅ Підтвердити", Data: CallbackData(ActionConfirm, b.ID)},
			{Text: "❌ Відхилити", Data: CallbackData(ActionCancel, b.ID)},
		}},
	})

	if chatID := ownerChat(owner); chatID != 0 {
		n.queue.Enqueue(Message{
			Type:   TypeBookingCreated,
			ChatID: chatID,
			Text: fmt.Sprintf("⏳ <b>Бронювання отримано</b>\n\n📋 Номер брони: <code>%s</code>\n📅 Заїзд: %s\n📅 Виїзд: %s\n💰 Сума: %s\n\nМи повідомимо, щойно адміністратор підтвердить бронь.",
				b.ID, FormatDate(b.CheckIn), FormatDate(b.CheckOut), FormatMoney(b.QuoteTotal)),
		})
	}
}

// StatusChanged tells the owner about a confirmation or cancellation.
func (n *Notifier) StatusChanged(b *domain.Booking, owner *domain.User) {
	chatID := ownerChat(owner)
	if chatID == 0 {
		return
	}

	switch b.Status {
	case domain.BookingConfirmed:
		n.queue.Enqueue(Message{
			Type:   TypeBookingConfirmed,
			ChatID: chatID,
			Text: fmt.Sprintf("✅ <b>Вашу бронь підтверджено!</b>\n\n📋 Номер брони: <code>%s</code>\n📅 Заїзд: %s\n📅 Виїзд: %s\n💰 До сплати: %s\n\nЧекаємо на вас! 🌲\n\nОплатити можна за посиланням:\n%s",
				b.ID, FormatDate(b.CheckIn), FormatDate(b.CheckOut), FormatMoney(b.QuoteTotal), n.PayURL(b.ID)),
			Buttons: [][]Button{{{Text: "💳 Оплатити", URL: n.PayURL(b.ID)}}},
		})
	case domain.BookingCancelled:
		n.queue.Enqueue(Message{
			Type:   TypeBookingCancelled,
			ChatID: chatID,
			Text: fmt.Sprintf("❌ <b>Вашу бронь скасовано</b>\n\n📋 Номер брони: <code>%s</code>\n\nЯкщо у вас є питання, зв'яжіться з нами.",
				b.ID),
		})
	}
}

func (n *Notifier) PaymentConfirmed(b *domain.Booking, owner *domain.User) {
	chatID := ownerChat(owner)
	if chatID == 0 {
		return
	}
	n.queue.Enqueue(Message{
		Type:   TypePaymentConfirmed,
		ChatID: chatID,
		Text: fmt.Sprintf("✅ <b>Оплату підтверджено!</b>\n\n📋 Номер брони: <code>%s</code>\n📅 Заїзд: %s\n📅 Виїзд: %s\n\nЧекаємо на вас! 🌲",
			b.ID, FormatDate(b.CheckIn), FormatDate(b.CheckOut)),
	})
}

// ReceiptReceived forwards a guest's payment photo to the administrator.
func (n *Notifier) ReceiptReceived(b *domain.Booking, photoFileID string) {
	n.queue.Enqueue(Message{
		Type:        TypeReceiptReceived,
		ChatID:      n.adminChatID,
		PhotoFileID: photoFileID,
		Text: fmt.Sprintf("💰 <b>Чек оплати від клієнта</b>\n\n📋 Бронь: <code>%s</code>\n👤 Гість: %s\n📞 Телефон: %s\n💵 Сума: %s",
			b.ID, Escape(b.Name), Escape(b.Contact), FormatMoney(b.QuoteTotal)),
		Buttons: [][]Button{{
			{Text: "✅ Підтвердити оплату", Data: CallbackData(ActionPayment, b.ID)},
		}},
	})
}

// AdminNewBookingText is also reused when the bot re-renders the message
// after an inline action.
func AdminNewBookingText(b *domain.Booking) string {
	var sb strings.Builder
	sb.WriteString("🔔 <b>Нове бронювання!</b>\n\n")
	fmt.Fprintf(&sb, "📋 ID: <code>%s</code>\n", b.ID)
	fmt.Fprintf(&sb, "👤 Ім'я: %s\n", Escape(b.Name))
	fmt.Fprintf(&sb, "📞 Контакт: %s\n\n", Escape(b.Contact))
	fmt.Fprintf(&sb, "📅 Заїзд: %s\n", FormatDate(b.CheckIn))
	fmt.Fprintf(&sb, "📅 Виїзд: %s\n", FormatDate(b.CheckOut))
	fmt.Fprintf(&sb, "🌙 Ночей: %d\n\n", b.Nights())
	fmt.Fprintf(&sb, "👥 Гостей: %d\n", b.Guests())
	fmt.Fprintf(&sb, "   • Дорослих: %d\n", b.Adults)
	fmt.Fprintf(&sb, "   • Дітей: %d", b.ChildrenTotal)
	if b.ChildrenOver6 > 0 {
		fmt.Fprintf(&sb, " (старших 6 років: %d)", b.ChildrenOver6)
	}
	sb.WriteString("\n")
	if b.HasPet {
		sb.WriteString("🐾 З домашнім улюбленцем\n")
	}
	fmt.Fprintf(&sb, "\n💰 Сума: %s\n", FormatMoney(b.QuoteTotal))
	if b.Comment != nil && *b.Comment != "" {
		fmt.Fprintf(&sb, "\n💬 Коментар: %s\n", Escape(*b.Comment))
	}
	if b.Source != "" {
		fmt.Fprintf(&sb, "📱 Джерело: %s\n", Escape(b.Source))
	}
	fmt.Fprintf(&sb, "\n%s <b>Статус: %s</b>", StatusEmoji(b.Status), StatusText(b.Status))
	return sb.String()
}

func ownerChat(u *domain.User) int64 {
	if u == nil || u.TelegramChatID == nil {
		return 0
	}
	return *u.TelegramChatID
}
