package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cottage/internal/domain"
	"cottage/internal/notification"
)

const receiptCandidates = 5

var bookingIDRe = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// handlePhoto accepts a payment receipt from an authorized guest. The
// booking is taken from the caption, or is the guest's only active one.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.isAdmin(chatID) {
		return
	}

	u := b.chatUser(ctx, chatID)
	if u == nil {
		b.reply(chatID, "❌ Спочатку авторизуйтеся через /start, щоб надіслати чек.")
		return
	}

	active, err := b.bookings.ListActiveForUser(ctx, u.ID, receiptCandidates)
	if err != nil {
		b.log.Error("list active bookings", "user_id", u.ID, "error", err)
		b.reply(chatID, loadFailedText)
		return
	}
	if len(active) == 0 {
		b.reply(chatID, "❌ У вас немає активних бронювань.")
		return
	}

	target := pickReceiptBooking(active, msg.Caption)
	if target == nil {
		b.reply(chatID, chooseBookingText(active))
		return
	}

	photo := msg.Photo[len(msg.Photo)-1]
	b.receipts.ReceiptReceived(target, photo.FileID)
	b.log.Info("payment receipt received", "booking_id", target.ID, "user_id", u.ID)

	b.reply(chatID, fmt.Sprintf("✅ Дякуємо! Чек для брони <code>%s</code> отримано.\n\n"+
		"Ми перевіримо оплату найближчим часом і надішлемо підтвердження.", target.ID))
}

func pickReceiptBooking(active []domain.Booking, caption string) *domain.Booking {
	if id := bookingIDRe.FindString(caption); id != "" {
		for i := range active {
			if strings.EqualFold(active[i].ID, id) {
				return &active[i]
			}
		}
	}
	if len(active) == 1 {
		return &active[0]
	}
	return nil
}

func chooseBookingText(active []domain.Booking) string {
	var sb strings.Builder
	sb.WriteString("📋 Оберіть бронь, для якої ви надсилаєте чек:\n\n")
	for i, bk := range active {
		fmt.Fprintf(&sb, "%d. <code>%s</code>\n", i+1, bk.ID)
		fmt.Fprintf(&sb, "   %s - %s\n", notification.FormatDate(bk.CheckIn), notification.FormatDate(bk.CheckOut))
		fmt.Fprintf(&sb, "   %s\n\n", notification.FormatMoney(bk.QuoteTotal))
	}
	fmt.Fprintf(&sb, "Надішліть фото ще раз із номером брони у підписі, наприклад:\n<code>%s</code>", active[0].ID)
	return sb.String()
}
