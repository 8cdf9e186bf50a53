// Package telegram runs the guest and administrator chat bot on top of the
// booking, account and linking services.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cottage/internal/domain"
	"cottage/internal/modules/booking"
	"cottage/internal/pkg/contact"
)

// Client is the subset of *tgbotapi.BotAPI the bot needs.
type Client interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bookings interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	SetStatus(ctx context.Context, id string, next domain.BookingStatus, actor booking.Actor) (*domain.Booking, error)
	ConfirmPayment(ctx context.Context, id string, actor booking.Actor) (*domain.Booking, error)
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Booking, error)
	ListActiveForUser(ctx context.Context, userID int64, limit int) ([]domain.Booking, error)
	ListForDay(ctx context.Context, day time.Time) ([]domain.Booking, error)
	CountForUser(ctx context.Context, userID int64) (int64, error)
	Today() time.Time
}

type Users interface {
	FindByChatID(ctx context.Context, chatID int64) (*domain.User, error)
	FindByIdentifier(ctx context.Context, id contact.Identifier) (*domain.User, error)
	FindOrCreateByPhone(ctx context.Context, phone, name string) (*domain.User, bool, error)
	SetChatID(ctx context.Context, userID, chatID int64) error
}

type Linker interface {
	LinkUser(ctx context.Context, userID int64) (int64, error)
}

// ReceiptForwarder hands a guest's payment photo to the administrator.
type ReceiptForwarder interface {
	ReceiptReceived(b *domain.Booking, photoFileID string)
}

type Deps struct {
	Bookings    Bookings
	Users       Users
	Linker      Linker
	Receipts    ReceiptForwarder
	Normalizer  contact.Normalizer
	AdminChatID int64
}

type Bot struct {
	tg          Client
	bookings    Bookings
	users       Users
	linker      Linker
	receipts    ReceiptForwarder
	normalizer  contact.Normalizer
	adminChatID int64
	log         *slog.Logger
}

func New(tg Client, deps Deps, log *slog.Logger) (*Bot, error) {
	if tg == nil {
		return nil, errors.New("telegram client is nil")
	}
	if deps.Normalizer.CountryCode == "" {
		deps.Normalizer = contact.Default
	}
	return &Bot{
		tg:          tg,
		bookings:    deps.Bookings,
		users:       deps.Users,
		linker:      deps.Linker,
		receipts:    deps.Receipts,
		normalizer:  deps.Normalizer,
		adminChatID: deps.AdminChatID,
		log:         log.With("component", "telegram_bot"),
	}, nil
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.log.Info("telegram bot polling started")

	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			b.log.Info("telegram bot polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update. Failures are reported to the chat
// and logged; they never propagate to the transport.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Contact != nil:
		b.handleContact(ctx, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	case msg.Text != "":
		b.handleEmail(ctx, msg)
	}
}

func (b *Bot) isAdmin(chatID int64) bool {
	return b.adminChatID != 0 && chatID == b.adminChatID
}

// chatUser returns the account bound to chatID, or nil.
func (b *Bot) chatUser(ctx context.Context, chatID int64) *domain.User {
	u, err := b.users.FindByChatID(ctx, chatID)
	if err != nil {
		return nil
	}
	return u
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.tg.Send(c); err != nil {
		b.log.Warn("telegram send failed", "error", err)
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.tg.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Warn("answer callback failed", "error", err)
	}
}
