package notify

import (
	"context"
	"errors"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mesto-barbershop/notifybot/internal/yclients"
)

// Sender is the slice of the Telegram API the notifier needs.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ErrRateLimited is returned when the per-chat send budget is
// exhausted. The caller treats it like any other send failure and
// retries on a later cycle.
var ErrRateLimited = errors.New("notify: per-chat send limit reached")

// TelegramNotifier delivers reconciliation notifications over the Bot
// API. A returned error always means the message was not delivered.
type TelegramNotifier struct {
	api     Sender
	render  *Renderer
	limiter *SendLimiter // nil disables rate limiting
	logger  *slog.Logger
}

func NewTelegramNotifier(api Sender, render *Renderer, limiter *SendLimiter, logger *slog.Logger) *TelegramNotifier {
	return &TelegramNotifier{api: api, render: render, limiter: limiter, logger: logger}
}

func (n *TelegramNotifier) send(ctx context.Context, chatID int64, text string, markup any) error {
	if n.limiter != nil {
		ok, err := n.limiter.Allow(ctx, chatID)
		if err != nil {
			// Fail open: a limiter outage must not silence notifications.
			n.logger.Warn("send limiter error", "err", err, "chat_id", chatID)
		} else if !ok {
			return ErrRateLimited
		}
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := n.api.Send(msg)
	return err
}

func (n *TelegramNotifier) NewRecord(ctx context.Context, chatID int64, rec yclients.Record) error {
	return n.send(ctx, chatID, n.render.NewRecord(rec), n.render.RecordKeyboard(rec))
}

func (n *TelegramNotifier) Rescheduled(ctx context.Context, chatID int64, rec yclients.Record) error {
	return n.send(ctx, chatID, n.render.Rescheduled(rec), n.render.RecordKeyboard(rec))
}

func (n *TelegramNotifier) Reminder24h(ctx context.Context, chatID int64, rec yclients.Record) error {
	return n.send(ctx, chatID, n.render.Reminder24h(rec), n.render.RecordKeyboard(rec))
}

func (n *TelegramNotifier) Cancelled(ctx context.Context, chatID int64) error {
	return n.send(ctx, chatID, n.render.Cancelled(), n.render.BookingKeyboard())
}

func (n *TelegramNotifier) StaffArrival(ctx context.Context, chatID int64, rec yclients.Record) error {
	return n.send(ctx, chatID, n.render.StaffArrival(rec), nil)
}
